package search

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/internal/indexing"
	"github.com/gcbaptista/doc-search-index/internal/metrics"
	"github.com/gcbaptista/doc-search-index/model"
)

func buildTestIndex(t *testing.T) *index.SearchIndex {
	t.Helper()
	entities := []model.Entity{
		{Name: "Tick", Category: model.CategoryFunction, Owner: "AActor", Path: "Classes/AActor/Functions/Tick.html"},
		{Name: "TestInt", Category: model.CategoryVariable, Owner: "UTestComponent", Path: "Classes/UTestComponent/Variables/TestInt.html", PartialTokens: []string{"test", "int"}},
		{Name: "BeginPlay", Description: "Called when play begins for this actor.", Category: model.CategoryFunction, Owner: "A", Path: "Classes/A/Functions/BeginPlay.html", PartialTokens: []string{"begin", "play"}},
		{Name: "ABuilding", Category: model.CategoryClass, Path: "Classes/ABuilding.html", PartialTokens: []string{"building"}},
	}
	idx, _, err := indexing.Build(entities, indexing.Options{Strict: true})
	require.NoError(t, err)
	return idx
}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	svc, err := NewService(buildTestIndex(t), opts)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsIncompleteIndex(t *testing.T) {
	_, err := NewService(nil, Options{})
	assert.Error(t, err)

	_, err = NewService(&index.SearchIndex{}, Options{})
	assert.Error(t, err)
}

func TestServiceSuggest(t *testing.T) {
	tests := []struct {
		name      string
		cacheSize int
	}{
		{"cached", 16},
		{"uncached", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, Options{SuggestCacheSize: tt.cacheSize})

			assert.Equal(t, []string{"TestInt"}, svc.Suggest("Te"))
			assert.Equal(t, []string{"TestInt"}, svc.Suggest("te"), "cache key must not change the answer")
			assert.Equal(t, []string{"Tick"}, svc.Suggest("ti"))
			assert.Equal(t, []string{}, svc.Suggest(""))
			assert.Equal(t, []string{}, svc.Suggest("zzz"))
		})
	}
}

func TestServiceSuggestReturnsIndependentSlices(t *testing.T) {
	svc := newTestService(t, Options{})

	first := svc.Suggest("t")
	require.NotEmpty(t, first)
	first[0] = "Mutated"

	assert.NotContains(t, svc.Suggest("t"), "Mutated")
}

func TestServiceLookup(t *testing.T) {
	svc := newTestService(t, Options{})

	got := svc.Lookup("begin")
	assert.Equal(t, []string{"Classes/A/Functions/BeginPlay.html"}, got.PartialMatches.Get(model.CategoryFunction))
	assert.Empty(t, got.ExactMatches.Get(model.CategoryFunction))

	exact := svc.Lookup("  BeginPlay ")
	assert.Equal(t, []string{"Classes/A/Functions/BeginPlay.html"}, exact.ExactMatches.Get(model.CategoryFunction))

	miss := svc.Lookup("unknown")
	require.NotNil(t, miss)
	assert.True(t, miss.IsEmpty())
}

func TestServiceDescribe(t *testing.T) {
	svc := newTestService(t, Options{})

	info, ok := svc.Describe("Classes/A/Functions/BeginPlay.html")
	require.True(t, ok)
	assert.Equal(t, model.BasicSearchInfo{
		Name:        "BeginPlay",
		Description: "Called when play begins for this actor.",
		Type:        model.CategoryFunction,
		Owner:       "A",
	}, info)

	_, ok = svc.Describe("Classes/Missing.html")
	assert.False(t, ok)
}

func TestServiceLookupMany(t *testing.T) {
	svc := newTestService(t, Options{})

	results, err := svc.LookupMany(context.Background(), []string{"test", "Tick", "nothing"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []string{"Classes/UTestComponent/Variables/TestInt.html"}, results["test"].PartialMatches.Get(model.CategoryVariable))
	assert.Equal(t, []string{"Classes/AActor/Functions/Tick.html"}, results["Tick"].ExactMatches.Get(model.CategoryFunction))
	assert.True(t, results["nothing"].IsEmpty())
}

func TestServiceLookupManyValidation(t *testing.T) {
	svc := newTestService(t, Options{})

	_, err := svc.LookupMany(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.LookupMany(ctx, []string{"tick"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceConcurrentQueries(t *testing.T) {
	svc := newTestService(t, Options{SuggestCacheSize: 2})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, []string{"TestInt"}, svc.Suggest("te"))
				assert.Equal(t, []string{"ABuilding"}, svc.Suggest("ab"))
				assert.False(t, svc.Lookup("building").IsEmpty())
				_, ok := svc.Describe("Classes/ABuilding.html")
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}

func TestServiceRecordsQueryMetrics(t *testing.T) {
	m := metrics.New()
	svc := newTestService(t, Options{Metrics: m})

	svc.Suggest("te")
	svc.Suggest("te")
	svc.Lookup("nothing")
	svc.Describe("Classes/ABuilding.html")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() == nil {
				continue
			}
			key := family.GetName()
			for _, label := range metric.GetLabel() {
				key += "," + label.GetName() + "=" + label.GetValue()
			}
			counts[key] += metric.GetCounter().GetValue()
		}
	}

	assert.Equal(t, float64(2), counts["docsearch_queries_total,op=suggest,outcome=hit"])
	assert.Equal(t, float64(1), counts["docsearch_queries_total,op=lookup,outcome=empty"])
	assert.Equal(t, float64(1), counts["docsearch_queries_total,op=describe,outcome=hit"])
	assert.Equal(t, float64(1), counts["docsearch_suggest_cache_hits_total"])
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "beginplay", NormalizeToken("  BeginPlay\t"))
	assert.Equal(t, "", NormalizeToken("   "))
}

func TestServiceReachesEveryIndexedKey(t *testing.T) {
	entities := []model.Entity{
		{Name: "operator+", Category: model.CategoryFunction, Owner: "FVector", Path: "Classes/FVector/Functions/operator+.html", PartialTokens: []string{"operator", "plus"}},
		{Name: "Operator Plus", Category: model.CategoryTypedef, Path: "Typedefs/OperatorPlus.html", PartialTokens: []string{"operator plus"}},
		{Name: "operator ", Category: model.CategoryFunction, Path: "Classes/Padded.html"},
		{Name: "Minus", Category: model.CategoryFunction, Path: "Classes/Minus.html", PartialTokens: []string{" minus"}},
		{Name: "Padded", Category: model.CategoryClass, Path: " Classes/Padded.html"},
	}
	idx, report, err := indexing.Build(entities, indexing.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rejected, "padded names, tokens and paths are rejected")

	svc, err := NewService(idx, Options{SuggestCacheSize: -1})
	require.NoError(t, err)

	for token := range idx.Tokens.Table() {
		assert.False(t, svc.Lookup(token).IsEmpty(), "token %q is indexed but not reachable", token)
	}
	for path := range idx.Metadata.Records() {
		_, ok := svc.Describe(path)
		assert.True(t, ok, "path %q is indexed but not describable", path)
	}
}
