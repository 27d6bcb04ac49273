package engine_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/doc-search-index/internal/catalog"
	"github.com/gcbaptista/doc-search-index/internal/engine"
	internalErrors "github.com/gcbaptista/doc-search-index/internal/errors"
	"github.com/gcbaptista/doc-search-index/internal/metrics"
	"github.com/gcbaptista/doc-search-index/internal/persistence"
	testutil "github.com/gcbaptista/doc-search-index/internal/testing"
	"github.com/gcbaptista/doc-search-index/model"
)

func TestNewEngineServesEmptyIndex(t *testing.T) {
	eng := testutil.CreateTestEngine(t, engine.Options{})

	assert.Equal(t, []string{}, eng.Suggest("a"))
	assert.True(t, eng.Lookup("tick").IsEmpty())
	_, ok := eng.Describe(testutil.TickPath)
	assert.False(t, ok)

	status := eng.Status()
	assert.Equal(t, engine.SourceEmpty, status.Source)
	assert.NotEmpty(t, status.Version)
	assert.Equal(t, 0, status.Words)
}

func TestEngineRebuild(t *testing.T) {
	eng := testutil.CreateTestEngine(t, engine.Options{})

	report, err := eng.Rebuild(context.Background(), testutil.SampleEntities())
	require.NoError(t, err)
	assert.Equal(t, len(testutil.SampleEntities()), report.Ingested)

	assert.Equal(t, []string{"TestInt"}, eng.Suggest("Te"))
	assert.Contains(t, eng.Suggest("ti"), "Tick")

	partial := eng.Lookup("begin")
	assert.Equal(t, []string{testutil.BeginPlayPath}, partial.PartialMatches.Get(model.CategoryFunction))

	health := eng.Lookup("health")
	assert.Equal(t, []string{testutil.HealthClassPath}, health.PartialMatches.Get(model.CategoryClass))
	assert.Equal(t, []string{testutil.MaxHealthPath}, health.PartialMatches.Get(model.CategoryVariable))

	info, ok := eng.Describe(testutil.IdlePath)
	require.True(t, ok)
	assert.Equal(t, model.CategoryEnumValue, info.Type)
	assert.Equal(t, "EUnitState", info.Owner)

	status := eng.Status()
	assert.Equal(t, engine.SourceEntities, status.Source)
	assert.Equal(t, len(testutil.SampleEntities()), status.Paths)
}

func TestEngineRebuildReplacesWholeIndex(t *testing.T) {
	eng := testutil.CreateLoadedEngine(t)
	before := eng.Snapshot()

	_, err := eng.Rebuild(context.Background(), []model.Entity{
		{Name: "Only", Category: model.CategoryClass, Path: "Classes/Only.html"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{}, eng.Suggest("tick"))
	assert.Equal(t, []string{"Only"}, eng.Suggest("o"))
	assert.NotEqual(t, before.Version, eng.Status().Version)

	// Readers holding the old snapshot still see the old data
	assert.Equal(t, []string{"Tick"}, before.Searcher().Suggest("tick"))
}

func TestEngineStrictRebuildKeepsPreviousIndex(t *testing.T) {
	eng := testutil.CreateTestEngine(t, engine.Options{Strict: true})
	_, err := eng.Rebuild(context.Background(), testutil.SampleEntities())
	require.NoError(t, err)
	version := eng.Status().Version

	broken := append(testutil.SampleEntities(), model.Entity{Name: "Broken", Category: "method", Path: "Broken.html"})
	_, err = eng.Rebuild(context.Background(), broken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidEntity))

	assert.Equal(t, version, eng.Status().Version)
	assert.Equal(t, []string{"Tick"}, eng.Suggest("tick"))
}

func TestEngineRebuildCancelled(t *testing.T) {
	eng := testutil.CreateTestEngine(t, engine.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.Rebuild(ctx, testutil.SampleEntities())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, engine.SourceEmpty, eng.Status().Source)
}

func TestEngineRebuildFromCatalog(t *testing.T) {
	dir := t.TempDir()
	entities := []model.Entity{
		{Name: "UUnitHealthComponent", Description: "Tracks unit &lt;health&gt;.", Category: "Class", Path: testutil.HealthClassPath},
		{Name: "Broken", Category: "widget", Path: "Broken.html"},
	}
	path := testutil.WriteCatalog(t, dir, "catalog.yaml", entities)

	m := metrics.New()
	eng := testutil.CreateTestEngine(t, engine.Options{
		CatalogPath: path,
		Catalog:     catalog.Options{DerivePartialTokens: true, UnescapeDescriptions: true},
		Metrics:     m,
	})

	report, err := eng.RebuildFromCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 1, report.Rejected)

	assert.Equal(t, engine.SourceCatalog, eng.Status().Source)
	assert.Equal(t, []string{testutil.HealthClassPath}, eng.Lookup("health").PartialMatches.Get(model.CategoryClass))
	info, ok := eng.Describe(testutil.HealthClassPath)
	require.True(t, ok)
	assert.Equal(t, "Tracks unit <health>.", info.Description)
}

func TestEngineRebuildFromCatalogErrors(t *testing.T) {
	unconfigured := testutil.CreateTestEngine(t, engine.Options{})
	_, err := unconfigured.RebuildFromCatalog(context.Background())
	assert.ErrorIs(t, err, internalErrors.ErrCatalogNotConfigured)

	_, err = unconfigured.RebuildAsync()
	assert.ErrorIs(t, err, internalErrors.ErrCatalogNotConfigured)

	missing := testutil.CreateTestEngine(t, engine.Options{CatalogPath: filepath.Join(t.TempDir(), "missing.json")})
	_, err = missing.RebuildFromCatalog(context.Background())
	assert.Error(t, err)
	assert.Equal(t, engine.SourceEmpty, missing.Status().Source)
}

func TestEngineConcurrentCatalogRebuilds(t *testing.T) {
	path := testutil.WriteCatalog(t, t.TempDir(), "catalog.json", testutil.SampleEntities())
	eng := testutil.CreateTestEngine(t, engine.Options{CatalogPath: path})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.RebuildFromCatalog(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, engine.SourceCatalog, eng.Status().Source)
	assert.Equal(t, len(testutil.SampleEntities()), eng.Status().Paths)
}

func TestEngineQueriesDuringRebuilds(t *testing.T) {
	eng := testutil.CreateLoadedEngine(t)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// Every snapshot published here holds the same catalog
				assert.Equal(t, []string{"TestInt"}, eng.Suggest("te"))
				assert.False(t, eng.Lookup("unit").IsEmpty())
			}
		}()
	}

	for i := 0; i < 10; i++ {
		_, err := eng.Rebuild(context.Background(), testutil.SampleEntities())
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestEngineRebuildAsync(t *testing.T) {
	path := testutil.WriteCatalog(t, t.TempDir(), "catalog.json", testutil.SampleEntities())
	eng := testutil.CreateTestEngine(t, engine.Options{CatalogPath: path})

	jobID, err := eng.RebuildAsync()
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job := testutil.WaitForJobCompletion(t, eng, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeRebuild)
	assert.Equal(t, path, job.Metadata["catalog"])
	require.NotNil(t, job.Progress)
	assert.Equal(t, len(testutil.SampleEntities()), job.Progress.Total)
	assert.Equal(t, job.Progress.Total, job.Progress.Current)

	assert.Equal(t, []string{"TestInt"}, eng.Suggest("te"))
}

func TestEngineRebuildAsyncFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))
	eng := testutil.CreateTestEngine(t, engine.Options{CatalogPath: path})

	jobID, err := eng.RebuildAsync()
	require.NoError(t, err)

	job := testutil.WaitForJob(t, eng, jobID, testutil.DefaultJobPollingOptions())
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "catalog")
}

func TestEngineGetUnknownJob(t *testing.T) {
	eng := testutil.CreateTestEngine(t, engine.Options{})
	_, err := eng.GetJob("nope")
	assert.ErrorIs(t, err, internalErrors.ErrJobNotFound)
}

func TestEngineBundleRoundTrip(t *testing.T) {
	source := testutil.CreateLoadedEngine(t)
	dir := t.TempDir()

	for _, name := range []string{"index.json", "index.gob"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, source.SaveBundle(path))

			target := testutil.CreateTestEngine(t, engine.Options{})
			require.NoError(t, target.LoadBundle(path))

			assert.Equal(t, source.Status().Version, target.Status().Version)
			assert.True(t, source.Status().BuiltAt.Equal(target.Status().BuiltAt))
			assert.Equal(t, engine.SourceBundle, target.Status().Source)
			assert.Equal(t, source.Status().Stats, target.Status().Stats)

			for _, prefix := range []string{"t", "a", "UU", "max"} {
				assert.Equal(t, source.Suggest(prefix), target.Suggest(prefix), "prefix %q", prefix)
			}
			assert.Equal(t, source.Lookup("unit"), target.Lookup("unit"))
		})
	}
}

func TestEngineLoadBundleErrorsKeepIndex(t *testing.T) {
	eng := testutil.CreateLoadedEngine(t)
	version := eng.Status().Version

	err := eng.LoadBundle(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, version, eng.Status().Version)
}

func TestEngineWriteBundle(t *testing.T) {
	eng := testutil.CreateLoadedEngine(t)

	var buf bytes.Buffer
	require.NoError(t, eng.WriteBundle(&buf, persistence.FormatJSON))

	bundle, err := persistence.Decode(&buf, persistence.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, eng.Status().Version, bundle.IndexVersion)
	assert.Len(t, bundle.Words, len(testutil.SampleEntities()))
}

func TestEngineLookupMany(t *testing.T) {
	eng := testutil.CreateLoadedEngine(t)

	results, err := eng.LookupMany(context.Background(), []string{"unit", "Idle"})
	require.NoError(t, err)
	assert.Equal(t, []string{testutil.UnitStatePath}, results["unit"].PartialMatches.Get(model.CategoryEnum))
	assert.Equal(t, []string{testutil.IdlePath}, results["Idle"].ExactMatches.Get(model.CategoryEnumValue))
}
