package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/internal/metrics"
	"github.com/gcbaptista/doc-search-index/model"
	"github.com/gcbaptista/doc-search-index/services"
)

// DefaultSuggestCacheSize is the number of prefixes whose suggestions are kept.
const DefaultSuggestCacheSize = 1024

// maxParallelLookups bounds the goroutines used by LookupMany.
const maxParallelLookups = 8

// Options configures a Service.
type Options struct {
	// SuggestCacheSize is the number of cached prefixes. Zero uses the default,
	// a negative value disables caching.
	SuggestCacheSize int
	Metrics          *metrics.Metrics
}

// Service answers the three read queries of the search box against one
// finished SearchIndex. It fulfills the services.QueryFacade interface and is
// safe for concurrent use as long as the index is no longer being built.
type Service struct {
	index   *index.SearchIndex
	cache   *lru.Cache[string, []string]
	metrics *metrics.Metrics
}

// NewService creates a new search Service over idx.
func NewService(idx *index.SearchIndex, opts Options) (*Service, error) {
	if idx == nil {
		return nil, fmt.Errorf("search index cannot be nil")
	}
	if idx.Trie == nil || idx.Tokens == nil || idx.Metadata == nil {
		return nil, fmt.Errorf("search index is missing a component")
	}

	s := &Service{index: idx, metrics: opts.Metrics}

	size := opts.SuggestCacheSize
	if size == 0 {
		size = DefaultSuggestCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, []string](size)
		if err != nil {
			return nil, fmt.Errorf("failed to create suggestion cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Suggest returns the display names that start with prefix, ignoring case.
// An empty prefix returns an empty slice.
func (s *Service) Suggest(prefix string) []string {
	start := time.Now()
	if prefix == "" {
		s.metrics.ObserveQuery(metrics.OpSuggest, false, time.Since(start).Seconds())
		return []string{}
	}

	key := suggestCacheKey(prefix)
	if s.cache != nil {
		if words, ok := s.cache.Get(key); ok {
			s.metrics.ObserveSuggestCacheHit()
			s.metrics.ObserveQuery(metrics.OpSuggest, len(words) > 0, time.Since(start).Seconds())
			return copyWords(words)
		}
	}

	words := s.index.Trie.Suggest(prefix)
	if s.cache != nil {
		s.cache.Add(key, words)
	}
	s.metrics.ObserveQuery(metrics.OpSuggest, len(words) > 0, time.Since(start).Seconds())
	return copyWords(words)
}

// Lookup returns the exact and partial matches for token. The token is
// trimmed and lowercased first, the same normalization names get at build time.
func (s *Service) Lookup(token string) *index.SearchPaths {
	start := time.Now()
	paths := s.index.Tokens.Lookup(NormalizeToken(token))
	s.metrics.ObserveQuery(metrics.OpLookup, !paths.IsEmpty(), time.Since(start).Seconds())
	return paths
}

// LookupMany runs Lookup for every token in parallel and returns the results
// keyed by the token as given.
func (s *Service) LookupMany(ctx context.Context, tokens []string) (map[string]*index.SearchPaths, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("at least one token is required")
	}

	results := make([]*index.SearchPaths, len(tokens))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)
	for i, token := range tokens {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("lookup of '%s' cancelled: %w", token, err)
			}
			results[i] = s.Lookup(token)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*index.SearchPaths, len(tokens))
	for i, token := range tokens {
		out[token] = results[i]
	}
	return out, nil
}

// Describe returns the display record for a documentation path and whether
// one exists.
func (s *Service) Describe(path string) (model.BasicSearchInfo, bool) {
	start := time.Now()
	info, ok := s.index.Metadata.Get(path)
	s.metrics.ObserveQuery(metrics.OpDescribe, ok, time.Since(start).Seconds())
	return info, ok
}

// Stats returns the size of the underlying index.
func (s *Service) Stats() index.Stats {
	return s.index.Stats()
}

// NormalizeToken trims and lowercases a user supplied lookup token.
func NormalizeToken(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// suggestCacheKey folds prefixes that yield identical suggestions onto one key.
// Malformed UTF-8 is kept verbatim, since lowering it would merge distinct bytes.
func suggestCacheKey(prefix string) string {
	if !utf8.ValidString(prefix) {
		return prefix
	}
	return strings.Map(unicode.ToLower, prefix)
}

func copyWords(words []string) []string {
	out := make([]string, len(words))
	copy(out, words)
	return out
}

var (
	_ services.QueryFacade   = (*Service)(nil)
	_ services.BatchLookuper = (*Service)(nil)
)
