package indexing

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/internal/errors"
	"github.com/gcbaptista/doc-search-index/internal/logger"
	"github.com/gcbaptista/doc-search-index/internal/metrics"
	"github.com/gcbaptista/doc-search-index/model"
)

// Options controls how a Builder treats the catalog.
type Options struct {
	// Strict aborts a Build on the first malformed entity instead of skipping it.
	Strict bool
	// Metrics receives ingest counters. May be nil.
	Metrics *metrics.Metrics
	// Progress, when set, is called after every entity with the number handled so far.
	Progress func(done, total int)
}

// Builder fills one SearchIndex from catalog entities.
// A Builder is not safe for concurrent use, and the index it fills must not be
// handed to readers until ingestion is finished.
type Builder struct {
	index    *index.SearchIndex
	opts     Options
	logger   *slog.Logger
	ingested int
	rejected int
}

// NewBuilder creates a Builder over a fresh, empty SearchIndex.
func NewBuilder(opts Options) *Builder {
	return &Builder{
		index:  index.NewSearchIndex(),
		opts:   opts,
		logger: logger.WithComponent("builder"),
	}
}

// Ingest validates entity and, only if it is well formed, records it in all
// three structures: the exact and partial tokens, the path metadata and the
// display name in the trie.
func (b *Builder) Ingest(entity model.Entity) error {
	if err := ValidateEntity(entity); err != nil {
		b.rejected++
		b.opts.Metrics.ObserveIngest(false)
		return err
	}

	nameLowerCase := strings.ToLower(entity.Name)
	b.index.Tokens.Record(nameLowerCase, entity.Category, entity.Path, true)
	for _, token := range entity.PartialTokens {
		b.index.Tokens.Record(token, entity.Category, entity.Path, false)
	}

	b.index.Metadata.Put(entity.Path, model.BasicSearchInfo{
		Name:        entity.Name,
		Description: entity.Description,
		Type:        entity.Category,
		Owner:       entity.Owner,
	})

	b.index.Trie.Insert(entity.Name)

	b.ingested++
	b.opts.Metrics.ObserveIngest(true)
	return nil
}

// Index returns the index being filled.
func (b *Builder) Index() *index.SearchIndex {
	return b.index
}

// Ingested returns how many entities were accepted.
func (b *Builder) Ingested() int {
	return b.ingested
}

// Rejected returns how many entities failed validation.
func (b *Builder) Rejected() int {
	return b.rejected
}

// BuildReport summarises a finished Build.
type BuildReport struct {
	Ingested   int           `json:"ingested"`
	Rejected   int           `json:"rejected"`
	Rejections []string      `json:"rejections,omitempty"`
	Stats      index.Stats   `json:"stats"`
	Duration   time.Duration `json:"duration"`
}

// maxReportedRejections caps how many rejection messages a report keeps.
const maxReportedRejections = 50

// Build ingests entities in order into a new SearchIndex.
// Malformed entities are skipped and reported unless opts.Strict is set, in
// which case the first one aborts the build and no index is returned.
func Build(entities []model.Entity, opts Options) (*index.SearchIndex, *BuildReport, error) {
	start := time.Now()
	b := NewBuilder(opts)
	report := &BuildReport{}

	for i, entity := range entities {
		if err := b.Ingest(entity); err != nil {
			if opts.Strict {
				opts.Metrics.ObserveBuild(false, time.Since(start).Seconds())
				return nil, nil, fmt.Errorf("catalog entry %d: %w", i, err)
			}
			b.logger.Warn("skipping malformed catalog entry", "entry", i, "error", err)
			if len(report.Rejections) < maxReportedRejections {
				report.Rejections = append(report.Rejections, fmt.Sprintf("entry %d: %v", i, err))
			}
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(entities))
		}
	}

	report.Ingested = b.Ingested()
	report.Rejected = b.Rejected()
	report.Stats = b.index.Stats()
	report.Duration = time.Since(start)

	opts.Metrics.ObserveBuild(true, report.Duration.Seconds())
	b.logger.Info("index built",
		"ingested", report.Ingested,
		"rejected", report.Rejected,
		"words", report.Stats.Words,
		"tokens", report.Stats.Tokens,
		"paths", report.Stats.Paths,
		"duration", report.Duration)

	return b.index, report, nil
}

// Lookups and describes trim their input, so padded keys would be unreachable.
const surroundingWhitespace = "must not have leading or trailing whitespace"

// ValidateEntity checks every field of entity before anything is recorded.
func ValidateEntity(entity model.Entity) error {
	if strings.TrimSpace(entity.Name) == "" {
		return errors.NewInvalidEntityError(entity.Name, entity.Path, "name", "must not be empty")
	}
	if strings.TrimSpace(entity.Name) != entity.Name {
		return errors.NewInvalidEntityError(entity.Name, entity.Path, "name", surroundingWhitespace)
	}
	if strings.TrimSpace(entity.Path) == "" {
		return errors.NewInvalidEntityError(entity.Name, entity.Path, "path", "must not be empty")
	}
	if strings.TrimSpace(entity.Path) != entity.Path {
		return errors.NewInvalidEntityError(entity.Name, entity.Path, "path", surroundingWhitespace)
	}
	if entity.Category == "" {
		return errors.NewInvalidEntityError(entity.Name, entity.Path, "category", "must not be empty")
	}
	if !entity.Category.Valid() {
		return errors.NewInvalidEntityError(entity.Name, entity.Path, "category",
			fmt.Sprintf("unknown category '%s'", entity.Category))
	}
	for i, token := range entity.PartialTokens {
		field := fmt.Sprintf("partial_tokens[%d]", i)
		if token == "" {
			return errors.NewInvalidEntityError(entity.Name, entity.Path, field, "must not be empty")
		}
		if strings.TrimSpace(token) != token {
			return errors.NewInvalidEntityError(entity.Name, entity.Path, field, surroundingWhitespace)
		}
		if token != strings.ToLower(token) {
			return errors.NewInvalidEntityError(entity.Name, entity.Path, field,
				fmt.Sprintf("token '%s' must be lowercase", token))
		}
	}
	return nil
}
