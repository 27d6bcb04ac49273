// Package catalog reads the entity catalog produced by the documentation
// extractor and normalizes it for the index builder.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gcbaptista/doc-search-index/internal/tokenizer"
	"github.com/gcbaptista/doc-search-index/model"
)

// Options controls how raw catalog records are normalized.
type Options struct {
	// DerivePartialTokens fills in partial tokens from the name when a record
	// carries none.
	DerivePartialTokens bool
	// UnescapeDescriptions turns markup entities such as &lt; back into text.
	UnescapeDescriptions bool
}

// Load reads the catalog at path. The format is picked from the extension:
// .json, .yaml or .yml, each holding a list of entity records.
func Load(path string, opts Options) ([]model.Entity, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var entities []model.Entity
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		entities, err = ParseJSON(bytes.NewReader(data), opts)
	case ".yaml", ".yml":
		entities, err = ParseYAML(bytes.NewReader(data), opts)
	default:
		return nil, fmt.Errorf("unsupported catalog extension for %s (use .json, .yaml or .yml)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return entities, nil
}

// ParseJSON decodes a JSON array of entity records.
func ParseJSON(r io.Reader, opts Options) ([]model.Entity, error) {
	var entities []model.Entity
	if err := json.NewDecoder(r).Decode(&entities); err != nil {
		return nil, fmt.Errorf("invalid JSON catalog: %w", err)
	}
	return Normalize(entities, opts), nil
}

// ParseYAML decodes a YAML sequence of entity records.
// An empty document is an empty catalog.
func ParseYAML(r io.Reader, opts Options) ([]model.Entity, error) {
	var entities []model.Entity
	if err := yaml.NewDecoder(r).Decode(&entities); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid YAML catalog: %w", err)
	}
	return Normalize(entities, opts), nil
}

// Normalize canonicalizes categories and applies opts to every record in
// place. Records with an unrecognised category keep it verbatim so the
// builder can reject them with a precise error.
func Normalize(entities []model.Entity, opts Options) []model.Entity {
	if entities == nil {
		return []model.Entity{}
	}
	for i := range entities {
		e := &entities[i]
		if category, ok := model.ParseCategory(string(e.Category)); ok {
			e.Category = category
		}
		if opts.UnescapeDescriptions {
			e.Description = html.UnescapeString(e.Description)
		}
		if opts.DerivePartialTokens && len(e.PartialTokens) == 0 {
			e.PartialTokens = DerivePartialTokens(e.Name)
		}
	}
	return entities
}

// minDerivedTokenLength drops the one-letter type prefixes (U, A, F, E) that
// engine identifiers carry.
const minDerivedTokenLength = 2

// DerivePartialTokens splits a display name into its lowercase camel-case
// fragments, e.g. "UUnitHealthComponent" gives unit, health and component.
func DerivePartialTokens(name string) []string {
	return tokenizer.Fragments(name, minDerivedTokenLength)
}
