// Package persistence serializes a finished SearchIndex into a bundle that
// clients download once and query locally, and loads it back.
package persistence

import (
	"fmt"
	"time"

	"github.com/gcbaptista/doc-search-index/index"
	"github.com/gcbaptista/doc-search-index/model"
	"github.com/gcbaptista/doc-search-index/store"
)

// FormatVersion is bumped whenever the bundle layout changes.
const FormatVersion = 1

// Bundle is the serialized form of a SearchIndex.
// The trie is stored as its words in insertion order, which is enough to
// rebuild a trie with the same shape and suggestion order.
type Bundle struct {
	FormatVersion int                              `json:"format_version"`
	IndexVersion  string                           `json:"index_version"`
	BuiltAt       time.Time                        `json:"built_at"`
	Words         []string                         `json:"words"`
	Tokens        map[string]*index.SearchPaths    `json:"tokens"`
	Metadata      map[string]model.BasicSearchInfo `json:"metadata"`
}

// NewBundle captures idx into a Bundle. The bundle holds copies, so later
// changes to idx are not reflected.
func NewBundle(idx *index.SearchIndex, indexVersion string, builtAt time.Time) *Bundle {
	return &Bundle{
		FormatVersion: FormatVersion,
		IndexVersion:  indexVersion,
		BuiltAt:       builtAt.UTC(),
		Words:         idx.Trie.Words(),
		Tokens:        idx.Tokens.Table(),
		Metadata:      idx.Metadata.Records(),
	}
}

// Index rebuilds the SearchIndex held by the bundle.
func (b *Bundle) Index() (*index.SearchIndex, error) {
	if b.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported bundle format version %d (expected %d)", b.FormatVersion, FormatVersion)
	}
	return &index.SearchIndex{
		Trie:     index.NewTrieFromWords(b.Words),
		Tokens:   index.NewTokenIndexFromTable(b.Tokens),
		Metadata: store.NewMetadataStoreFromRecords(b.Metadata),
	}, nil
}
