package store

import (
	"github.com/gcbaptista/doc-search-index/model"
)

// MetadataStore maps a documentation path to the display record of the entity
// documented there. One record per path; later writes win.
type MetadataStore struct {
	records map[string]model.BasicSearchInfo
}

// NewMetadataStore creates an empty MetadataStore.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{records: make(map[string]model.BasicSearchInfo)}
}

// NewMetadataStoreFromRecords wraps an already decoded record table.
func NewMetadataStoreFromRecords(records map[string]model.BasicSearchInfo) *MetadataStore {
	if records == nil {
		records = make(map[string]model.BasicSearchInfo)
	}
	return &MetadataStore{records: records}
}

// Put stores info under path, replacing any previous record.
func (ms *MetadataStore) Put(path string, info model.BasicSearchInfo) {
	ms.records[path] = info
}

// Get returns the record for path and whether one exists.
func (ms *MetadataStore) Get(path string) (model.BasicSearchInfo, bool) {
	info, ok := ms.records[path]
	return info, ok
}

// Len returns the number of stored paths.
func (ms *MetadataStore) Len() int {
	return len(ms.records)
}

// Records returns a copy of every record keyed by path.
func (ms *MetadataStore) Records() map[string]model.BasicSearchInfo {
	out := make(map[string]model.BasicSearchInfo, len(ms.records))
	for path, info := range ms.records {
		out[path] = info
	}
	return out
}
