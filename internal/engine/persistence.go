package engine

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/gcbaptista/doc-search-index/internal/persistence"
)

// LoadBundle replaces the served index with the bundle at path.
// The bundle's version and build time are kept; a bundle without a version
// gets a fresh one.
func (e *Engine) LoadBundle(path string) error {
	bundle, err := persistence.LoadBundle(path)
	if err != nil {
		return fmt.Errorf("failed to load bundle: %w", err)
	}

	idx, err := bundle.Index()
	if err != nil {
		return fmt.Errorf("failed to restore index from bundle %s: %w", path, err)
	}

	version := bundle.IndexVersion
	if version == "" {
		version = uuid.NewString()
	}

	snap, err := newSnapshot(idx, version, bundle.BuiltAt, SourceBundle, e.searchOptions())
	if err != nil {
		return err
	}
	e.publish(snap)
	return nil
}

// SaveBundle writes the served index to path, in the format implied by its
// extension.
func (e *Engine) SaveBundle(path string) error {
	bundle := e.Bundle()
	if err := persistence.SaveBundle(path, bundle); err != nil {
		return fmt.Errorf("failed to save bundle: %w", err)
	}
	e.log.Info("bundle saved", "path", path, "version", bundle.IndexVersion)
	return nil
}

// WriteBundle encodes the served index to w.
func (e *Engine) WriteBundle(w io.Writer, format persistence.Format) error {
	return persistence.Encode(w, e.Bundle(), format)
}

// Bundle captures the served snapshot. Its IndexVersion names exactly the
// index it holds, even if another snapshot is published meanwhile.
func (e *Engine) Bundle() *persistence.Bundle {
	snap := e.current.Load()
	return persistence.NewBundle(snap.Index, snap.Version, snap.BuiltAt)
}
