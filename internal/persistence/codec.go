package persistence

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format selects the bundle encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatGob  Format = "gob"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".gob":
		return FormatGob, nil
	default:
		return "", fmt.Errorf("unsupported bundle extension for %s (use .json or .gob)", path)
	}
}

// Encode writes b to w in the given format.
func Encode(w io.Writer, b *Bundle, format Format) error {
	switch format {
	case FormatJSON:
		if err := json.NewEncoder(w).Encode(b); err != nil {
			return fmt.Errorf("failed to json encode bundle: %w", err)
		}
	case FormatGob:
		if err := gob.NewEncoder(w).Encode(b); err != nil {
			return fmt.Errorf("failed to gob encode bundle: %w", err)
		}
	default:
		return fmt.Errorf("unsupported bundle format '%s'", format)
	}
	return nil
}

// Decode reads a bundle in the given format from r.
func Decode(r io.Reader, format Format) (*Bundle, error) {
	var b Bundle
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to json decode bundle: %w", err)
		}
	case FormatGob:
		if err := gob.NewDecoder(r).Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to gob decode bundle: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported bundle format '%s'", format)
	}
	return &b, nil
}

// SaveBundle writes b to filePath, choosing the format from the extension.
// It creates missing directories and replaces the file atomically, so readers
// never observe a half-written bundle.
func SaveBundle(filePath string, b *Bundle) error {
	format, err := FormatFromPath(filePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op once the rename succeeded
		_ = os.Remove(tmpPath)
	}()

	if err := Encode(tmp, b, format); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write bundle %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to move bundle into place at %s: %w", filePath, err)
	}
	return nil
}

// LoadBundle reads the bundle at filePath, choosing the format from the
// extension. If the file does not exist it returns os.ErrNotExist, allowing
// callers to handle fresh starts gracefully.
func LoadBundle(filePath string) (*Bundle, error) {
	format, err := FormatFromPath(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath) // #nosec G304 -- filePath comes from configuration, not request input
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		_ = file.Close()
	}()

	b, err := Decode(file, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle %s: %w", filePath, err)
	}
	return b, nil
}
