// ABOUTME: Sidecar persistence for metadata trees
// ABOUTME: JSON document written next to the compressed artifacts

package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SidecarFormatVersion marks the on-disk JSON shape.
const SidecarFormatVersion = 1

// SidecarSuffix is appended to the source base name.
const SidecarSuffix = ".infmeta.json"

// Sidecar is the on-disk envelope around a metadata tree.
type Sidecar struct {
	FormatVersion int       `json:"format_version"`
	File          *FileNode `json:"file"`
}

// SidecarName derives the sidecar file name from a source file name,
// replacing its extension: events.parquet becomes events.infmeta.json.
func SidecarName(sourceName string) string {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	return base + SidecarSuffix
}

// WriteSidecar serializes the tree to path as indented JSON.
func WriteSidecar(path string, f *FileNode) error {
	if f == nil {
		return fmt.Errorf("cannot write nil metadata tree to %s", path)
	}
	data, err := json.MarshalIndent(Sidecar{FormatVersion: SidecarFormatVersion, File: f}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", path, err)
	}
	return nil
}

// ReadSidecar loads and validates a sidecar written by WriteSidecar.
func ReadSidecar(path string) (*FileNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", path, err)
	}
	if sc.FormatVersion != SidecarFormatVersion {
		return nil, fmt.Errorf("sidecar %s has unsupported format version %d", path, sc.FormatVersion)
	}
	if sc.File == nil {
		return nil, fmt.Errorf("sidecar %s carries no metadata tree", path)
	}
	if err := sc.File.Validate(); err != nil {
		return nil, fmt.Errorf("sidecar %s: %w", path, err)
	}
	return sc.File, nil
}
