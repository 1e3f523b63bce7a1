// ABOUTME: Archive writer: one artifact file per column chunk
// ABOUTME: Parallel over row groups; manifest.json carries the layout

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/infparquet/infparquet/pkg/pool"
	"github.com/infparquet/infparquet/pkg/source"
)

// ManifestName is the fixed manifest file name inside an archive
// directory.
const ManifestName = "manifest.json"

// Artifact records one stored column chunk.
type Artifact struct {
	Path        string `json:"path"` // relative to the archive directory
	RowGroup    uint32 `json:"row_group"`
	Column      uint32 `json:"column"`
	RawBytes    int64  `json:"raw_bytes"`
	StoredBytes int64  `json:"stored_bytes"`
}

// Manifest describes a whole archive: the source geometry plus every
// artifact written from it.
type Manifest struct {
	FormatVersion int           `json:"format_version"`
	Codec         string        `json:"codec"`
	Layout        source.Layout `json:"layout"`
	Artifacts     []Artifact    `json:"artifacts"`
}

// RawBytes sums the uncompressed artifact sizes.
func (m Manifest) RawBytes() int64 {
	var n int64
	for _, a := range m.Artifacts {
		n += a.RawBytes
	}
	return n
}

// StoredBytes sums the on-disk artifact sizes.
func (m Manifest) StoredBytes() int64 {
	var n int64
	for _, a := range m.Artifacts {
		n += a.StoredBytes
	}
	return n
}

// Ratio is stored over raw size; 1 when the archive is empty.
func (m Manifest) Ratio() float64 {
	raw := m.RawBytes()
	if raw == 0 {
		return 1
	}
	return float64(m.StoredBytes()) / float64(raw)
}

// WriteOptions control one archive write.
type WriteOptions struct {
	Codec      Codec
	MaxWorkers int
}

// artifactName builds the per-chunk file name.
func artifactName(rowGroup, column uint32) string {
	return fmt.Sprintf("rg%d_col%d.ipqc", rowGroup, column)
}

// Write archives every column chunk of reader under dir, one framed
// artifact file per (row group, column) cell, then writes the manifest.
// Row groups are compressed in parallel; any failure aborts the whole
// write, leaving no manifest behind.
func Write(ctx context.Context, reader source.ColumnReader, dir string, opts WriteOptions) (*Manifest, error) {
	if reader == nil {
		return nil, fmt.Errorf("archive: nil column reader")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir %s: %w", dir, err)
	}

	layout := reader.Layout()
	layout.Normalize()

	tasks := make([]pool.Task[[]Artifact], len(layout.RowGroups))
	for i := range layout.RowGroups {
		rg := uint32(i)
		info := layout.RowGroups[i]
		tasks[i] = func(ctx context.Context) ([]Artifact, error) {
			return writeRowGroup(reader, dir, rg, info, opts.Codec)
		}
	}

	results, err := pool.Run(ctx, tasks, opts.MaxWorkers)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", layout.Name, err)
	}

	manifest := &Manifest{
		FormatVersion: FormatVersion,
		Codec:         opts.Codec.String(),
		Layout:        layout,
	}
	for _, arts := range results {
		manifest.Artifacts = append(manifest.Artifacts, arts...)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return manifest, nil
}

func writeRowGroup(reader source.ColumnReader, dir string, rg uint32, info source.RowGroupInfo, codec Codec) ([]Artifact, error) {
	arts := make([]Artifact, 0, len(info.Columns))
	for c := range info.Columns {
		cd, err := reader.ReadColumn(rg, uint32(c))
		if err != nil {
			return nil, fmt.Errorf("read row group %d column %q: %w", rg, info.Columns[c].Name, err)
		}
		entry := &Entry{
			Codec:      codec,
			Type:       cd.Type,
			RowGroup:   rg,
			Column:     uint32(c),
			ValueCount: cd.Count,
			Raw:        cd.Data,
		}
		framed, err := entry.Encode()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", entry, err)
		}
		name := artifactName(rg, uint32(c))
		if err := os.WriteFile(filepath.Join(dir, name), framed, 0o644); err != nil {
			return nil, fmt.Errorf("write artifact %s: %w", name, err)
		}
		arts = append(arts, Artifact{
			Path:        name,
			RowGroup:    rg,
			Column:      uint32(c),
			RawBytes:    int64(len(cd.Data)),
			StoredBytes: int64(len(framed)),
		})
	}
	return arts, nil
}

// Verify re-reads every artifact in dir and checks framing, checksums,
// and agreement with the manifest geometry. The first defect aborts.
func Verify(ctx context.Context, dir string, maxWorkers int) error {
	manifest, err := readManifest(dir)
	if err != nil {
		return err
	}

	tasks := make([]pool.Task[struct{}], len(manifest.Artifacts))
	for i := range manifest.Artifacts {
		art := manifest.Artifacts[i]
		tasks[i] = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, verifyArtifact(dir, art)
		}
	}
	if _, err := pool.Run(ctx, tasks, maxWorkers); err != nil {
		return fmt.Errorf("verify %s: %w", dir, err)
	}
	return nil
}

func verifyArtifact(dir string, art Artifact) error {
	data, err := os.ReadFile(filepath.Join(dir, art.Path))
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", art.Path, err)
	}
	if int64(len(data)) != art.StoredBytes {
		return fmt.Errorf("%w: %s is %d bytes, manifest says %d", ErrCorrupted, art.Path, len(data), art.StoredBytes)
	}
	entry, err := DecodeEntry(data)
	if err != nil {
		return fmt.Errorf("decode artifact %s: %w", art.Path, err)
	}
	if entry.RowGroup != art.RowGroup || entry.Column != art.Column {
		return fmt.Errorf("%w: %s addresses rg %d col %d, manifest says rg %d col %d",
			ErrCorrupted, art.Path, entry.RowGroup, entry.Column, art.RowGroup, art.Column)
	}
	if int64(len(entry.Raw)) != art.RawBytes {
		return fmt.Errorf("%w: %s holds %d raw bytes, manifest says %d", ErrCorrupted, art.Path, len(entry.Raw), art.RawBytes)
	}
	return nil
}

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest in %s: %w", dir, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrCorrupted, err)
	}
	if m.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: manifest version %d", ErrVersion, m.FormatVersion)
	}
	m.Layout.Normalize()
	return &m, nil
}
