package archive

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/infparquet/infparquet/pkg/generator"
	"github.com/infparquet/infparquet/pkg/source"
	"github.com/infparquet/infparquet/pkg/stats"
)

// archiveSource builds a small two-row-group source with mixed types.
func archiveSource() *source.Memory {
	m := source.NewMemory("events.parquet")

	rg0 := m.AddRowGroup(3)
	var id []byte
	id = source.AppendInt32(id, 1)
	id = source.AppendInt32(id, 2)
	id = source.AppendNullInt32(id)
	m.AddColumn(rg0, "id", source.ColumnData{Data: id, Type: stats.TypeInt32, Count: 3})

	var label []byte
	label = source.AppendString(label, "alpha")
	label = source.AppendString(label, "beta")
	label = source.AppendString(label, "alpha")
	m.AddColumn(rg0, "label", source.ColumnData{Data: label, Type: stats.TypeByteArray, Count: 3})

	rg1 := m.AddRowGroup(2)
	var id1 []byte
	id1 = source.AppendInt32(id1, 8)
	id1 = source.AppendInt32(id1, 9)
	m.AddColumn(rg1, "id", source.ColumnData{Data: id1, Type: stats.TypeInt32, Count: 2})

	var label1 []byte
	label1 = source.AppendString(label1, "gamma")
	label1 = source.AppendNullBytes(label1)
	m.AddColumn(rg1, "label", source.ColumnData{Data: label1, Type: stats.TypeByteArray, Count: 2})

	return m
}

func writeArchive(t *testing.T, opts WriteOptions) (string, *Manifest) {
	t.Helper()
	dir := t.TempDir()
	manifest, err := Write(context.Background(), archiveSource(), dir, opts)
	if err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	return dir, manifest
}

func TestWriteProducesManifestAndArtifacts(t *testing.T) {
	dir, manifest := writeArchive(t, WriteOptions{})

	if manifest.Codec != "zstd" {
		t.Errorf("Expected default codec zstd, got %s", manifest.Codec)
	}
	if len(manifest.Artifacts) != 4 {
		t.Fatalf("Expected 4 artifacts, got %d", len(manifest.Artifacts))
	}
	for _, art := range manifest.Artifacts {
		if _, err := os.Stat(filepath.Join(dir, art.Path)); err != nil {
			t.Errorf("Expected artifact file %s: %v", art.Path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); err != nil {
		t.Errorf("Expected manifest file: %v", err)
	}
	if manifest.RawBytes() == 0 || manifest.StoredBytes() == 0 {
		t.Error("Expected non-zero byte accounting")
	}
	if manifest.Ratio() <= 0 {
		t.Errorf("Expected positive compression ratio, got %v", manifest.Ratio())
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	src := archiveSource()
	dir := t.TempDir()
	if _, err := Write(context.Background(), src, dir, WriteOptions{Codec: CodecSnappy}); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}

	r, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}

	want := src.Layout()
	want.Normalize()
	if !reflect.DeepEqual(r.Layout(), want) {
		t.Errorf("Layout mismatch:\n got %+v\nwant %+v", r.Layout(), want)
	}

	for rg := range want.RowGroups {
		for c := range want.RowGroups[rg].Columns {
			orig, err := src.ReadColumn(uint32(rg), uint32(c))
			if err != nil {
				t.Fatalf("Failed to read source cell: %v", err)
			}
			got, err := r.ReadColumn(uint32(rg), uint32(c))
			if err != nil {
				t.Fatalf("Failed to read archived cell rg %d col %d: %v", rg, c, err)
			}
			if !bytes.Equal(got.Data, orig.Data) || got.Type != orig.Type || got.Count != orig.Count {
				t.Errorf("Cell rg %d col %d did not survive the round trip", rg, c)
			}
		}
	}
}

// Metadata generated from the archive must match metadata generated
// from the original source.
func TestGenerateFromArchiveMatchesSource(t *testing.T) {
	src := archiveSource()
	dir := t.TempDir()
	if _, err := Write(context.Background(), src, dir, WriteOptions{}); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	r, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}

	cfg := generator.DefaultConfig()
	fromSource, err := generator.Generate(context.Background(), src, cfg)
	if err != nil {
		t.Fatalf("Failed to generate from source: %v", err)
	}
	fromArchive, err := generator.Generate(context.Background(), r, cfg)
	if err != nil {
		t.Fatalf("Failed to generate from archive: %v", err)
	}

	// Trees match except for the wall-clock creation item.
	fromSource.Items = nil
	fromArchive.Items = nil
	if !reflect.DeepEqual(fromSource, fromArchive) {
		t.Error("Expected identical metadata trees from source and archive")
	}
}

func TestVerify(t *testing.T) {
	dir, manifest := writeArchive(t, WriteOptions{})
	if err := Verify(context.Background(), dir, 2); err != nil {
		t.Fatalf("Expected clean verify, got %v", err)
	}

	// Flip one payload byte in the first artifact.
	path := filepath.Join(dir, manifest.Artifacts[0].Path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read artifact: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to rewrite artifact: %v", err)
	}

	if err := Verify(context.Background(), dir, 2); err == nil {
		t.Error("Expected verify to fail on damaged artifact")
	}
}

func TestReadColumnErrors(t *testing.T) {
	dir, manifest := writeArchive(t, WriteOptions{})
	r, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}

	if _, err := r.ReadColumn(9, 9); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for absent cell, got %v", err)
	}

	// Deleting the backing file surfaces ErrNotFound at read time.
	path := filepath.Join(dir, manifest.Artifacts[0].Path)
	if err := os.Remove(path); err != nil {
		t.Fatalf("Failed to remove artifact: %v", err)
	}
	a := manifest.Artifacts[0]
	if _, err := r.ReadColumn(a.RowGroup, a.Column); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for deleted artifact, got %v", err)
	}

	// A damaged artifact surfaces ErrCorrupt.
	b := manifest.Artifacts[1]
	path = filepath.Join(dir, b.Path)
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("Failed to damage artifact: %v", err)
	}
	if _, err := r.ReadColumn(b.RowGroup, b.Column); !errors.Is(err, source.ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt for damaged artifact, got %v", err)
	}
	if _, err := r.ReadColumn(b.RowGroup, b.Column); !errors.Is(err, source.ErrSource) {
		t.Errorf("Expected error to classify as ErrSource, got %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing archive, got %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte("not json"), 0o644); err != nil {
		t.Fatalf("Failed to write bad manifest: %v", err)
	}
	if _, err := Open(dir); !errors.Is(err, source.ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt for bad manifest, got %v", err)
	}
}

func TestWriteAbortsOnReadFailure(t *testing.T) {
	layout := source.Layout{
		Name: "ghost.parquet",
		RowGroups: []source.RowGroupInfo{
			{Rows: 1, Columns: []source.ColumnInfo{{Name: "a", Type: stats.TypeInt32}}},
		},
	}
	dir := t.TempDir()
	_, err := Write(context.Background(), ghostReader{layout}, dir, WriteOptions{})
	if !errors.Is(err, source.ErrSource) {
		t.Errorf("Expected source error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, ManifestName)); statErr == nil {
		t.Error("Expected no manifest after failed write")
	}
}

type ghostReader struct {
	layout source.Layout
}

func (g ghostReader) Layout() source.Layout { return g.layout }

func (g ghostReader) ReadColumn(rowGroup, column uint32) (source.ColumnData, error) {
	return source.ColumnData{}, source.ErrIO
}
