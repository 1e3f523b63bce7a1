package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/infparquet/infparquet/pkg/archive"
	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/query"
)

type eventRow struct {
	ID    int32   `parquet:"id"`
	Score float64 `parquet:"score"`
	Label string  `parquet:"label"`
}

// writeParquetFixture writes a two-row-group parquet file.
func writeParquetFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture file: %v", err)
	}
	w := parquet.NewGenericWriter[eventRow](f)
	first := []eventRow{
		{ID: 1, Score: 0.5, Label: "error log"},
		{ID: 5, Score: 1.5, Label: "ok"},
		{ID: 9, Score: -2.0, Label: "ok"},
	}
	if _, err := w.Write(first); err != nil {
		t.Fatalf("Failed to write rows: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Failed to flush row group: %v", err)
	}
	second := []eventRow{
		{ID: 70, Score: 3.5, Label: "bug"},
		{ID: 90, Score: 4.5, Label: "fine"},
	}
	if _, err := w.Write(second); err != nil {
		t.Fatalf("Failed to write rows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close fixture file: %v", err)
	}
	return path
}

// runCommand executes the CLI with a fresh root command.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// compressFixture runs compress over a fixture and returns the archive
// directory and sidecar path.
func compressFixture(t *testing.T) (string, string) {
	t.Helper()
	input := writeParquetFixture(t)
	outDir := filepath.Join(t.TempDir(), "archive")
	if _, err := runCommand(t, "compress", input, outDir, "--predicate", "nulls=has_null"); err != nil {
		t.Fatalf("Failed to run compress: %v", err)
	}
	return outDir, filepath.Join(outDir, metadata.SidecarName("events.parquet"))
}

func TestParsePredicates(t *testing.T) {
	preds, err := parsePredicates([]string{"nulls=has_null", "big=value > 100"})
	if err != nil {
		t.Fatalf("Failed to parse predicates: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("Expected 2 predicates, got %d", len(preds))
	}
	if preds[0].Name != "nulls" || preds[0].Query != "has_null" {
		t.Errorf("Unexpected first predicate %+v", preds[0])
	}
	if preds[1].Query != "value > 100" {
		t.Errorf("Expected query to keep spaces and equals-free text, got %q", preds[1].Query)
	}

	for _, bad := range []string{"noequals", "=query", "name="} {
		if _, err := parsePredicates([]string{bad}); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestGatherPredicatesMergesConfig(t *testing.T) {
	saved := cfg
	defer func() { cfg = saved }()

	cfg = &Config{Predicates: []PredicateConfig{{Name: "cfg", Query: "has_null"}}}
	preds, err := gatherPredicates([]string{"flag=is_empty"})
	if err != nil {
		t.Fatalf("Failed to gather predicates: %v", err)
	}
	if len(preds) != 2 || preds[0].Name != "cfg" || preds[1].Name != "flag" {
		t.Errorf("Expected config predicates before flag predicates, got %+v", preds)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if c.Log.Level != "info" {
		t.Errorf("Expected info log level, got %q", c.Log.Level)
	}
	if c.Archive.Codec != "zstd" {
		t.Errorf("Expected zstd codec, got %q", c.Archive.Codec)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("Expected :8080 addr, got %q", c.Server.Addr)
	}
	if c.Generate.MaxHighFreqStrings != 10 || c.Generate.MaxSpecialStrings != 20 {
		t.Errorf("Unexpected string caps %+v", c.Generate)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "infparquet.yaml")
	content := `log:
  level: debug
archive:
  codec: snappy
generate:
  workers: 4
  timestamp_columns:
    - created_at
predicates:
  - name: nulls
    query: has_null
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if c.Log.Level != "debug" {
		t.Errorf("Expected debug level, got %q", c.Log.Level)
	}
	if c.Archive.Codec != "snappy" {
		t.Errorf("Expected snappy codec, got %q", c.Archive.Codec)
	}
	if c.Generate.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", c.Generate.Workers)
	}
	if len(c.Generate.TimestampColumns) != 1 || c.Generate.TimestampColumns[0] != "created_at" {
		t.Errorf("Unexpected timestamp columns %v", c.Generate.TimestampColumns)
	}
	if len(c.Predicates) != 1 || c.Predicates[0].Query != "has_null" {
		t.Errorf("Unexpected predicates %+v", c.Predicates)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("INFPARQUET_ARCHIVE_CODEC", "gzip")
	t.Setenv("INFPARQUET_SERVER_ADDR", ":9090")

	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if c.Archive.Codec != "gzip" {
		t.Errorf("Expected gzip codec from environment, got %q", c.Archive.Codec)
	}
	if c.Server.Addr != ":9090" {
		t.Errorf("Expected :9090 addr from environment, got %q", c.Server.Addr)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("Failed to run version: %v", err)
	}
	if !strings.Contains(out, "InfParquet version") {
		t.Errorf("Expected version output, got %q", out)
	}
}

func TestCompressCommand(t *testing.T) {
	input := writeParquetFixture(t)
	outDir := filepath.Join(t.TempDir(), "archive")

	out, err := runCommand(t, "compress", input, outDir, "--predicate", "nulls=has_null")
	if err != nil {
		t.Fatalf("Failed to run compress: %v", err)
	}
	if !strings.Contains(out, "Archive:") || !strings.Contains(out, "Sidecar:") {
		t.Errorf("Expected archive and sidecar summary, got %q", out)
	}

	if _, err := os.Stat(filepath.Join(outDir, archive.ManifestName)); err != nil {
		t.Errorf("Expected manifest file: %v", err)
	}

	file, err := metadata.ReadSidecar(filepath.Join(outDir, metadata.SidecarName("events.parquet")))
	if err != nil {
		t.Fatalf("Failed to read sidecar: %v", err)
	}
	if len(file.RowGroups) != 2 {
		t.Errorf("Expected 2 row groups, got %d", len(file.RowGroups))
	}
	if got := file.ItemValue(metadata.ItemRowCount); got != 5 {
		t.Errorf("Expected 5 rows, got %v", got)
	}
	custom, ok := file.CustomByName("nulls")
	if !ok {
		t.Fatal("Expected custom predicate result")
	}
	if custom.Text != "{{0,0,0}{0,0,0}}" {
		t.Errorf("Expected all-false matrix, got %q", custom.Text)
	}
}

func TestCompressMissingInput(t *testing.T) {
	_, err := runCommand(t, "compress", filepath.Join(t.TempDir(), "absent.parquet"), t.TempDir())
	if err == nil {
		t.Fatal("Expected error for missing input")
	}
	if !strings.Contains(err.Error(), "failed to open") {
		t.Errorf("Unexpected error %v", err)
	}
}

func TestCompressBadPredicateFlag(t *testing.T) {
	input := writeParquetFixture(t)
	_, err := runCommand(t, "compress", input, t.TempDir(), "--predicate", "broken")
	if err == nil || !strings.Contains(err.Error(), "expected name=query") {
		t.Errorf("Expected predicate parse error, got %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	_, sidecar := compressFixture(t)

	out, err := runCommand(t, "inspect", sidecar)
	if err != nil {
		t.Fatalf("Failed to run inspect: %v", err)
	}
	for _, want := range []string{"events.parquet", "row_count", "Columns (3)", "Row groups (2)", "Custom metadata (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestInspectCommandJSON(t *testing.T) {
	_, sidecar := compressFixture(t)

	out, err := runCommand(t, "inspect", sidecar, "--json")
	if err != nil {
		t.Fatalf("Failed to run inspect: %v", err)
	}

	var file metadata.FileNode
	if err := json.Unmarshal([]byte(out), &file); err != nil {
		t.Fatalf("Failed to decode JSON output: %v", err)
	}
	if file.Name != "events.parquet" || len(file.RowGroups) != 2 {
		t.Errorf("Unexpected decoded tree %s with %d row groups", file.Name, len(file.RowGroups))
	}
}

func TestQueryCommand(t *testing.T) {
	_, sidecar := compressFixture(t)

	out, err := runCommand(t, "query", sidecar, "--where", "id > 50")
	if err != nil {
		t.Fatalf("Failed to run query: %v", err)
	}
	if !strings.Contains(out, "Matched 1 of 2 row groups") {
		t.Errorf("Expected one matched row group, got %q", out)
	}
	if !strings.Contains(out, "row_group_1") {
		t.Errorf("Expected matched row group listing, got %q", out)
	}
}

func TestQueryCommandJSON(t *testing.T) {
	_, sidecar := compressFixture(t)

	out, err := runCommand(t, "query", sidecar, "--where", "id > 50", "--where", "label contains bug", "--json")
	if err != nil {
		t.Fatalf("Failed to run query: %v", err)
	}

	var res query.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Failed to decode JSON output: %v", err)
	}
	if res.Total != 2 || res.Pruned != 1 {
		t.Errorf("Expected 1 of 2 row groups pruned, got %+v", res)
	}
	if len(res.Matched) != 1 || res.Matched[0] != 1 {
		t.Errorf("Expected row group 1 matched, got %v", res.Matched)
	}
}

func TestQueryCommandBadCondition(t *testing.T) {
	_, sidecar := compressFixture(t)

	if _, err := runCommand(t, "query", sidecar, "--where", "id >"); err == nil {
		t.Error("Expected error for malformed condition")
	}
}

func TestVerifyCommand(t *testing.T) {
	outDir, sidecar := compressFixture(t)

	out, err := runCommand(t, "verify", outDir)
	if err != nil {
		t.Fatalf("Failed to run verify: %v", err)
	}
	if !strings.Contains(out, "6 artifacts OK") {
		t.Errorf("Expected artifact count, got %q", out)
	}

	out, err = runCommand(t, "verify", outDir, "--sidecar", sidecar)
	if err != nil {
		t.Fatalf("Failed to verify against sidecar: %v", err)
	}
	if !strings.Contains(out, "match recomputed") {
		t.Errorf("Expected sidecar agreement, got %q", out)
	}
}

func TestVerifyCommandMissingArchive(t *testing.T) {
	if _, err := runCommand(t, "verify", filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Expected error for missing archive directory")
	}
}

func TestServeRequiresSidecar(t *testing.T) {
	_, err := runCommand(t, "serve")
	if err == nil || !strings.Contains(err.Error(), "sidecar") {
		t.Errorf("Expected missing sidecar flag error, got %v", err)
	}
}
