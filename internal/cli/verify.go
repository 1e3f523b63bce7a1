// ABOUTME: verify command: archive integrity and sidecar agreement

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infparquet/infparquet/pkg/archive"
	"github.com/infparquet/infparquet/pkg/generator"
	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/stats"
)

var (
	verifyWorkers int
	verifySidecar string
)

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <archive-dir>",
		Short: "Verify archive integrity, optionally against a sidecar",
		Long: `Re-read every artifact in an archive and check its frame, checksum,
and manifest accounting. With --sidecar, additionally recompute the
statistics from the archived data and compare them against the sidecar
tree. The comparison assumes the sidecar was generated with the same
statistics caps; pass matching generate settings in the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: runVerify,
	}

	cmd.Flags().IntVar(&verifyWorkers, "workers", 0, "Worker goroutines (0 = all cores, capped at 32)")
	cmd.Flags().StringVar(&verifySidecar, "sidecar", "", "Sidecar to compare recomputed statistics against")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	dir := args[0]
	out := cmd.OutOrStdout()

	workers := cfg.Generate.Workers
	if cmd.Flags().Changed("workers") {
		workers = verifyWorkers
	}

	if err := archive.Verify(cmd.Context(), dir, workers); err != nil {
		return fmt.Errorf("archive verification failed: %w", err)
	}

	reader, err := archive.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	fmt.Fprintf(out, "Archive %s: %d artifacts OK\n", dir, len(reader.Manifest().Artifacts))

	if verifySidecar == "" {
		return nil
	}

	want, err := metadata.ReadSidecar(verifySidecar)
	if err != nil {
		return fmt.Errorf("failed to read sidecar: %w", err)
	}

	got, err := generator.Generate(cmd.Context(), reader, generator.Config{
		GenerateBaseMetadata:  true,
		MaxHighFreqStrings:    cfg.Generate.MaxHighFreqStrings,
		MaxSpecialStrings:     cfg.Generate.MaxSpecialStrings,
		MaxHighFreqCategories: cfg.Generate.MaxHighFreqCategories,
		MaxWorkers:            workers,
	})
	if err != nil {
		return fmt.Errorf("failed to recompute statistics: %w", err)
	}

	if err := compareTrees(want, got); err != nil {
		return fmt.Errorf("sidecar does not match archive: %w", err)
	}
	fmt.Fprintln(out, "Sidecar statistics match recomputed values")

	return nil
}

// compareTrees checks that two trees agree on structure and statistics.
// Creation time is skipped; custom metadata is not recomputable from the
// archive alone and is skipped as well.
func compareTrees(want, got *metadata.FileNode) error {
	checkedItems := []string{
		metadata.ItemRowCount,
		metadata.ItemFileSize,
		metadata.ItemRowGroupCount,
		metadata.ItemColumnCount,
		metadata.ItemSchemaVersion,
	}
	for _, name := range checkedItems {
		if w, g := want.ItemValue(name), got.ItemValue(name); w != g {
			return fmt.Errorf("item %s: sidecar %v, recomputed %v", name, w, g)
		}
	}

	if len(want.RowGroups) != len(got.RowGroups) {
		return fmt.Errorf("row groups: sidecar %d, recomputed %d", len(want.RowGroups), len(got.RowGroups))
	}
	for i, w := range want.RowGroups {
		g := got.RowGroups[i]
		if w.Rows != g.Rows {
			return fmt.Errorf("row group %d rows: sidecar %d, recomputed %d", w.ID, w.Rows, g.Rows)
		}
		if len(w.Columns) != len(g.Columns) {
			return fmt.Errorf("row group %d columns: sidecar %d, recomputed %d", w.ID, len(w.Columns), len(g.Columns))
		}
		if err := compareStats(fmt.Sprintf("row group %d", w.ID), w.Stats, g.Stats); err != nil {
			return err
		}
		for j, wc := range w.Columns {
			gc := g.Columns[j]
			if wc.Name != gc.Name {
				return fmt.Errorf("row group %d column %d: sidecar %q, recomputed %q", w.ID, j, wc.Name, gc.Name)
			}
			where := fmt.Sprintf("row group %d column %q", w.ID, wc.Name)
			if err := compareStats(where, wc.Stats, gc.Stats); err != nil {
				return err
			}
		}
	}

	if len(want.Columns) != len(got.Columns) {
		return fmt.Errorf("file columns: sidecar %d, recomputed %d", len(want.Columns), len(got.Columns))
	}
	for i, wc := range want.Columns {
		gc := got.Columns[i]
		if wc.Name != gc.Name {
			return fmt.Errorf("file column %d: sidecar %q, recomputed %q", i, wc.Name, gc.Name)
		}
		if err := compareStats(fmt.Sprintf("file column %q", wc.Name), wc.Stats, gc.Stats); err != nil {
			return err
		}
	}

	return nil
}

func compareStats(where string, want, got stats.Envelope) error {
	w, err := json.Marshal(want)
	if err != nil {
		return err
	}
	g, err := json.Marshal(got)
	if err != nil {
		return err
	}
	if !bytes.Equal(w, g) {
		return fmt.Errorf("%s: sidecar stats %s, recomputed %s", where, w, g)
	}
	return nil
}
