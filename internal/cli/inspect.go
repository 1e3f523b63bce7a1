// ABOUTME: inspect command: human summary of a metadata sidecar

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/stats"
)

var inspectJSON bool

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <sidecar>",
		Short: "Print a summary of a metadata sidecar",
		Long:  "Print the file items, per-column and per-row-group statistics, and custom matrices of a metadata sidecar",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	cmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the raw sidecar document instead")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	file, err := metadata.ReadSidecar(args[0])
	if err != nil {
		return fmt.Errorf("failed to read sidecar: %w", err)
	}

	out := cmd.OutOrStdout()

	if inspectJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(file)
	}

	title := color.New(color.FgCyan, color.Bold)

	title.Fprintf(out, "%s\n", file.Name)
	for _, it := range file.Items {
		if it.Kind == metadata.ItemKindTimestamp {
			fmt.Fprintf(out, "  %-24s %s\n", it.Name, time.Unix(int64(it.Value), 0).UTC().Format(time.RFC3339))
			continue
		}
		fmt.Fprintf(out, "  %-24s %v\n", it.Name, it.Value)
	}

	title.Fprintf(out, "\nColumns (%d)\n", len(file.Columns))
	for _, c := range file.Columns {
		fmt.Fprintf(out, "  %-3d %-20s %s\n", c.ID, c.Name, statsSummary(c.Stats.Stats))
	}

	title.Fprintf(out, "\nRow groups (%d)\n", len(file.RowGroups))
	for _, rg := range file.RowGroups {
		fmt.Fprintf(out, "  %-3d %-20s rows=%-8d %s\n", rg.ID, rg.Name, rg.Rows, statsSummary(rg.Stats.Stats))
		for _, c := range rg.Columns {
			fmt.Fprintf(out, "      %-3d %-16s %s\n", c.ID, c.Name, statsSummary(c.Stats.Stats))
		}
	}

	if len(file.Custom) > 0 {
		title.Fprintf(out, "\nCustom metadata (%d)\n", len(file.Custom))
		for _, c := range file.Custom {
			fmt.Fprintf(out, "  %-16s %-16s %s\n", c.Name, c.Query, c.Text)
		}
	}

	return nil
}

// statsSummary renders one stats variant as a single line.
func statsSummary(s stats.ColumnStats) string {
	switch v := s.(type) {
	case *stats.NumericStats:
		return fmt.Sprintf("numeric min=%g max=%g mean=%.4g mode=%g nulls=%d count=%d",
			v.Min, v.Max, v.Mean, v.Mode, v.NullCount, v.TotalCount)
	case *stats.TimestampStats:
		return fmt.Sprintf("timestamp min=%s max=%s nulls=%d count=%d",
			fmtEpoch(v.Min), fmtEpoch(v.Max), v.NullCount, v.Count)
	case *stats.StringStats:
		return fmt.Sprintf("string len=[%d,%d] avg=%.1f top=[%s] special=[%s] nulls=%d count=%d",
			v.MinLen, v.MaxLen, v.AvgLen(), topkSummary(v.HighFreq), topkSummary(v.Special), v.NullCount, v.TotalCount)
	case *stats.CategoricalStats:
		return fmt.Sprintf("categorical distinct=%d top=[%s] nulls=%d count=%d",
			v.DistinctEstimate, topkSummary(v.Top), v.NullCount, v.TotalCount)
	default:
		return "-"
	}
}

func fmtEpoch(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// topkSummary renders the three highest entries of a table.
func topkSummary(t stats.TopK) string {
	entries := t.Snapshot()
	if len(entries) > 3 {
		entries = entries[:3]
	}

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s:%d", e.Key, e.Count)
	}
	return strings.Join(parts, " ")
}
