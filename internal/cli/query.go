// ABOUTME: query command: row group pruning from the sidecar alone

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/infparquet/infparquet/internal/metrics"
	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/query"
)

var (
	queryWhere []string
	queryJSON  bool
)

// NewQueryCommand creates the query command
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sidecar>",
		Short: "Match row groups against conditions using only the sidecar",
		Long: `Evaluate a conjunction of conditions against the metadata tree and
list the row groups that might contain matching rows. Condition forms:

  <column> <op> <number>    with op one of == != < <= > >=
  <column> is null
  <column> not null
  <column> contains <token>`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().StringArrayVar(&queryWhere, "where", nil, "Condition (repeatable, AND semantics)")
	cmd.Flags().BoolVar(&queryJSON, "json", false, "Print the raw result document instead")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	file, err := metadata.ReadSidecar(args[0])
	if err != nil {
		return fmt.Errorf("failed to read sidecar: %w", err)
	}

	res, err := query.NewEngine(file).MatchStrings(queryWhere)
	if err != nil {
		return err
	}
	metrics.Default().RecordQuery(len(res.Matched), res.Pruned)

	out := cmd.OutOrStdout()

	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	for _, c := range res.Conditions {
		fmt.Fprintf(out, "where %s\n", c)
	}

	for _, id := range res.Matched {
		if rg, ok := file.RowGroup(id); ok {
			fmt.Fprintf(out, "  %-3d %-20s rows=%d\n", rg.ID, rg.Name, rg.Rows)
		}
	}

	pruned := 0.0
	if res.Total > 0 {
		pruned = float64(res.Pruned) / float64(res.Total) * 100
	}
	fmt.Fprintf(out, "Matched %d of %d row groups (%.0f%% pruned)\n", len(res.Matched), res.Total, pruned)

	return nil
}
