// ABOUTME: compress command: parquet input to column archive plus sidecar

package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/infparquet/infparquet/internal/logger"
	"github.com/infparquet/infparquet/internal/metrics"
	"github.com/infparquet/infparquet/pkg/archive"
	"github.com/infparquet/infparquet/pkg/generator"
	"github.com/infparquet/infparquet/pkg/metadata"
	"github.com/infparquet/infparquet/pkg/predicate"
	"github.com/infparquet/infparquet/pkg/source"
)

var (
	compressCodec      string
	compressWorkers    int
	compressNoBase     bool
	compressNoCustom   bool
	compressPredicates []string
	compressTsCols     []string
	compressCatCols    []string
)

// NewCompressCommand creates the compress command
func NewCompressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress <input.parquet> <output-dir>",
		Short: "Compress column chunks and generate the metadata sidecar",
		Long: `Compress every column chunk of a parquet file into a per-cell artifact
archive, then generate the statistical metadata tree and write it as a
JSON sidecar next to the artifacts.

Custom predicates are given as name=query, for example:

  infparquet compress events.parquet out/ --predicate nulls=has_null`,
		Args: cobra.ExactArgs(2),
		RunE: runCompress,
	}

	cmd.Flags().StringVar(&compressCodec, "codec", "", "Artifact codec: zstd, snappy, gzip, none")
	cmd.Flags().IntVar(&compressWorkers, "workers", 0, "Worker goroutines (0 = all cores, capped at 32)")
	cmd.Flags().BoolVar(&compressNoBase, "no-base", false, "Skip base statistics")
	cmd.Flags().BoolVar(&compressNoCustom, "no-custom", false, "Skip custom predicate metadata")
	cmd.Flags().StringArrayVar(&compressPredicates, "predicate", nil, "Custom predicate as name=query (repeatable)")
	cmd.Flags().StringSliceVar(&compressTsCols, "timestamp-columns", nil, "INT64 columns holding nanosecond timestamps")
	cmd.Flags().StringSliceVar(&compressCatCols, "categorical-columns", nil, "Byte-array columns holding category codes")

	return cmd
}

// parsePredicates parses repeated name=query flag values.
func parsePredicates(specs []string) ([]predicate.Named, error) {
	var out []predicate.Named
	for _, s := range specs {
		name, q, ok := strings.Cut(s, "=")
		if !ok || name == "" || q == "" {
			return nil, fmt.Errorf("invalid predicate %q, expected name=query", s)
		}
		out = append(out, predicate.Named{Name: name, Query: q})
	}
	return out, nil
}

// gatherPredicates merges config file predicates with flag predicates.
func gatherPredicates(flagSpecs []string) ([]predicate.Named, error) {
	var out []predicate.Named
	for _, p := range cfg.Predicates {
		out = append(out, predicate.Named{Name: p.Name, Query: p.Query})
	}

	fromFlags, err := parsePredicates(flagSpecs)
	if err != nil {
		return nil, err
	}

	return append(out, fromFlags...), nil
}

func runCompress(cmd *cobra.Command, args []string) error {
	input, outDir := args[0], args[1]
	log := logger.GetGlobalLogger()
	m := metrics.Default()

	codecName := cfg.Archive.Codec
	if cmd.Flags().Changed("codec") {
		codecName = compressCodec
	}
	codec, err := archive.ParseCodec(codecName)
	if err != nil {
		return err
	}

	workers := cfg.Generate.Workers
	if cmd.Flags().Changed("workers") {
		workers = compressWorkers
	}

	tsCols := append(cfg.Generate.TimestampColumns, compressTsCols...)
	catCols := append(cfg.Generate.CategoricalColumns, compressCatCols...)

	preds, err := gatherPredicates(compressPredicates)
	if err != nil {
		return err
	}
	for _, p := range preds {
		if !predicate.Known(p.Query) {
			log.Warn("Unknown predicate query").
				Str("name", p.Name).
				Str("query", p.Query).
				Msg("Matrix will be all false")
		}
	}

	reader, err := source.OpenParquet(input, source.ParquetOptions{
		TimestampColumns:   tsCols,
		CategoricalColumns: catCols,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer reader.Close()

	start := time.Now()
	manifest, err := archive.Write(cmd.Context(), reader, outDir, archive.WriteOptions{
		Codec:      codec,
		MaxWorkers: workers,
	})
	if err != nil {
		m.RecordArchiveWrite("error", 0, 0, 0)
		log.LogArchiveWrite(input, 0, 0, time.Since(start), err)
		return fmt.Errorf("failed to write archive: %w", err)
	}
	m.RecordArchiveWrite("success", len(manifest.Artifacts), manifest.RawBytes(), manifest.StoredBytes())
	log.LogArchiveWrite(input, len(manifest.Artifacts), manifest.Ratio(), time.Since(start), nil)

	gcfg := generator.Config{
		GenerateBaseMetadata:   !compressNoBase,
		GenerateCustomMetadata: !compressNoCustom,
		MaxHighFreqStrings:     cfg.Generate.MaxHighFreqStrings,
		MaxSpecialStrings:      cfg.Generate.MaxSpecialStrings,
		MaxHighFreqCategories:  cfg.Generate.MaxHighFreqCategories,
		MaxWorkers:             workers,
		Predicates:             preds,
	}

	genStart := time.Now()
	file, err := generator.Generate(cmd.Context(), reader, gcfg)
	if err != nil {
		m.RecordGeneration("error", 0, time.Since(genStart))
		log.LogGeneration(input, 0, time.Since(genStart), err)
		return fmt.Errorf("failed to generate metadata: %w", err)
	}
	m.RecordGeneration("success", len(file.RowGroups), time.Since(genStart))
	m.ObserveTree(file)
	log.LogGeneration(input, len(file.RowGroups), time.Since(genStart), nil)

	sidecarPath := filepath.Join(outDir, metadata.SidecarName(filepath.Base(input)))
	if err := metadata.WriteSidecar(sidecarPath, file); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Archive: %s (%d artifacts, %.2fx compression)\n", outDir, len(manifest.Artifacts), manifest.Ratio())
	fmt.Fprintf(out, "Sidecar: %s (%d row groups, %d columns)\n", sidecarPath, len(file.RowGroups), len(file.Columns))

	return nil
}
