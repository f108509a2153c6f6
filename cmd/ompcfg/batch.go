package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/ompcfg/internal/batch"
	"github.com/efebarandurmaz/ompcfg/internal/temporal"
)

var errNothingGenerated = errors.New("no CFGs were generated successfully")

func newBatchCmd(a *app) *cobra.Command {
	var (
		root        string
		outDir      string
		workers     int
		incremental bool
		viaTemporal bool
		asJSON      bool
		store       bool
		index       bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate CFG sketches for every directive-bearing file under a root",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				a.cfg.Batch.Workers = workers
			}
			if cmd.Flags().Changed("incremental") {
				a.cfg.Batch.Incremental = incremental
			}
			if viaTemporal {
				return runTemporalBatch(cmd, a, root, asJSON)
			}

			ctx := cmd.Context()
			finder, err := a.finder()
			if err != nil {
				return err
			}
			proc, err := a.processor(ctx, outDir, stores{graph: store, index: index, cache: a.cfg.Batch.Incremental})
			if err != nil {
				return err
			}
			runner := &batch.Runner{
				Finder:      finder,
				Processor:   proc,
				Workers:     a.cfg.Batch.Workers,
				Incremental: a.cfg.Batch.Incremental,
			}
			m, err := runner.Run(ctx, root)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := m.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				m.PrintSummary(cmd.OutOrStdout())
				fmt.Fprintf(cmd.OutOrStdout(), "Results in: %s\n", proc.Writer.Dir())
			}
			if !m.OK() {
				return errNothingGenerated
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Root directory to search")
	cmd.Flags().StringVar(&outDir, "output", "", "Output directory (default output.dir)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent units (default batch.workers)")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "Skip units unchanged since the last run")
	cmd.Flags().BoolVar(&viaTemporal, "temporal", false, "Run as a Temporal workflow on the configured task queue")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print metrics as JSON")
	cmd.Flags().BoolVar(&store, "store", false, "Store graphs in Neo4j (graph.*)")
	cmd.Flags().BoolVar(&index, "index", false, "Index directive profiles in Qdrant (vector.*)")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

func runTemporalBatch(cmd *cobra.Command, a *app, root string, asJSON bool) error {
	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  a.cfg.Temporal.Host,
		Namespace: a.cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	out, err := temporal.RunBatch(cmd.Context(), c, a.cfg.Temporal.TaskQueue, temporal.BatchInput{
		Root:        root,
		Incremental: a.cfg.Batch.Incremental,
		Workers:     a.cfg.Batch.Workers,
	})
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		printWorkflowSummary(cmd.OutOrStdout(), out)
	}
	if !out.OK() {
		return errNothingGenerated
	}
	return nil
}

func printWorkflowSummary(w io.Writer, out *temporal.BatchOutput) {
	fmt.Fprintf(w, "Batch processing completed: %s\n", out.Root)
	fmt.Fprintf(w, "  Discovered: %d\n", out.Discovered)
	fmt.Fprintf(w, "  Succeeded:  %d\n", out.Succeeded)
	fmt.Fprintf(w, "  Failed:     %d\n", out.Failed)
	fmt.Fprintf(w, "  Skipped:    %d\n", out.Skipped)
	for _, f := range out.Failures {
		fmt.Fprintf(w, "  FAIL %s: %s\n", f.Path, f.Error)
	}
}
