package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		input  string
		outDir string
		cores  int
		arch   string
		rend   bool
		asJSON bool
		store  bool
		index  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the CFG sketch for one source file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("cores") {
				a.cfg.Hardware.Cores = cores
			}
			if cmd.Flags().Changed("arch") {
				a.cfg.Hardware.Arch = arch
			}
			if cmd.Flags().Changed("render") {
				a.cfg.Render.Enabled = rend
			}

			u, err := a.readUnit(ctx, input)
			if err != nil {
				return err
			}
			proc, err := a.processor(ctx, outDir, stores{graph: store, index: index})
			if err != nil {
				return err
			}
			res, err := proc.Process(ctx, u)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			p := a.printer(cmd)
			p.Line("Processing file: %s", input)
			p.Line("Target hardware: %d cores, %s", a.cfg.Hardware.Cores, a.cfg.Hardware.Arch)
			if err := p.PrintInventory(res.Inventory); err != nil {
				return err
			}
			p.Title("Generating CFG...")
			p.PrintArchetype(res.Archetype)
			p.PrintReport(res.Report)

			p.Title("CFG generated successfully!")
			p.Field("DOT file", res.Output)
			p.Field("Output directory", proc.Writer.Dir())
			switch {
			case proc.Chain == nil:
			case res.Render.OK():
				p.Field("Visual CFG ("+res.Render.Renderer+")", res.Render.Path)
			default:
				p.Line("Rendering not available - DOT file created successfully")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input source file")
	cmd.Flags().StringVar(&outDir, "output", "", "Output directory (default output.dir)")
	cmd.Flags().IntVar(&cores, "cores", 8, "Target core count")
	cmd.Flags().StringVar(&arch, "arch", "x86_64", "Target architecture")
	cmd.Flags().BoolVar(&rend, "render", true, "Render the DOT file (default render.enabled)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&store, "store", false, "Store the graph in Neo4j (graph.*)")
	cmd.Flags().BoolVar(&index, "index", false, "Index the directive profile in Qdrant (vector.*)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// stripExt returns path without its extension.
func stripExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
