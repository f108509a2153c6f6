package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/viant/afs/file"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
	"github.com/efebarandurmaz/ompcfg/internal/construct"
	"github.com/efebarandurmaz/ompcfg/internal/pattern"
	"github.com/efebarandurmaz/ompcfg/internal/prompt"
	"github.com/efebarandurmaz/ompcfg/internal/validator"
)

func newInventoryCmd(a *app) *cobra.Command {
	var input, format string

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Print the construct inventory of a source file",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.readUnit(cmd.Context(), input)
			if err != nil {
				return err
			}
			inv := construct.Extract(u.Source)

			var data []byte
			switch format {
			case "json":
				data, err = json.MarshalIndent(inv, "", "  ")
			case "yaml":
				data, err = yaml.Marshal(inv)
			default:
				return fmt.Errorf("unknown format %q (json, yaml)", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Input source file")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newPromptCmd(a *app) *cobra.Command {
	var (
		input  string
		cores  int
		arch   string
		memory string
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the CFG analysis prompt for a source file",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.readUnit(cmd.Context(), input)
			if err != nil {
				return err
			}
			hw := prompt.Hardware{
				Cores:  a.cfg.Hardware.Cores,
				Arch:   a.cfg.Hardware.Arch,
				Memory: a.cfg.Hardware.Memory,
			}
			if cmd.Flags().Changed("cores") {
				hw.Cores = cores
			}
			if cmd.Flags().Changed("arch") {
				hw.Arch = arch
			}
			if cmd.Flags().Changed("memory") {
				hw.Memory = memory
			}
			text, err := prompt.Build(u.Source, construct.Extract(u.Source), hw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Input source file")
	cmd.Flags().IntVar(&cores, "cores", 8, "Target core count")
	cmd.Flags().StringVar(&arch, "arch", "x86_64", "Target architecture")
	cmd.Flags().StringVar(&memory, "memory", "16GB", "Target memory")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

type validateOutput struct {
	File      string               `json:"file"`
	Report    validator.Report     `json:"validation"`
	Structure *validator.Structure `json:"structure,omitempty"`
	ParseErr  string               `json:"parse_error,omitempty"`
}

var errChecksFailed = errors.New("validation checks failed")

func newValidateCmd(a *app) *cobra.Command {
	var (
		dotPath string
		asJSON  bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an existing DOT file",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.fs.DownloadWithURL(cmd.Context(), dotPath)
			if err != nil {
				return fmt.Errorf("reading file '%s': %w", dotPath, err)
			}

			out := validateOutput{File: dotPath}
			g, err := cfg.ParseDOT(string(text))
			if err != nil {
				a.log.Warn("DOT parse failed, checking text only", "file", dotPath, "error", err)
				out.ParseErr = err.Error()
			}
			// Foreign DOT files may name their terminals differently, so
			// predicates run on the text and the parsed graph only feeds Inspect.
			out.Report = validator.Validate(nil, string(text))
			if g != nil {
				s := validator.Inspect(g)
				out.Structure = &s
			}

			if asJSON {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				p := a.printer(cmd)
				p.Line("File: %s", dotPath)
				p.PrintReport(out.Report)
				if out.Structure != nil {
					p.PrintStructure(*out.Structure)
				}
			}
			if strict && !out.Report.Passed() {
				return errChecksFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dotPath, "dot", "", "DOT file to validate")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any check fails")
	_ = cmd.MarkFlagRequired("dot")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var dotPath, base, format string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an existing DOT file through the renderer chain, or export it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := a.fs.DownloadWithURL(ctx, dotPath)
			if err != nil {
				return fmt.Errorf("reading file '%s': %w", dotPath, err)
			}
			g, err := cfg.ParseDOT(string(text))
			if err != nil {
				return err
			}
			if base == "" {
				base = stripExt(dotPath)
			}
			p := a.printer(cmd)

			if format != cfg.FormatDOT {
				body, ext, err := cfg.Export(g, format)
				if err != nil {
					return err
				}
				dest := base + ext
				if err := a.fs.Upload(ctx, dest, file.DefaultFileOsMode, strings.NewReader(body)); err != nil {
					return fmt.Errorf("write %s: %w", dest, err)
				}
				p.Line("%s: %s %s", format, p.Status(true), dest)
				return nil
			}

			chain, err := a.chain()
			if err != nil {
				return err
			}
			outcome := chain.Render(ctx, g, string(text), base)
			for _, at := range outcome.Attempts {
				if at.Err != "" {
					p.Line("%s: %s %s", at.Renderer, p.Status(false), at.Err)
					continue
				}
				p.Line("%s: %s %s", at.Renderer, p.Status(true), at.Path)
			}
			if !outcome.OK() {
				return errors.New("no renderer succeeded")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dotPath, "dot", "", "DOT file to render")
	cmd.Flags().StringVar(&base, "output", "", "Output path without extension (default: next to the DOT file)")
	cmd.Flags().StringVar(&format, "format", cfg.FormatDOT, "dot runs the renderer chain; mermaid or json exports the graph")
	_ = cmd.MarkFlagRequired("dot")
	return cmd
}

func newArchetypesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "archetypes [name]",
		Short: "List the graph archetypes, or print one archetype's template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				a, err := pattern.ParseArchetype(args[0])
				if err != nil {
					return err
				}
				text, _, err := cfg.Export(cfg.Synthesize(a), format)
				if err != nil {
					return err
				}
				fmt.Fprint(w, text)
				return nil
			}
			for _, a := range pattern.All() {
				g := cfg.Synthesize(a)
				fmt.Fprintf(w, "  %-14s %-20s %2d nodes %2d edges  %s\n",
					a, a.Title(), len(g.Nodes), len(g.Edges), a.Description())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", cfg.FormatDOT, "Template format: dot, mermaid or json")
	return cmd
}

func newSimilarCmd(a *app) *cobra.Command {
	var (
		input string
		top   int
	)

	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Find indexed units with a similar directive profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := a.readUnit(ctx, input)
			if err != nil {
				return err
			}
			ix, err := a.indexer(ctx)
			if err != nil {
				return err
			}
			matches, err := ix.Similar(ctx, construct.Extract(u.Source), top)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(w, "No similar units indexed")
				return nil
			}
			for _, m := range matches {
				fmt.Fprintf(w, "  %.3f  %-14s %s\n", m.Score, m.Archetype, m.Unit)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Input source file")
	cmd.Flags().IntVar(&top, "top", 5, "Number of matches")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
