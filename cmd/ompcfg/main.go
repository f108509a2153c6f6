package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	if cerr := a.close(context.Background()); cerr != nil {
		fmt.Fprintf(os.Stderr, "Warning: shutdown: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {

	rootCmd := &cobra.Command{
		Use:           "ompcfg",
		Short:         "Sketch control-flow graphs from OpenMP directives",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (defaults and OMPCFG_* environment when empty)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newBatchCmd(a),
		newInventoryCmd(a),
		newPromptCmd(a),
		newValidateCmd(a),
		newRenderCmd(a),
		newArchetypesCmd(),
		newSimilarCmd(a),
	)
	return rootCmd
}
