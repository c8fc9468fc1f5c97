// Command equatable synthesizes Equal and Hash methods for Go structs
// annotated with @Equatable and reports misuse of the exclusion markers.
//
// Typical use is through go:generate:
//
//	//go:generate equatable generate .
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhump/equatable/config"
)

// set by the linker
var version = "v0.1.0-dev"

// errReported is returned by commands that reported error diagnostics. The
// diagnostics themselves have already been printed.
var errReported = errors.New("errors were reported")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "equatable",
		Short:         "Synthesize value equality for annotated Go structs",
		Long:          "equatable finds structs annotated with @Equatable, decides which fields take part in equality and generates Equal (and, with @Hashable, Hash) methods for them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newModelCmd())
	rootCmd.AddCommand(newFixCmd())

	rootCmd.PersistentFlags().String("config", "", "path to "+config.FileName+" (default: search upwards from the current directory)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("format", "pretty", "diagnostics format (pretty|short|json)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show (0 for no limit)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	return rootCmd
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			rootCmd.PrintErrln("Error:", err)
		}
		os.Exit(1)
	}
}
