package main

import (
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/model"
	"github.com/jhump/equatable/processor"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model [flags] <packages...>",
		Short: "Export the declaration model of Go packages",
		Long: "Load the given packages and write the declarations extracted for analysis, one unit per package, " +
			"as YAML (default), JSON or MessagePack. The output can be fed to the analyze command.",
		Args: cobra.MinimumNArgs(1),
		RunE: runModel,
	}
	cmd.Flags().StringP("output", "o", "", "write to this file instead of stdout; the format is chosen from its extension")
	cmd.Flags().String("model-format", "yaml", "format for stdout (yaml|json|msgpack)")
	cmd.Flags().Bool("include-tests", false, "also extract types declared in test files")
	return cmd
}

func runModel(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	pcfg, err := processorConfig(cmd, s, args)
	if err != nil {
		return err
	}
	units, _, err := extract(cmd, pcfg)
	if err != nil {
		return err
	}

	// a single package is written as a plain unit
	merged := &model.Unit{}
	if len(units) == 1 {
		merged = units[0]
	} else {
		for _, u := range units {
			merged.Declarations = append(merged.Declarations, u.Declarations...)
		}
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output != "" {
		return model.Save(output, merged)
	}
	name, err := cmd.Flags().GetString("model-format")
	if err != nil {
		return err
	}
	format, err := model.ParseFormat(name)
	if err != nil {
		return err
	}
	return model.Encode(cmd.OutOrStdout(), merged, format)
}

// extract runs the Go front-end without generating code. It returns the units
// of all packages, sorted by path, and their diagnostics.
func extract(cmd *cobra.Command, pcfg *processor.Config) ([]*model.Unit, []diag.Diagnostic, error) {
	var mu sync.Mutex
	var units []*model.Unit
	pcfg.Processors = []processor.Processor{
		func(ctx *processor.Context, _ processor.OutputFactory) error {
			mu.Lock()
			defer mu.Unlock()
			units = append(units, ctx.Unit)
			return nil
		},
	}
	diags, err := pcfg.Execute(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].Path < units[j].Path
	})
	return units, diags, nil
}
