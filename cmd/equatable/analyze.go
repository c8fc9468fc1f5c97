package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhump/equatable/analysis"
	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/model"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [flags] <model files...>",
		Short: "Analyze declarations from model files",
		Long: "Read declaration models (.yaml, .yml, .json or .msgpack), analyze every declaration and print the " +
			"synthesized equality and hash logic in a neutral form.",
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}
	cmd.Flags().String("marker-prefix", "", "text written before annotations inserted by fixes, like \"// \"")
	cmd.Flags().Int("jobs", 0, "maximum number of declarations analyzed concurrently (0 for no limit)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	prefix, err := cmd.Flags().GetString("marker-prefix")
	if err != nil {
		return err
	}
	jobs := s.cfg.Generate.Jobs
	if cmd.Flags().Changed("jobs") {
		if jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return err
		}
	}

	bag := diag.NewBag(0)
	for _, path := range args {
		unit, err := model.Load(path)
		if err != nil {
			return err
		}
		s.logger.Debugf("analyzing %d declaration(s) from %s", len(unit.Declarations), path)
		results, err := analysis.AnalyzeAll(cmd.Context(), unit.Declarations, analysis.Options{MarkerPrefix: prefix}, jobs)
		if err != nil {
			return err
		}
		for _, res := range results {
			bag.AddAll(res.Diagnostics)
			if err := printResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}
		}
	}
	bag.Dedup()
	bag.Sort()
	return s.report(cmd, bag.Items(), true)
}

func printResult(w io.Writer, res *analysis.Result) error {
	if res.Fragment == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s:\n  equality: %s\n", res.Declaration.Name, res.Fragment.Equality); err != nil {
		return err
	}
	if !res.Fragment.HashRequested {
		return nil
	}
	if _, err := fmt.Fprintln(w, "  hash:"); err != nil {
		return err
	}
	for _, step := range res.Fragment.Hash {
		if _, err := fmt.Fprintf(w, "    %s\n", step); err != nil {
			return err
		}
	}
	return nil
}
