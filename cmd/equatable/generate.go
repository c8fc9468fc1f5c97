package main

import (
	"github.com/spf13/cobra"

	"github.com/jhump/equatable/processor"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [flags] <packages...>",
		Short: "Generate Equal and Hash methods for annotated structs",
		Long: "Load the given packages, analyze every struct annotated with @Equatable and write the synthesized methods " +
			"to one file per package. Types whose analysis reports a type-level problem are skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: runGenerate,
	}
	cmd.Flags().Bool("include-tests", false, "also process types declared in test files")
	cmd.Flags().String("output-dir", "", "root directory for generated files, organized by package path (default: next to the sources)")
	cmd.Flags().String("file-suffix", "", "suffix of generated file names (default \".eq.go\")")
	cmd.Flags().Int("jobs", 0, "maximum number of packages analyzed concurrently (0 for no limit)")
	cmd.Flags().Bool("check", false, "analyze and report diagnostics without writing files")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	pcfg, err := processorConfig(cmd, s, args)
	if err != nil {
		return err
	}
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	if !check {
		pcfg.Processors = processor.AllRegisteredProcessors()
	}

	diags, err := pcfg.Execute(cmd.Context())
	if err != nil {
		return err
	}
	return s.report(cmd, diags, true)
}

// processorConfig builds the processor configuration from settings and the
// generate flags, where the command defines them.
func processorConfig(cmd *cobra.Command, s *settings, patterns []string) (*processor.Config, error) {
	gen := s.cfg.Generate
	flags := cmd.Flags()
	var err error
	if flags.Lookup("include-tests") != nil && flags.Changed("include-tests") {
		if gen.IncludeTests, err = flags.GetBool("include-tests"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("output-dir") != nil && flags.Changed("output-dir") {
		if gen.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("file-suffix") != nil && flags.Changed("file-suffix") {
		if gen.FileSuffix, err = flags.GetString("file-suffix"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("jobs") != nil && flags.Changed("jobs") {
		if gen.Jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, err
		}
	}
	return &processor.Config{
		Patterns:     patterns,
		IncludeTests: gen.IncludeTests,
		OutputDir:    gen.OutputDir,
		FileSuffix:   gen.FileSuffix,
		Jobs:         gen.Jobs,
		Logger:       s.logger,
	}, nil
}
