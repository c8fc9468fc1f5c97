package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jhump/equatable/config"
	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/diagfmt"
)

// settings are the configuration file merged with the command line. Flags
// that were set explicitly win.
type settings struct {
	cfg    *config.Config
	format diagfmt.Format
	color  diagfmt.ColorMode
	max    int
	logger *zap.SugaredLogger
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Flags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(configPath, ".")
	if err != nil {
		return nil, err
	}

	format := cfg.Diagnostics.Format
	if flags.Changed("format") {
		if format, err = flags.GetString("format"); err != nil {
			return nil, err
		}
	}
	color := cfg.Diagnostics.Color
	if flags.Changed("color") {
		if color, err = flags.GetString("color"); err != nil {
			return nil, err
		}
	}
	maxDiags := cfg.Diagnostics.Max
	if flags.Changed("max-diagnostics") {
		if maxDiags, err = flags.GetInt("max-diagnostics"); err != nil {
			return nil, err
		}
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}

	s := &settings{cfg: cfg, max: maxDiags}
	if s.format, err = diagfmt.ParseFormat(format); err != nil {
		return nil, err
	}
	if s.color, err = diagfmt.ParseColorMode(color); err != nil {
		return nil, err
	}
	if s.logger, err = newLogger(verbose); err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		s.logger.Debugf("using configuration from %s", cfg.Path)
	}
	return s, nil
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.DisableStacktrace = true
	zc.OutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// report prints the given diagnostics, which must already be sorted. It
// returns errReported if any of them is an error, including ones that were
// not shown because of the limit.
func (s *settings) report(cmd *cobra.Command, diags []diag.Diagnostic, showFixes bool) error {
	bag := diag.NewBag(s.max)
	bag.AddAll(diags)

	var err error
	switch s.format {
	case diagfmt.FormatJSON:
		err = diagfmt.JSON(cmd.OutOrStdout(), diags, diagfmt.JSONOpts{Max: s.max, IncludeFixes: true, Indent: true})
	case diagfmt.FormatShort:
		err = diagfmt.Short(cmd.ErrOrStderr(), bag.Items(), diagfmt.PathModeAuto, "")
	default:
		out := cmd.ErrOrStderr()
		err = diagfmt.Pretty(out, bag.Items(), diagfmt.PrettyOpts{
			Color:      s.color.Enabled(asFile(out)),
			ShowSource: true,
			ShowFixes:  showFixes,
		})
	}
	if err != nil {
		return err
	}
	if bag.Dropped() > 0 && s.format != diagfmt.FormatJSON {
		cmd.PrintErrf("... and %d more diagnostic(s) not shown\n", bag.Dropped())
	}

	for _, d := range diags {
		if d.Severity >= diag.SevError {
			return errReported
		}
	}
	return nil
}

func asFile(w io.Writer) *os.File {
	f, _ := w.(*os.File)
	return f
}
