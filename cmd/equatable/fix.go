package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/fix"
)

func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [flags] <packages...>",
		Short: "Apply suggested fixes to Go sources",
		Long: "Analyze the given packages and apply the fixes suggested by diagnostics, like marking closures with " +
			"@EquatableIgnoredUnsafeClosure. Review the result: a fix only silences the diagnostic, it cannot tell " +
			"whether the closure affects the value's observable state.",
		Args: cobra.MinimumNArgs(1),
		RunE: runFix,
	}
	cmd.Flags().Bool("dry-run", false, "print the files that would change instead of writing them")
	cmd.Flags().StringSlice("code", nil, "only apply fixes for diagnostics with these codes, like EQ2004")
	cmd.Flags().Bool("include-tests", false, "also fix types declared in test files")
	return cmd
}

func runFix(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	codeNames, err := cmd.Flags().GetStringSlice("code")
	if err != nil {
		return err
	}
	codes, err := parseCodes(codeNames)
	if err != nil {
		return err
	}

	pcfg, err := processorConfig(cmd, s, args)
	if err != nil {
		return err
	}
	_, diags, err := extract(cmd, pcfg)
	if err != nil {
		return err
	}

	res, err := fix.Apply(diags, fix.Options{Codes: codes, DryRun: dryRun})
	for _, sk := range res.Skipped {
		s.logger.Warnf("skipped fix %q (%s): %s", sk.Title, sk.Code.ID(), sk.Reason)
	}
	if errors.Is(err, fix.ErrNoFixes) {
		cmd.Println("no applicable fixes found")
		return nil
	} else if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, a := range res.Applied {
		fmt.Fprintf(out, "fixed %s: %s\n", a.Code.ID(), a.Message)
	}
	for _, fc := range res.FileChanges {
		if dryRun {
			fmt.Fprintf(out, "--- %s (%d edit(s), not written)\n%s", fc.Path, fc.EditCount, fc.Content)
		} else {
			fmt.Fprintf(out, "wrote %s (%d edit(s))\n", fc.Path, fc.EditCount)
		}
	}
	return nil
}

// parseCodes parses diagnostic codes given as IDs, like "EQ2004", or as plain
// numbers.
func parseCodes(names []string) ([]diag.Code, error) {
	var codes []diag.Code
	for _, n := range names {
		var num int
		if _, err := fmt.Sscanf(strings.TrimPrefix(strings.ToUpper(n), "EQ"), "%d", &num); err != nil {
			return nil, fmt.Errorf("invalid diagnostic code %q", n)
		}
		c := diag.Code(num)
		if c.ID() == diag.UnknownCode.ID() {
			return nil, fmt.Errorf("unknown diagnostic code %q", n)
		}
		codes = append(codes, c)
	}
	return codes, nil
}
