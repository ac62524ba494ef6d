package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnson-liu-code/InquisitorNet/internal/config"
	"github.com/johnson-liu-code/InquisitorNet/internal/detector"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Score undecided ledger items and record marks and acquittals",
	Long: `Scores every ledger item without a decision against the detector
rules. Items clearing the mark threshold are marked, items under the
acquit threshold are acquitted, and the rest are held for a later pass.`,
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(configDir)
	if err != nil {
		return err
	}

	rules, err := detector.CompileRules(settings.Detector.Rules, settings.Detector.Thresholds)
	if err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	items, err := s.CountItems(cmd.Context())
	if err != nil {
		return err
	}
	if items == 0 {
		return &exitError{code: exitNoEligible, msg: "content ledger is empty; run ingest first"}
	}

	runner := detector.NewRunner(rules, s, nil, logger)
	sum, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("marked %d, acquitted %d, held %d\n", sum.Marked, sum.Acquitted, sum.Held)
	return nil
}
