package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnson-liu-code/InquisitorNet/internal/config"
	"github.com/johnson-liu-code/InquisitorNet/internal/gate"
)

var gateInput string

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Evaluate outbound drafts against the policy checks",
	Long: `Reads drafts from a JSONL file, runs every policy check over each
draft, and records one allow/block decision per draft in the audit log.
Decisions are mirrored to the analytics sink when CLICKHOUSE_DSN is set.`,
	RunE: runGate,
}

func init() {
	gateCmd.Flags().StringVar(&gateInput, "input", "",
		"JSONL drafts file (objects with scope and text)")
}

func runGate(cmd *cobra.Command, args []string) error {
	if gateInput == "" {
		return &config.ConfigError{
			Path: "--input",
			Err:  fmt.Errorf("a drafts file is required"),
		}
	}

	settings, err := config.Load(configDir)
	if err != nil {
		return err
	}
	rules, err := gate.CompileChecks(settings.Gate.Checks)
	if err != nil {
		return err
	}

	file, err := os.Open(gateInput)
	if err != nil {
		return &config.ConfigError{Path: gateInput, Err: err}
	}
	defer file.Close()

	drafts, err := gate.ReadDrafts(file, logger)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return &exitError{code: exitNoEligible, msg: "no valid drafts in input"}
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	events := newEventWriter()
	defer events.Close()

	g := gate.NewGate(rules, settings.Gate.DecisionPolicy, s, nil, events, logger)
	sum, err := g.Run(cmd.Context(), drafts)
	if err != nil {
		return err
	}
	fmt.Printf("evaluated %d, allowed %d, blocked %d\n",
		sum.Evaluated, sum.Allowed, sum.Blocked)
	return nil
}
