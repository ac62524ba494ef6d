package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnson-liu-code/InquisitorNet/internal/config"
	"github.com/johnson-liu-code/InquisitorNet/internal/ingest"
	"github.com/johnson-liu-code/InquisitorNet/internal/match"
)

var ingestInput string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull records from the configured source into the content ledger",
	Long: `Reads records from the source named in sources.yml, drops anything a
discard predicate matches, keeps bodies the keyword matcher accepts, and
appends the survivors to the content ledger. Replaying the same input
never duplicates rows.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestInput, "input", "",
		"JSONL records file, overriding fixtures_path from sources.yml")
}

func runIngest(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(configDir)
	if err != nil {
		return err
	}
	if settings.Sources.Mode == config.ModeAPI {
		return &config.ConfigError{
			Path: configDir,
			Err:  fmt.Errorf("mode %q requires live credentials; only %q is supported offline", config.ModeAPI, config.ModeFixtures),
		}
	}

	path := settings.Sources.FixturesPath
	if ingestInput != "" {
		path = ingestInput
	}
	if path == "" {
		return &config.ConfigError{
			Path: configDir,
			Err:  fmt.Errorf("no fixtures_path configured and no --input given"),
		}
	}

	matcher, err := match.Compile(
		settings.Matching.Keywords.Include,
		settings.Matching.Keywords.Exclude,
		match.Policy(settings.Matching.MatchPolicy),
	)
	if err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	source := &ingest.FilterSource{
		Inner: &ingest.FixtureSource{Path: path, Logger: logger},
		Allow: settings.Sources.Allow,
		Avoid: settings.Sources.Avoid,
	}
	ledger := ingest.NewLedger(source, settings.Matching.DiscardIf, matcher, s, logger)

	sum, err := ledger.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("processed %d, kept %d, dropped %d, duplicates %d\n",
		sum.Processed, sum.Kept, sum.Dropped, sum.Duplicates)

	if sum.Processed == 0 {
		return &exitError{code: exitNoEligible, msg: "no records in input"}
	}
	return nil
}
