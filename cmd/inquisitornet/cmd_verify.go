package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnson-liu-code/InquisitorNet/internal/checkup"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the acceptance checklist over the database",
	Long: `Checks that the configs parse, the ledger is populated with keyword
hits, the detector covered the ledger, marks are well formed, and no item
was decided both ways. Each check reports independently.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := checkup.NewChecker(s, configDir, logger).Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, res := range report.Results {
		status := "ok"
		if !res.OK {
			status = "FAIL"
		}
		fmt.Printf("%-4s %-22s %s\n", status, res.Name, res.Details)
	}
	if !report.AllOK() {
		return &exitError{
			code: exitNoEligible,
			msg:  "failing checks: " + strings.Join(report.Failed(), ", "),
		}
	}
	return nil
}
