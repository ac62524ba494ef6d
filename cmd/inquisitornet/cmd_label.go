package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnson-liu-code/InquisitorNet/internal/calib"
	"github.com/johnson-liu-code/InquisitorNet/internal/config"
	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

var (
	labelSample int
	labelMode   string
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Label a sample of recent decisions for calibration",
	Long: `Samples recent marks and acquittals and records ground-truth labels.
Interactive mode prompts per item: t=true positive, f=false positive,
n=true negative, b=false negative, Enter=skip, q=quit. Auto mode writes
true-negative placeholder labels for the whole sample.`,
	RunE: runLabel,
}

func init() {
	labelCmd.Flags().IntVar(&labelSample, "sample", 20, "how many decisions to sample")
	labelCmd.Flags().StringVar(&labelMode, "mode", "interactive", "interactive or auto")
}

func runLabel(cmd *cobra.Command, args []string) error {
	if labelMode != "interactive" && labelMode != "auto" {
		return &config.ConfigError{
			Path: "--mode",
			Err:  fmt.Errorf("unknown mode %q", labelMode),
		}
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	c := calib.NewCalibrator(s, logger)
	ids, err := c.Sample(cmd.Context(), calib.DefaultWindow, labelSample)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return &exitError{code: exitNoEligible, msg: "no decisions to sample; run detect first"}
	}

	if labelMode == "auto" {
		for _, id := range ids {
			if err := c.AddLabel(cmd.Context(), id, store.LabelTrueNegative, "auto-skip placeholder"); err != nil {
				return err
			}
		}
		fmt.Printf("labeled %d items as TN placeholders\n", len(ids))
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	labeled := 0
	for i, id := range ids {
		item, err := s.GetItem(cmd.Context(), id)
		if err != nil {
			return err
		}
		body := "(item no longer in ledger)"
		if item != nil {
			body = item.Body
			if len(body) > 200 {
				body = body[:200] + "..."
			}
		}
		det, err := s.GetDetection(cmd.Context(), id)
		if err != nil {
			return err
		}
		verdict := "unknown"
		if det != nil {
			verdict = fmt.Sprintf("%s (%.2f): %s", det.Outcome, det.Confidence, det.Rationale)
		}

		fmt.Printf("\n[%d/%d] %s\n  %s\n  verdict: %s\n", i+1, len(ids), id, body, verdict)
		fmt.Print("label [t/f/n/b, Enter=skip, q=quit]: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		var class string
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "t":
			class = store.LabelTruePositive
		case "f":
			class = store.LabelFalsePositive
		case "n":
			class = store.LabelTrueNegative
		case "b":
			class = store.LabelFalseNegative
		case "q":
			fmt.Printf("labeled %d items\n", labeled)
			return nil
		default:
			continue
		}
		if err := c.AddLabel(cmd.Context(), id, class, ""); err != nil {
			return err
		}
		labeled++
	}
	fmt.Printf("labeled %d items\n", labeled)
	return nil
}
