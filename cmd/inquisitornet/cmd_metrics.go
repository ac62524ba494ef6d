package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnson-liu-code/InquisitorNet/internal/calib"
)

var metricsSince int

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute precision/recall/F1 over recent labels and snapshot them",
	Long: `Tallies the labels created in the trailing window, derives precision,
recall, and F1, and writes today's metrics_daily snapshot. Re-running on
the same day replaces the snapshot.`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().IntVar(&metricsSince, "since", calib.DefaultSinceDays,
		"label window in trailing days")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	c := calib.NewCalibrator(s, logger)
	m, err := c.ComputeMetrics(cmd.Context(), metricsSince)
	if err != nil {
		return err
	}
	if m.TP+m.FP+m.TN+m.FN == 0 {
		return &exitError{code: exitNoEligible, msg: "no labels in window; run label first"}
	}

	snap, err := c.WriteSnapshot(cmd.Context(), m)
	if err != nil {
		return err
	}
	fmt.Printf("%s  precision %.3f  recall %.3f  f1 %.3f  (tp %d, fp %d, tn %d, fn %d)\n",
		snap.Day, m.Precision, m.Recall, m.F1, m.TP, m.FP, m.TN, m.FN)
	return nil
}
