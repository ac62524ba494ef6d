// Command inquisitornet drives the moderation pipeline: ingest content,
// detect and decide, gate outbound drafts, label samples, compute metrics,
// and verify the database invariants.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/johnson-liu-code/InquisitorNet/internal/audit"
	"github.com/johnson-liu-code/InquisitorNet/internal/config"
	"github.com/johnson-liu-code/InquisitorNet/internal/store"
)

// Exit codes.
const (
	exitOK            = 0
	exitNoEligible    = 1
	exitMissingInput  = 2
	exitRuntimeFailed = 3
)

var (
	// Global flags
	dbPath    string
	configDir string
	logLevel  string

	// Logger, built in the root PersistentPreRun
	logger *zap.Logger
)

// exitError carries a process exit code through cobra's error path.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

var rootCmd = &cobra.Command{
	Use:   "inquisitornet",
	Short: "Staged content-moderation pipeline",
	Long: `InquisitorNet ingests forum content through keyword matching into a
ledger, scores ledger items into mark/acquittal decisions, gates outbound
drafts against policy checks, and tracks detector quality through human
labeling and daily metrics snapshots.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = mustBuildLogger(logLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "inquisitornet.db",
		"database DSN: a sqlite file path, or a postgres:// URL")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config",
		"directory holding sources.yml, matching.yml, detector_rules.yml, policy_gate.yml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, error")

	rootCmd.AddCommand(ingestCmd, detectCmd, gateCmd, labelCmd, metricsCmd, verifyCmd)

	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitMissingInput)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntimeFailed)
	}
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return l
}

// openStore opens and migrates the database named by --db.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(cmd.Context()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// newEventWriter returns the analytics sink: ClickHouse when CLICKHOUSE_DSN
// is set and reachable, the structured log writer otherwise.
func newEventWriter() audit.EventWriter {
	if dsn := os.Getenv("CLICKHOUSE_DSN"); dsn != "" {
		w, err := audit.NewClickHouseWriter(dsn, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err))
			return audit.NewLogWriter(logger)
		}
		logger.Info("clickhouse writer connected")
		return w
	}
	return audit.NewLogWriter(logger)
}
