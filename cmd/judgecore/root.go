// Command judgecore is a CLI front end for the sandboxed execution core:
// it compiles and runs a submission under ptrace supervision and reports
// a verdict, or benchmarks a known-good solution to derive limits for
// other submissions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"judgecore/config"
	judgecorelogging "judgecore/logging"
)

var (
	version = "0.1.0"
)

var (
	globalConfig    string
	globalLog       string
	globalLogFormat string
	globalDebug     bool
)

var rootCmd = &cobra.Command{
	Use:     "judgecore",
	Short:   "Sandboxed execution core for a programming-contest judge",
	Version: version,
	Long: `judgecore compiles and runs untrusted submissions under ptrace
supervision, enforcing CPU, memory and syscall restrictions, and reports
a verdict (AC/WA/TL/ML/RE/CE/RF/SE).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfig, "config", "", "path to a judgecore settings JSON file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(judgeCmd)
	rootCmd.AddCommand(benchCmd)
}

func setupLogging() {
	logOutput := os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	logLevel := slog.LevelInfo
	if globalDebug {
		logLevel = slog.LevelDebug
	}

	logger := judgecorelogging.NewLogger(judgecorelogging.Config{
		Level:  logLevel,
		Format: globalLogFormat,
		Output: logOutput,
	})
	judgecorelogging.SetDefault(logger)
}

// loadSettings reads --config if given, else returns the built-in defaults.
func loadSettings() (config.Settings, error) {
	if globalConfig == "" {
		return config.Default(), nil
	}
	return config.Load(globalConfig)
}

// runContext returns a context that cancels on SIGINT/SIGTERM.
func runContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "judgecore:", err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}
