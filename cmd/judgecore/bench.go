package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"judgecore/judge"
	"judgecore/supervisor"
)

var benchFlags struct {
	cmdline  string
	input    string
	output   string
	times    int
	filename string
}

var benchCmd = &cobra.Command{
	Use:   "bench SOURCE",
	Short: "Run a known-good solution repeatedly and report average resource usage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]

		settings, err := loadSettings()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		base, err := settings.Base()
		if err != nil {
			return fmt.Errorf("resolve base security context: %w", err)
		}

		sup, err := supervisor.New()
		if err != nil {
			return fmt.Errorf("init supervisor: %w", err)
		}

		j := judge.New(sup, base, settings.CompileLevel, settings.RunLevel, defaultFamilies(), settings.JudgeConfig())

		files := judge.Files{Input: benchFlags.input, Output: benchFlags.output}

		cpu, rss, vm, err := j.Benchmark(runContext(), benchFlags.cmdline, src, files, benchFlags.times, benchFlags.filename)
		if err != nil {
			return fmt.Errorf("benchmark: %w", err)
		}

		fmt.Printf("cpu=%.3fs rss=%dpages vm=%dpages\n", cpu, rss, vm)
		return nil
	},
}

func init() {
	benchCmd.Flags().StringVar(&benchFlags.cmdline, "compiler", "", "compiler/interpreter command line")
	benchCmd.Flags().StringVar(&benchFlags.input, "input", "/dev/null", "path to the benchmark input file")
	benchCmd.Flags().StringVar(&benchFlags.output, "output", "", "path to the expected output file (generated if missing and non-empty)")
	benchCmd.Flags().IntVar(&benchFlags.times, "times", 3, "number of runs to average over")
	benchCmd.Flags().StringVar(&benchFlags.filename, "filename", "", "submitted filename to stage as (default: basename of SOURCE)")
	benchCmd.MarkFlagRequired("compiler")
}
