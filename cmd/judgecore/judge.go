package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"judgecore/judge"
	"judgecore/supervisor"
)

var judgeFlags struct {
	cmdline    string
	input      string
	output     string
	errorPath  string
	timeLimit  float64
	rssLimit   int64
	vmLimit    int64
	filename   string
}

var judgeCmd = &cobra.Command{
	Use:   "judge SOURCE",
	Short: "Compile and run a submission, printing its verdict",
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

		var errorFile *os.File
		if judgeFlags.errorPath != "" {
			errorFile, err = os.Create(judgeFlags.errorPath)
			if err != nil {
				return fmt.Errorf("create error file: %w", err)
			}
			defer errorFile.Close()
		}

		files := judge.Files{Input: judgeFlags.input, Output: judgeFlags.output}

		v, err := j.Judge(runContext(), judgeFlags.cmdline, src, files, errorFile,
			judgeFlags.timeLimit, judgeFlags.rssLimit, judgeFlags.vmLimit, judgeFlags.filename)
		if err != nil {
			return fmt.Errorf("judge: %w", err)
		}

		fmt.Println(v)
		return nil
	},
}

func init() {
	judgeCmd.Flags().StringVar(&judgeFlags.cmdline, "compiler", "", "compiler/interpreter command line, e.g. \"gcc -O2\"")
	judgeCmd.Flags().StringVar(&judgeFlags.input, "input", "/dev/null", "path to the test case input file")
	judgeCmd.Flags().StringVar(&judgeFlags.output, "output", "", "path to the expected output file (generated if missing and non-empty)")
	judgeCmd.Flags().StringVar(&judgeFlags.errorPath, "error-file", "", "path to write compiler output to on CE")
	judgeCmd.Flags().Float64Var(&judgeFlags.timeLimit, "time-limit", 1.0, "CPU time limit in seconds, before grace padding")
	judgeCmd.Flags().Int64Var(&judgeFlags.rssLimit, "rss-limit", 65536, "resident set size limit in pages, before grace padding")
	judgeCmd.Flags().Int64Var(&judgeFlags.vmLimit, "vm-limit", 262144, "virtual memory limit in pages, before grace padding")
	judgeCmd.Flags().StringVar(&judgeFlags.filename, "filename", "", "submitted filename to stage as (default: basename of SOURCE)")
	judgeCmd.MarkFlagRequired("compiler")
}
