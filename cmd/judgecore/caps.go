package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"judgecore/linux"
)

var capsCmd = &cobra.Command{
	Use:   "caps",
	Short: "Report this process's permitted Linux capability set",
	Long: `caps prints every capability judgecore knows about and marks which
are still held by the calling process. Useful for diagnosing a host where
DropAll's bounding-set drop didn't take, typically a container runtime or
user namespace that never granted CAP_SETPCAP in the first place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, permitted, _, err := linux.GetCapabilities()
		if err != nil {
			return fmt.Errorf("read capabilities: %w", err)
		}

		names := linux.AllCapabilities()
		sort.Strings(names)

		for _, name := range names {
			num, _ := linux.NameToCapability(name)
			held := permitted&(1<<uint(num)) != 0
			fmt.Printf("%-24s %v\n", name, held)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capsCmd)
}
