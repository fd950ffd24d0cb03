package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/accel/internal/output"
	"github.com/tanq16/accel/internal/utils"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [OUTFILE]",
		Short: "Remove leftover part files of an interrupted download",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			removed, err := utils.CleanParts(args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Error cleaning part files: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Removed %d part file(s) for %s", removed, args[0]))
		},
	}
}
