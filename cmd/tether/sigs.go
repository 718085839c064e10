package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tether/internal/signature"
)

var sigsCmd = &cobra.Command{
	Use:   "sigs <file.bin>...",
	Short: "List the signatures stored in signature files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSigs,
}

func init() {
	sigsCmd.Flags().Bool("fundamentals", true, "include scalar signatures")
}

func runSigs(cmd *cobra.Command, args []string) error {
	fundamentals, _ := cmd.Flags().GetBool("fundamentals")
	opts := signature.DumpOptions{Color: useColor(cmd), Fundamentals: fundamentals}
	for i, path := range args {
		list, err := signature.ReadFile(path)
		if err != nil {
			return err
		}
		if len(args) > 1 {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", path)
		}
		if err := signature.Dump(cmd.OutOrStdout(), list, opts); err != nil {
			return err
		}
	}
	return nil
}
