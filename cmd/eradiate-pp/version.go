package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/eradiate-pp/version"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", appName, info.Full(), info.GoVersion)
			return err
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print the version string only")
	return cmd
}
