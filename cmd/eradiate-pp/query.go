package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/eradiate-pp/util"
)

func newQueryCmd(a *app) *cobra.Command {
	var flags postprocFlags
	cmd := &cobra.Command{
		Use:   "query KEY=VALUE...",
		Short: "List the nodes whose metadata matches every pair",
		Long: `List, in topological order, the nodes whose metadata holds every given
key with an equal value. Values true, false, null and numbers are parsed;
anything else is a string.`,
		Example: `  eradiate-pp query final=true kind=coord`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := util.ParseKeyValues(args)
			if err != nil {
				return err
			}
			p, _, err := flags.build(cmd, a)
			if err != nil {
				return err
			}
			return writeLines(cmd.OutOrStdout(), p.GetNodesByMetadata(q))
		},
	}
	flags.register(cmd)
	return cmd
}
