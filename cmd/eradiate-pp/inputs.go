package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/eradiate-pp/postproc"
)

func newInputsCmd(a *app) *cobra.Command {
	var (
		flags  postprocFlags
		bypass []string
	)
	cmd := &cobra.Command{
		Use:   "inputs [OUTPUT...]",
		Short: "List the virtual inputs needed to compute outputs",
		Long: `List, one per line, the virtual inputs that must be supplied to compute
the given outputs, or every final output when none is given. Nodes named
with --bypass are treated as supplied by the caller.`,
		Example: `  eradiate-pp inputs brdf --distant --bypass radiance,irradiance`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := flags.build(cmd, a)
			if err != nil {
				return err
			}
			outputs := args
			if len(outputs) == 0 {
				outputs = postproc.FinalOutputs(p)
			}
			supplied := make(map[string]any, len(bypass))
			for _, name := range bypass {
				supplied[name] = nil
			}
			required, err := p.GetRequiredInputs(outputs, supplied)
			if err != nil {
				return err
			}
			return writeLines(cmd.OutOrStdout(), required)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&bypass, "bypass", nil, "nodes whose values are supplied directly")
	return cmd
}
