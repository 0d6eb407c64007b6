package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/eradiate-pp/postproc"
)

func newDescribeCmd(a *app) *cobra.Command {
	var (
		flags  postprocFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the structure of a postprocessing pipeline",
		Example: `  eradiate-pp describe --mode ckd --var radiance --distant --srf
  eradiate-pp describe --from measure.yaml --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, cfg, err := flags.build(cmd, a)
			if err != nil {
				return err
			}
			report := newGraphReport(p)
			report.Config = &cfg
			report.FinalOutputs = postproc.FinalOutputs(p)
			return writeGraph(cmd.OutOrStdout(), format, p, report)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or yaml")
	return cmd
}
