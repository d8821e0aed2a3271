package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlanCmd(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the activation order",
		Long: `Print the activation order of the services in the given manifests.

Examples:
  gofac-scan plan -m shop.yaml
  gofac-scan plan -m shop.yaml -m billing.yaml --config scan.yaml -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatterFor(output)
			if err != nil {
				return err
			}
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			plan, err := s.scanner.Plan(s.registry, s.sources...)
			if err != nil {
				return err
			}
			return f(cmd.OutOrStdout(), plan)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, plain, yaml)")
	return cmd
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate that the manifests can be ordered and registered",
		Long: `Plan the manifests and commit the result to an in-memory registry.
Nothing is printed on success except a summary line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.session(cmd)
			if err != nil {
				return err
			}
			plan, err := s.scanner.Scan(s.registry, s.sources...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d services ordered, %d already registered\n",
				len(plan.Order), len(plan.Skipped))
			return nil
		},
	}
}
