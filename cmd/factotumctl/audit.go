package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newAuditCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Manage the audit log triggers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Create or replace the audit trigger of every declared table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				result, err := a.domain.Audit.Install(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	})

	return cmd
}
