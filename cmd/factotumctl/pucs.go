package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPUCsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pucs",
		Short: "Work with the PUC hierarchy",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every PUC with its product counts to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) (err error) {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer func() {
					if closeErr := f.Close(); closeErr != nil && err == nil {
						err = closeErr
					}
				}()

				if err := a.domain.PUCs.Export(ctx, f); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", out)
				return nil
			})
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "pucs.xlsx", "Output workbook path")

	cmd.AddCommand(export)
	return cmd
}
