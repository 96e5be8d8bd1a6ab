package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newUberPUCCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uberpuc",
		Short: "Maintain the stored uberpuc flags",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "recompute",
			Short: "Re-resolve the uberpuc of every product",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
					result, err := a.domain.Classifications.Recompute(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), result)
				})
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Report products whose stored uberpuc disagrees with resolution",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
					result, err := a.domain.Classifications.Verify(ctx)
					if err != nil {
						return err
					}
					if err := printJSON(cmd.OutOrStdout(), result); err != nil {
						return err
					}
					if n := len(result.Mismatches); n > 0 {
						return fmt.Errorf("%d products have an inconsistent uberpuc", n)
					}
					return nil
				})
			},
		},
	)

	return cmd
}
