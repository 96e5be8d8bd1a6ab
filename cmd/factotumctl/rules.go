package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/factotum/internal/rules"
)

func newRulesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage rule-based classification",
	}

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert the rules of a YAML rule file by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				path := file
				if path == "" {
					path = a.cfg.Rules.File
				}

				f, err := rules.LoadFile(path)
				if err != nil {
					return err
				}

				result, err := a.domain.Rules.Import(ctx, f)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	importCmd.Flags().StringVarP(&file, "file", "f", "", "Rule file (defaults to rules.file from config)")

	apply := &cobra.Command{
		Use:   "apply",
		Short: "Evaluate the active rules against every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				result, err := a.domain.Rules.Apply(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.AddCommand(importCmd, apply)
	return cmd
}
