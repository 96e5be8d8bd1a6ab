package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/factotum/internal/qa"
)

func newQACmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qa",
		Short: "Drive extracted-text QA review",
	}

	var reviewer string
	begin := &cobra.Command{
		Use:   "begin SCRIPT_ID",
		Short: "Open a QA group for a script, or print the one already open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if reviewer == "" {
				reviewer = opts.actor
			}
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				group, err := a.domain.QA.BeginQA(ctx, id, qa.BeginCommand{Reviewer: reviewer})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), group)
			})
		},
	}
	begin.Flags().StringVar(&reviewer, "reviewer", "", "Reviewer recorded on the group (defaults to --actor)")

	progress := &cobra.Command{
		Use:   "progress GROUP_ID",
		Short: "Print how much of a QA group has been approved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				p, err := a.domain.QA.Progress(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}

	complete := &cobra.Command{
		Use:   "complete GROUP_ID",
		Short: "Close a fully approved QA group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				group, err := a.domain.QA.Complete(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), group)
			})
		},
	}

	cmd.AddCommand(begin, progress, complete)
	return cmd
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
