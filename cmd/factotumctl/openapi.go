package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/factotum/internal/api"
	"github.com/JaimeStill/factotum/internal/config"
	"github.com/JaimeStill/factotum/internal/infrastructure"
	"github.com/JaimeStill/factotum/pkg/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Write the API's OpenAPI document without starting any infrastructure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			infra, err := infrastructure.New(cfg)
			if err != nil {
				return err
			}

			domain := api.NewDomain(api.NewRuntime(cfg, infra))
			if err := openapi.WriteJSON(api.Spec(cfg, domain), out); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "openapi.json", "Output file path")

	return cmd
}
