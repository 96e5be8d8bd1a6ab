package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	actor string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "factotumctl",
		Short:         "Operate a Factotum deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(
		&opts.actor,
		"actor",
		defaultActor(),
		"Name recorded in the audit log for changes made by this command",
	)

	cmd.AddCommand(
		newMigrateCmd(),
		newUberPUCCmd(opts),
		newQACmd(opts),
		newRulesCmd(opts),
		newAuditCmd(opts),
		newPUCsCmd(opts),
		newSeedCmd(opts),
		newOpenAPICmd(),
	)

	return cmd
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "factotumctl"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
