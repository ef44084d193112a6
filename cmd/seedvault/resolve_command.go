package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seedvault/internal/rules"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var category string
	var tags string

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show the destination the archive rules pick for a download",
		Long:  "Dry-runs the configured rule list against a download name, category, and tags, printing the remote path an archived task would receive.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ruleList, warnings := cfg.CompiledRules()
			out := cmd.OutOrStdout()
			for _, warning := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: %s\n", warning)
			}

			item := rules.Item{
				Name:     args[0],
				Category: category,
				Tags:     tags,
			}
			fmt.Fprintln(out, rules.Resolve(item, ruleList))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category to resolve with")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags to resolve with")
	return cmd
}
