// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/skill-factory/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the model candidates in the order they are tried",
	Long: `Providers lists every configured provider and model that has credentials,
in the order a generation run tries them. Providers without an API key are
skipped and reported on stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := llm.NewFromConfig(context.Background(), appCfg.LLM, logger)
		if err != nil {
			return err
		}

		cands := client.Candidates()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(os.Stdout, cands)
		}
		fmt.Fprintf(os.Stdout, "%-4s  %-12s  %s\n", "#", "Provider", "Model")
		for i, c := range cands {
			fmt.Fprintf(os.Stdout, "%-4d  %-12s  %s\n", i+1, c.Provider, c.Model)
		}
		return nil
	},
}

func init() {
	providersCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(providersCmd)
}
