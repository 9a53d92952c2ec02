// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/skill-factory/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded generation runs",
	Long: `Runs lists generation runs from the run database, newest first, with
their final state, attempts and validation score. Use --artifacts with a
run ID to print the drafts recorded for that run.`,
	RunE: runRuns,
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := store.Open(appCfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")

	if runID, _ := cmd.Flags().GetString("artifacts"); runID != "" {
		a, err := st.RunArtifacts(ctx, runID)
		if err != nil {
			return err
		}
		if len(a) == 0 {
			return fmt.Errorf("no artifacts recorded for run %s", runID)
		}
		if jsonOutput {
			return writeJSON(os.Stdout, a)
		}
		for _, kind := range a.Kinds() {
			fmt.Printf("===== %s =====\n%s\n", kind, a[kind])
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(os.Stdout, runs)
	}
	sum, err := st.Summarize(ctx)
	if err != nil {
		return err
	}
	printRuns(os.Stdout, runs, sum)
	return nil
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	runsCmd.Flags().String("artifacts", "", "print the artifacts recorded for this run ID")
	runsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(runsCmd)
}
