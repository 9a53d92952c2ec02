// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/skill-factory/internal/store"
	"github.com/pdiddy/skill-factory/pkg/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printOutcome writes the result of a generation run.
func printOutcome(w io.Writer, out types.RunOutcome, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "Run:      %s\n", out.RunID)
	fmt.Fprintf(w, "State:    %s\n", out.State)
	if out.Topic.Topic != "" {
		fmt.Fprintf(w, "Topic:    %s (%s, %s)\n", out.Topic.Topic, out.Topic.Category, out.Topic.Difficulty)
		fmt.Fprintf(w, "Slug:     %s\n", out.Slug)
	}
	fmt.Fprintf(w, "Attempts: %d\n", out.Attempts)
	if out.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", out.Error)
		return nil
	}
	fmt.Fprintf(w, "Score:    %d\n", out.Validation.Score)
	printList(w, "Errors", out.Validation.Errors)
	printList(w, "Warnings", out.Validation.Warnings)
	printList(w, "Written", out.Paths)
	return nil
}

// printUnapproved writes the banner shown when a run used up its attempts.
func printUnapproved(w io.Writer, out types.RunOutcome) {
	bar := strings.Repeat("=", 60)
	fmt.Fprintln(w, bar)
	fmt.Fprintf(w, "UNAPPROVED: %q was not approved after %d attempt(s)\n", out.Topic.Topic, out.Attempts)
	if reason := out.Validation.Reason(); reason != "" {
		fmt.Fprintf(w, "Last rejection: %s\n", reason)
	}
	if len(out.Paths) > 0 {
		fmt.Fprintln(w, "Artifacts were written for inspection and are not registered.")
	} else {
		fmt.Fprintln(w, "No artifacts were written. Use --persist-unapproved to keep drafts.")
	}
	fmt.Fprintln(w, bar)
}

// printValidation writes a validator result.
func printValidation(w io.Writer, res types.ValidationResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	verdict := "REJECTED"
	if res.Approved {
		verdict = "APPROVED"
	}
	fmt.Fprintf(w, "%s (score %d)\n", verdict, res.Score)
	printList(w, "Errors", res.Errors)
	printList(w, "Warnings", res.Warnings)
	return nil
}

// printRuns writes the run history table and the per-state totals.
func printRuns(w io.Writer, runs []store.RunRecord, sum store.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-8s  %-10s  %-8s  %-5s  %-8s  %s\n",
		"Run", "State", "Attempts", "Score", "Elapsed", "Topic")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range runs {
		topic := r.Topic
		if r.Error != "" {
			topic += " (" + r.Error + ")"
		}
		fmt.Fprintf(w, "%-8s  %-10s  %-8d  %-5d  %-8s  %s\n",
			shortID(r.ID), r.State, r.Attempts, r.Score, r.Elapsed().Round(time.Second), truncate(topic, 60))
	}
	fmt.Fprintf(w, "\n%d run(s): %d approved, %d abandoned, %d failed\n",
		sum.Total(), sum.Approved, sum.Abandoned, sum.Failed)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
