// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/skill-factory/internal/store"
	"github.com/pdiddy/skill-factory/pkg/types"
)

func abandonedOutcome() types.RunOutcome {
	return types.RunOutcome{
		RunID:    "0f8fad5b-d9cb-469f-a165-70867728950e",
		State:    types.StateAbandoned,
		Topic:    types.TopicInfo{Topic: "Jira triage", Category: types.CategoryWorkflow, Difficulty: types.DifficultyBeginner},
		Slug:     "jira-triage",
		Attempts: 3,
		Validation: types.ValidationResult{
			Score:    88,
			Errors:   []string{"Post: only 1 image placeholder(s), need 3"},
			Warnings: []string{"Code: no error handling"},
		},
	}
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printOutcome(&buf, abandonedOutcome(), false))

	out := buf.String()
	assert.Contains(t, out, "State:    abandoned")
	assert.Contains(t, out, "Topic:    Jira triage (Workflow, beginner)")
	assert.Contains(t, out, "Score:    88")
	assert.Contains(t, out, "  - Post: only 1 image placeholder(s), need 3")
	assert.NotContains(t, out, "Written:")
}

func TestPrintOutcome_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printOutcome(&buf, abandonedOutcome(), true))

	var got types.RunOutcome
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "jira-triage", got.Slug)
	assert.Equal(t, types.StateAbandoned, got.State)
}

func TestPrintOutcome_Failed(t *testing.T) {
	var buf bytes.Buffer
	out := types.RunOutcome{RunID: "r1", State: types.StateFailed, Error: "design stage: all providers exhausted"}
	require.NoError(t, printOutcome(&buf, out, false))
	assert.Contains(t, buf.String(), "Error:    design stage: all providers exhausted")
	assert.NotContains(t, buf.String(), "Score:")
}

func TestPrintUnapproved(t *testing.T) {
	var buf bytes.Buffer
	printUnapproved(&buf, abandonedOutcome())
	assert.Contains(t, buf.String(), `UNAPPROVED: "Jira triage" was not approved after 3 attempt(s)`)
	assert.Contains(t, buf.String(), "Last rejection: Post: only 1 image")
	assert.Contains(t, buf.String(), "--persist-unapproved")

	buf.Reset()
	o := abandonedOutcome()
	o.Paths = []string{"skills/jira-triage/SKILL.md"}
	printUnapproved(&buf, o)
	assert.Contains(t, buf.String(), "not registered")
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printValidation(&buf, types.ValidationResult{Approved: true, Score: 98, Warnings: []string{"w"}}, false))
	assert.Contains(t, buf.String(), "APPROVED (score 98)")
	assert.Contains(t, buf.String(), "Warnings:\n  - w\n")

	buf.Reset()
	require.NoError(t, printValidation(&buf, types.ValidationResult{Score: 90, Errors: []string{"e"}}, false))
	assert.Contains(t, buf.String(), "REJECTED (score 90)")
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil, store.RunSummary{})
	assert.Equal(t, "No runs recorded.\n", buf.String())

	buf.Reset()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	runs := []store.RunRecord{
		{ID: "0f8fad5b-d9cb", State: types.StateApproved, Topic: "Jira triage", Attempts: 2, Score: 96,
			StartedAt: start, FinishedAt: start.Add(90 * time.Second)},
		{ID: "short", State: types.StateFailed, Topic: "PDF", Error: "boom", StartedAt: start},
	}
	printRuns(&buf, runs, store.RunSummary{Approved: 1, Failed: 1})
	out := buf.String()
	assert.Contains(t, out, "0f8fad5b  approved")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "PDF (boom)")
	assert.Contains(t, out, "2 run(s): 1 approved, 0 abandoned, 1 failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "한글한글...", truncate("한글한글한글한글", 7))
}

func TestPreferProvider(t *testing.T) {
	providers := []types.ProviderConfig{
		{Name: types.ProviderGemini, Models: []string{"g"}},
		{Name: types.ProviderClaudeCLI, Models: []string{"opus"}},
	}
	got := preferProvider(providers, types.ProviderClaudeCLI)
	require.Len(t, got, 2)
	assert.Equal(t, types.ProviderClaudeCLI, got[0].Name)
	assert.Equal(t, []string{"opus"}, got[0].Models)

	got = preferProvider(providers[:1], types.ProviderClaudeCLI)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"sonnet"}, got[0].Models)
	assert.Equal(t, types.ProviderGemini, got[1].Name)
}

func TestPipelineConfigFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("review", "", "")
	cmd.Flags().Int("max-attempts", 0, "")
	cmd.Flags().Bool("persist-unapproved", false, "")
	cmd.Flags().Duration("stage-delay", 0, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--review", "agent", "--stage-delay", "0s"}))

	base := types.PipelineConfig{MaxAttempts: 3, ReviewMode: types.ReviewRules, StageDelay: 2 * time.Second}
	got := pipelineConfigFromFlags(cmd, base)
	assert.Equal(t, 3, got.MaxAttempts)
	assert.Equal(t, types.ReviewAgent, got.ReviewMode)
	assert.Equal(t, time.Duration(0), got.StageDelay)
	assert.False(t, got.PersistUnapproved)
}
