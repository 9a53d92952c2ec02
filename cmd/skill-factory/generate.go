// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/skill-factory/internal/config"
	"github.com/pdiddy/skill-factory/internal/llm"
	"github.com/pdiddy/skill-factory/internal/pipeline"
	"github.com/pdiddy/skill-factory/internal/sources"
	"github.com/pdiddy/skill-factory/internal/store"
	"github.com/pdiddy/skill-factory/internal/validate"
	"github.com/pdiddy/skill-factory/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one generation: topic, skill, example code, blog post",
	Long: `Generate selects a topic (or uses --topic), drafts SKILL.md, an example
script and a blog post, and reviews the drafts. Rejected drafts are
regenerated with the review feedback until they pass or --max-attempts is
reached.

Approved runs are written to the skills and posts directories and the skill
registry is re-exported. Every run is recorded in the run database.

Exit status is 0 when approved, 2 when the attempt budget ran out without
approval, and 1 on errors.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pcfg := pipelineConfigFromFlags(cmd, appCfg.Pipeline)
	checked := appCfg
	checked.Pipeline = pcfg
	if err := config.Validate(checked); err != nil {
		return err
	}
	llmCfg := appCfg.LLM
	if useCLI, _ := cmd.Flags().GetBool("claude-cli"); useCLI {
		llmCfg.Providers = preferProvider(llmCfg.Providers, types.ProviderClaudeCLI)
	}

	client, err := llm.NewFromConfig(ctx, llmCfg, logger)
	if err != nil {
		return err
	}

	st, err := store.Open(appCfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	src, err := sources.New(appCfg.Sources, logger).Load(ctx)
	if err != nil {
		logger.Warn("topic sources unavailable", zap.Error(err))
		src = types.TopicSources{}
	}

	prompts, err := pipeline.LoadPrompts(pcfg.PromptsDir)
	if err != nil {
		return err
	}
	v, err := validate.New(appCfg.Validation)
	if err != nil {
		return err
	}

	orch, err := pipeline.New(client, pcfg, pipeline.Deps{
		Prompts:   prompts,
		Validator: v,
		Persister: st,
		Sources:   src,
		Progress:  os.Stderr,
	}, logger)
	if err != nil {
		return err
	}

	topic, _ := cmd.Flags().GetString("topic")
	strategy, _ := cmd.Flags().GetString("strategy")
	skip, _ := cmd.Flags().GetBool("skip-validation")

	out, runErr := orch.Run(ctx, pipeline.RunRequest{
		Topic:          topic,
		Strategy:       strategy,
		SkipValidation: skip,
	})

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := printOutcome(os.Stdout, out, jsonOutput); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if !out.Approved {
		printUnapproved(os.Stderr, out)
		return fmt.Errorf("run %s abandoned after %d attempt(s): %w", out.RunID, out.Attempts, errUnapproved)
	}
	return nil
}

// pipelineConfigFromFlags overrides cfg with flags set on the command line.
func pipelineConfigFromFlags(cmd *cobra.Command, cfg types.PipelineConfig) types.PipelineConfig {
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts, _ = cmd.Flags().GetInt("max-attempts")
	}
	if cmd.Flags().Changed("review") {
		mode, _ := cmd.Flags().GetString("review")
		cfg.ReviewMode = types.ReviewMode(mode)
	}
	if cmd.Flags().Changed("persist-unapproved") {
		cfg.PersistUnapproved, _ = cmd.Flags().GetBool("persist-unapproved")
	}
	if cmd.Flags().Changed("stage-delay") {
		cfg.StageDelay, _ = cmd.Flags().GetDuration("stage-delay")
	}
	return cfg
}

// preferProvider moves the named provider to the front, adding it with
// default models when it is not configured.
func preferProvider(providers []types.ProviderConfig, name string) []types.ProviderConfig {
	out := make([]types.ProviderConfig, 0, len(providers)+1)
	var rest []types.ProviderConfig
	for _, p := range providers {
		if p.Name == name {
			out = append(out, p)
			continue
		}
		rest = append(rest, p)
	}
	if len(out) == 0 {
		out = append(out, types.ProviderConfig{Name: name, Models: []string{"sonnet"}})
	}
	return append(out, rest...)
}

func init() {
	generateCmd.Flags().String("topic", "", "generate this topic instead of selecting one")
	generateCmd.Flags().String("strategy", "", "topic strategy: auto, keyword, trend, request, extend (default from config)")
	generateCmd.Flags().Bool("skip-validation", false, "approve the first draft without review")
	generateCmd.Flags().String("review", "", "review mode: rules or agent (default from config)")
	generateCmd.Flags().Int("max-attempts", 0, "drafting attempts before abandoning (default from config)")
	generateCmd.Flags().Bool("persist-unapproved", false, "write artifacts of abandoned runs too")
	generateCmd.Flags().Duration("stage-delay", 0, "minimum pause between LLM stages (default from config)")
	generateCmd.Flags().Bool("claude-cli", false, "try the local claude CLI before API providers")
	generateCmd.Flags().Bool("json", false, "print the run outcome as JSON")

	rootCmd.AddCommand(generateCmd)
}
