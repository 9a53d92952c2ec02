// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the skill-factory CLI. The CLI selects
// a topic, drafts a skill, example code and a blog post with LLM providers,
// reviews the drafts with bounded retries, and publishes approved results.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/skill-factory/internal/config"
	"github.com/pdiddy/skill-factory/internal/logging"
	"github.com/pdiddy/skill-factory/internal/secrets"
	"github.com/pdiddy/skill-factory/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// exitUnapproved is the status for runs or checks that ended without approval.
const exitUnapproved = 2

// errUnapproved marks a command that completed but did not approve its input.
var errUnapproved = errors.New("not approved")

var (
	appCfg   types.Config
	logger   = zap.NewNop()
	closeLog = func() error { return nil }
)

// rootCmd is the base command for the skill-factory CLI.
var rootCmd = &cobra.Command{
	Use:   "skill-factory",
	Short: "Generate reviewed Claude skills and blog posts with LLM providers",
	Long: `skill-factory drafts a Claude skill (SKILL.md), a runnable example and a
blog post for one topic per run. Drafts are reviewed by a rule-based validator
or a reviewer model; rejected drafts are regenerated with the review feedback
until they pass or the attempt budget is spent.

Providers are tried in configured order (Gemini, Anthropic, OpenAI, the local
claude CLI). API keys are read from .secrets/ or the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		log, closeFn, err := logging.New(cfg.Logging, os.Stderr)
		if err != nil {
			return err
		}
		logger, closeLog = log, closeFn

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		secrets.ApplyProviderKeys(cfg.LLM.Providers, s, os.Getenv)

		appCfg = cfg
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./skill-factory.yaml or ~/.config/skill-factory/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of API key files")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("skill-factory")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "skill-factory"))
		}
	}

	viper.SetEnvPrefix("SKILL_FACTORY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	err := rootCmd.Execute()
	_ = closeLog()
	switch {
	case err == nil:
	case errors.Is(err, errUnapproved):
		os.Exit(exitUnapproved)
	default:
		os.Exit(1)
	}
}
