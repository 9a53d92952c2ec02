// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/skill-factory/internal/store"
	"github.com/pdiddy/skill-factory/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate [slug]",
	Short: "Validate published or local artifacts without calling a model",
	Long: `Validate runs the rule-based validator on artifacts already on disk.
Pass a skill slug to check skills/<slug>/ and its newest post, or point at
files directly with --skill, --code and --post.

Exit status is 2 when the artifacts are rejected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	var paths store.ArtifactPaths
	paths.Skill, _ = cmd.Flags().GetString("skill")
	paths.Code, _ = cmd.Flags().GetString("code")
	paths.Post, _ = cmd.Flags().GetString("post")

	if len(args) == 1 {
		if paths != (store.ArtifactPaths{}) {
			return fmt.Errorf("give a slug or --skill/--code/--post, not both")
		}
		st, err := store.Open(appCfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if paths, err = st.Locate(args[0]); err != nil {
			return err
		}
	}
	if paths == (store.ArtifactPaths{}) {
		return fmt.Errorf("nothing to validate: give a slug or --skill/--code/--post")
	}

	a, err := store.ReadArtifacts(paths)
	if err != nil {
		return err
	}
	v, err := validate.New(appCfg.Validation)
	if err != nil {
		return err
	}

	res := v.Validate(a)
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := printValidation(os.Stdout, res, jsonOutput); err != nil {
		return err
	}
	if !res.Approved {
		return fmt.Errorf("%d validation error(s): %w", len(res.Errors), errUnapproved)
	}
	return nil
}

func init() {
	validateCmd.Flags().String("skill", "", "path to a SKILL.md file")
	validateCmd.Flags().String("code", "", "path to an example script")
	validateCmd.Flags().String("post", "", "path to a blog post")
	validateCmd.Flags().Bool("json", false, "print the result as JSON")

	rootCmd.AddCommand(validateCmd)
}
