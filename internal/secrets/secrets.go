// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider API keys from a directory of plain-text
// files, falling back to environment variables. Each file in the directory
// is one secret: the filename is the key name and the trimmed contents are
// the value. A file may list several keys, one per line or comma
// separated; extra keys are rotated in when a provider rate-limits.
//
// Supported key files: gemini-api-key, anthropic-api-key, openai-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// providerKeys maps a provider name to its secret file and environment
// variable. claude-cli authenticates itself and has no entry.
var providerKeys = map[string]struct {
	file string
	env  string
}{
	types.ProviderGemini:    {file: "gemini-api-key", env: "GEMINI_API_KEY"},
	types.ProviderAnthropic: {file: "anthropic-api-key", env: "ANTHROPIC_API_KEY"},
	types.ProviderOpenAI:    {file: "openai-api-key", env: "OPENAI_API_KEY"},
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings and skipped.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// SplitKeys splits a key list on newlines and commas, dropping blanks.
func SplitKeys(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		if k := strings.TrimSpace(f); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ApplyProviderKeys fills APIKeys of every provider that has none
// configured. Secret files take precedence over environment variables.
// getenv is os.Getenv outside tests.
func ApplyProviderKeys(providers []types.ProviderConfig, loaded map[string]string, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	for i := range providers {
		p := &providers[i]
		if len(p.APIKeys) > 0 {
			continue
		}
		src, ok := providerKeys[p.Name]
		if !ok {
			continue
		}
		if v := loaded[src.file]; v != "" {
			p.APIKeys = SplitKeys(v)
			continue
		}
		p.APIKeys = SplitKeys(getenv(src.env))
	}
}
