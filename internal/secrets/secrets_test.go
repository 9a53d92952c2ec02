// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/skill-factory/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "gemini-api-key", "  g1,g2  \n")
				writeFile(t, dir, "anthropic-api-key", "sk-ant-xyz")
				writeFile(t, dir, "openai-api-key", "sk-oa\n")
				return dir
			},
			want: map[string]string{
				"gemini-api-key":    "g1,g2",
				"anthropic-api-key": "sk-ant-xyz",
				"openai-api-key":    "sk-oa",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{"anthropic-api-key": "valid-key"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "gemini-api-key", "g_real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{"gemini-api-key": "g_real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestSplitKeys(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"one", []string{"one"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{"a\nb\r\n\n c ", []string{"a", "b", "c"}},
		{",,", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitKeys(tt.in))
		})
	}
}

func TestApplyProviderKeys(t *testing.T) {
	providers := []types.ProviderConfig{
		{Name: types.ProviderGemini},
		{Name: types.ProviderAnthropic},
		{Name: types.ProviderOpenAI, APIKeys: []string{"configured"}},
		{Name: types.ProviderClaudeCLI},
	}
	loaded := map[string]string{"gemini-api-key": "g1\ng2"}
	env := map[string]string{
		"GEMINI_API_KEY":    "ignored",
		"ANTHROPIC_API_KEY": "ant-env",
		"OPENAI_API_KEY":    "ignored",
	}

	ApplyProviderKeys(providers, loaded, func(k string) string { return env[k] })

	assert.Equal(t, []string{"g1", "g2"}, providers[0].APIKeys)
	assert.Equal(t, []string{"ant-env"}, providers[1].APIKeys)
	assert.Equal(t, []string{"configured"}, providers[2].APIKeys)
	assert.Empty(t, providers[3].APIKeys)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
