// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/skill-factory/internal/httputil"
	"github.com/pdiddy/skill-factory/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Files(t *testing.T) {
	dir := t.TempDir()
	trending := writeFile(t, dir, "trending_topics.json",
		`{"github": ["agents", "mcp"], "hackernews": {"top": "rag"}}`)

	tests := []struct {
		name     string
		requests string
		want     []types.TopicRequest
	}{
		{
			name:     "queue object",
			requests: `{"queue": [{"topic": "Jira triage", "category_hint": "workflow"}, {"topic": " "}]}`,
			want:     []types.TopicRequest{{Topic: "Jira triage", CategoryHint: "workflow"}},
		},
		{
			name:     "bare list",
			requests: `[{"topic": "PDF summary", "priority": "high"}]`,
			want:     []types.TopicRequest{{Topic: "PDF summary", Priority: "high"}},
		},
		{
			name:     "yaml requests key",
			requests: "requests:\n  - topic: Slack digest\n",
			want:     []types.TopicRequest{{Topic: "Slack digest"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqPath := writeFile(t, t.TempDir(), "user_requests.json", tt.requests)
			l := New(types.SourcesConfig{Trending: trending, Requests: reqPath}, nil)

			got, err := l.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Requests)
			assert.Len(t, got.Trending, 2)
			assert.Equal(t, []any{"agents", "mcp"}, got.Trending["github"])
		})
	}
}

func TestLoad_MissingAndUnset(t *testing.T) {
	l := New(types.SourcesConfig{Trending: filepath.Join(t.TempDir(), "nope.json")}, nil)
	got, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Trending)
	assert.Empty(t, got.Requests)
}

func TestLoad_Malformed(t *testing.T) {
	p := writeFile(t, t.TempDir(), "trending.json", `{"github": [`)
	_, err := New(types.SourcesConfig{Trending: p}, nil).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing trending topics")
}

func TestLoad_URL(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Path {
		case "/trending":
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			assert.Equal(t, "skill-factory/test", r.Header.Get("User-Agent"))
			w.Write([]byte(`{"reddit": ["claude skills"]}`))
		case "/requests":
			w.Write([]byte(`{"queue": [{"topic": "Notion sync"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	cfg := types.SourcesConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "skill-factory/test"},
		Trending:   ts.URL + "/trending",
		Requests:   ts.URL + "/requests",
	}
	got, err := New(cfg, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{"claude skills"}, got.Trending["reddit"])
	assert.Equal(t, []types.TopicRequest{{Topic: "Notion sync"}}, got.Requests)
	assert.Equal(t, 3, calls)
}

func TestLoad_URLStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := New(types.SourcesConfig{Requests: ts.URL + "/missing"}, nil).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
