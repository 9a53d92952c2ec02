// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources loads the optional topic inputs used by topic selection:
// a trending topics document and a queue of user requests. Each input is a
// local file or an http(s) URL holding JSON or YAML.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/skill-factory/internal/httputil"
	"github.com/pdiddy/skill-factory/pkg/types"
)

// maxBody caps a fetched source document.
const maxBody = 4 << 20

// Loader fetches topic sources.
type Loader struct {
	cfg    types.SourcesConfig
	client *http.Client
	log    *zap.Logger
}

// New returns a Loader for cfg.
func New(cfg types.SourcesConfig, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{cfg: cfg, client: httputil.NewClient(cfg.HTTPConfig), log: log}
}

// Load reads the configured sources. Unset locations and missing local
// files are skipped. A request queue may be a bare list or an object with
// a "queue" (or "requests") list.
func (l *Loader) Load(ctx context.Context) (types.TopicSources, error) {
	var out types.TopicSources

	data, err := l.read(ctx, l.cfg.Trending)
	if err != nil {
		return out, fmt.Errorf("loading trending topics: %w", err)
	}
	if data != nil {
		if err := yaml.Unmarshal(data, &out.Trending); err != nil {
			return out, fmt.Errorf("parsing trending topics %s: %w", l.cfg.Trending, err)
		}
	}

	data, err = l.read(ctx, l.cfg.Requests)
	if err != nil {
		return out, fmt.Errorf("loading requests: %w", err)
	}
	if data != nil {
		reqs, err := parseRequests(data)
		if err != nil {
			return out, fmt.Errorf("parsing requests %s: %w", l.cfg.Requests, err)
		}
		out.Requests = reqs
	}

	l.log.Debug("topic sources loaded",
		zap.Int("trending", len(out.Trending)),
		zap.Int("requests", len(out.Requests)))
	return out, nil
}

func (l *Loader) read(ctx context.Context, loc string) ([]byte, error) {
	if loc == "" {
		return nil, nil
	}
	if isURL(loc) {
		return l.fetch(ctx, loc)
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		if os.IsNotExist(err) {
			l.log.Debug("topic source missing", zap.String("path", loc))
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := httputil.DoWithRetry(ctx, l.client, req, 0, l.log)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func parseRequests(data []byte) ([]types.TopicRequest, error) {
	var list []types.TopicRequest
	if err := yaml.Unmarshal(data, &list); err == nil {
		return dropBlank(list), nil
	}
	var wrapped struct {
		Queue    []types.TopicRequest `yaml:"queue"`
		Requests []types.TopicRequest `yaml:"requests"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return dropBlank(append(wrapped.Queue, wrapped.Requests...)), nil
}

func dropBlank(reqs []types.TopicRequest) []types.TopicRequest {
	out := reqs[:0]
	for _, r := range reqs {
		if strings.TrimSpace(r.Topic) != "" {
			out = append(out, r)
		}
	}
	return out
}
