// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool
	runPipedFunc  func(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error

	lastArgs  []string
	lastStdin string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	m.lastArgs = args
	data, _ := io.ReadAll(stdin)
	m.lastStdin = string(data)
	if m.runPipedFunc != nil {
		return m.runPipedFunc(ctx, name, args, strings.NewReader(m.lastStdin), stdout, stderr)
	}
	return nil
}

func TestClaudeCLIGenerate(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		req      types.InvocationRequest
		wantText string
		wantKind Kind
		wantArgs string
	}{
		{
			name: "prints stdout",
			exec: &mockExecutor{
				availableBins: map[string]bool{"claude": true},
				runPipedFunc: func(_ context.Context, _ string, _ []string, _ io.Reader, stdout, _ io.Writer) error {
					_, err := io.WriteString(stdout, "  generated text\n")
					return err
				},
			},
			req:      types.InvocationRequest{Prompt: "hello"},
			wantText: "generated text",
			wantArgs: "-p --model sonnet --output-format text",
		},
		{
			name: "passes system prompt",
			exec: &mockExecutor{
				availableBins: map[string]bool{"claude": true},
				runPipedFunc: func(_ context.Context, _ string, _ []string, _ io.Reader, stdout, _ io.Writer) error {
					_, err := io.WriteString(stdout, "ok")
					return err
				},
			},
			req:      types.InvocationRequest{Prompt: "hello", SystemPrompt: "be brief"},
			wantText: "ok",
			wantArgs: "-p --model sonnet --output-format text --system-prompt be brief",
		},
		{
			name:     "missing binary is not found",
			exec:     &mockExecutor{availableBins: map[string]bool{}},
			req:      types.InvocationRequest{Prompt: "hello"},
			wantKind: KindNotFound,
		},
		{
			name: "empty stdout",
			exec: &mockExecutor{
				availableBins: map[string]bool{"claude": true},
			},
			req:      types.InvocationRequest{Prompt: "hello"},
			wantKind: KindEmpty,
		},
		{
			name: "command failure is unknown",
			exec: &mockExecutor{
				availableBins: map[string]bool{"claude": true},
				runPipedFunc: func(_ context.Context, _ string, _ []string, _ io.Reader, _, stderr io.Writer) error {
					io.WriteString(stderr, "auth failed")
					return errors.New("exit status 1")
				},
			},
			req:      types.InvocationRequest{Prompt: "hello"},
			wantKind: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewClaudeCLITransport("")
			tr.exec = tt.exec

			text, err := tr.Generate(context.Background(), "sonnet", tt.req)
			if tt.wantText != "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if text != tt.wantText {
					t.Errorf("text = %q, want %q", text, tt.wantText)
				}
				if got := strings.Join(tt.exec.lastArgs, " "); got != tt.wantArgs {
					t.Errorf("args = %q, want %q", got, tt.wantArgs)
				}
				if tt.exec.lastStdin != tt.req.Prompt {
					t.Errorf("stdin = %q, want prompt", tt.exec.lastStdin)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %v, want %v", got, tt.wantKind)
			}
		})
	}
}

func TestClaudeCLICancelledIsTransient(t *testing.T) {
	tr := NewClaudeCLITransport("claude")
	tr.exec = &mockExecutor{
		availableBins: map[string]bool{"claude": true},
		runPipedFunc: func(ctx context.Context, _ string, _ []string, _ io.Reader, _, _ io.Writer) error {
			<-ctx.Done()
			return errors.New("signal: killed")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Generate(ctx, "sonnet", types.InvocationRequest{Prompt: "x"})
	if KindOf(err) != KindTransient {
		t.Errorf("kind = %v, want transient", KindOf(err))
	}
}

func TestClaudeCLIAvailable(t *testing.T) {
	tr := NewClaudeCLITransport("claude")
	tr.exec = &mockExecutor{availableBins: map[string]bool{"claude": true}}
	if !tr.Available() {
		t.Error("expected available")
	}
	tr.exec = &mockExecutor{}
	if tr.Available() {
		t.Error("expected unavailable")
	}
}
