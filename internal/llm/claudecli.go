// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pdiddy/skill-factory/pkg/types"
)

const defaultClaudeCommand = "claude"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// ClaudeCLITransport runs the claude command-line client in print mode with
// the prompt on stdin.
type ClaudeCLITransport struct {
	bin  string
	exec executor
}

// NewClaudeCLITransport returns a transport that runs bin (default "claude").
func NewClaudeCLITransport(bin string) *ClaudeCLITransport {
	if bin == "" {
		bin = defaultClaudeCommand
	}
	return &ClaudeCLITransport{bin: bin, exec: &osExecutor{}}
}

func (t *ClaudeCLITransport) Name() string { return types.ProviderClaudeCLI }

// Available reports whether the binary is on PATH.
func (t *ClaudeCLITransport) Available() bool {
	_, err := t.exec.LookPath(t.bin)
	return err == nil
}

// Generate runs one non-interactive invocation. A missing binary is
// reported as KindNotFound so the client skips every claude-cli candidate
// without retrying.
func (t *ClaudeCLITransport) Generate(ctx context.Context, model string, req types.InvocationRequest) (string, error) {
	if _, err := t.exec.LookPath(t.bin); err != nil {
		return "", &Error{Kind: KindNotFound, Provider: t.Name(), Model: model, Err: fmt.Errorf("%s not found on PATH: %w", t.bin, err)}
	}

	args := []string{"-p", "--model", model, "--output-format", "text"}
	if req.SystemPrompt != "" {
		args = append(args, "--system-prompt", req.SystemPrompt)
	}

	var stdout, stderr bytes.Buffer
	err := t.exec.RunPiped(ctx, t.bin, args, strings.NewReader(req.Prompt), &stdout, &stderr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &Error{Kind: KindTransient, Provider: t.Name(), Model: model, Err: ctxErr}
		}
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &Error{Kind: KindUnknown, Provider: t.Name(), Model: model,
				Err: fmt.Errorf("%s exited with status %d: %s", t.bin, exitErr.ExitCode(), msg)}
		}
		return "", &Error{Kind: KindUnknown, Provider: t.Name(), Model: model, Err: fmt.Errorf("running %s: %w", t.bin, err)}
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", &Error{Kind: KindEmpty, Provider: t.Name(), Model: model, Err: errors.New("empty stdout")}
	}
	return out, nil
}
