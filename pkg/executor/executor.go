// Package executor runs external binaries such as ffmpeg.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type implExecutor struct {
	dir string
}

// Option configures an Executor.
type Option func(*implExecutor)

// WithDir runs commands in dir.
func WithDir(dir string) Option {
	return func(e *implExecutor) { e.dir = dir }
}

// New creates an Executor.
func New(opts ...Option) Executor {
	e := &implExecutor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs name with args and returns stdout. Stderr is folded into
// the error on failure.
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLines(stderr.String(), 5); msg != "" {
			return "", fmt.Errorf("command %q failed: %w\nstderr: %s", name, err, msg)
		}
		return "", fmt.Errorf("command %q failed: %w", name, err)
	}
	return stdout.String(), nil
}

// lastLines keeps the tail of noisy tool output such as ffmpeg's banner.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
