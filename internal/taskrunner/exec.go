package taskrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// ExecRunner realizes the TaskRunner boundary by shelling out to an
// external per-kind binary and interpreting its exit code: 0 means
// completed, a positive N means rate-limited (retry in N minutes),
// anything else means failed. It never gathers or enriches data
// itself — that logic lives in the external binary named by BinaryFor.
type ExecRunner struct {
	// BinaryFor resolves an IntentionKind to the executable that
	// performs the gathering/enrichment for it.
	BinaryFor func(kind string) (string, error)

	// CloneRoot is passed to the binary as GIT_CLONE_ROOT so Git-backed
	// kinds have a stable place to check out repositories.
	CloneRoot string

	// ElasticsearchURL and LogDir are passed through unchanged; the
	// scheduler never inspects them (spec's environment contract).
	ElasticsearchURL string
	LogDir           string

	// Timeout bounds a single invocation. Zero means no timeout beyond ctx.
	Timeout time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, in Input) Result {
	bin, err := r.BinaryFor(string(in.Kind))
	if err != nil {
		return Result{Outcome: Failed, Err: fmt.Errorf("resolve runner binary: %w", err)}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if r.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, bin, string(in.Kind), in.Target)
	cmd.Env = append(cmd.Environ(),
		"GIT_CLONE_ROOT="+r.CloneRoot,
		"ELASTICSEARCH_URL="+r.ElasticsearchURL,
		"LOG_DIR="+filepath.Clean(r.LogDir),
	)
	if in.TokenSecret != "" {
		cmd.Env = append(cmd.Env, "TASKRUNNER_TOKEN="+in.TokenSecret)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return Result{Outcome: Completed}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code > 0 {
			return Result{Outcome: Suspended, RetryAfterMinutes: code}
		}
		return Result{Outcome: Failed, Err: fmt.Errorf("runner exited %d: %s", code, stderr.String())}
	}
	return Result{Outcome: Failed, Err: fmt.Errorf("run %s: %w (%s)", bin, err, stderr.String())}
}

// BinaryName is the default BinaryFor: it looks for a binary literally
// named after the intention kind (e.g. "git_raw") on PATH.
func BinaryName(kind string) (string, error) {
	path, err := exec.LookPath(kind)
	if err != nil {
		return "", fmt.Errorf("no runner binary for kind %q: %w", kind, err)
	}
	return path, nil
}
