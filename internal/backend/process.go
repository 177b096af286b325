package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"qelink/internal/diag"
	"qelink/internal/image"
)

// Process invokes the backend as an external command: the sequence is
// written to its stdin, the compiled image container is read from its
// stdout, and diagnostics arrive one per stderr line.
type Process struct {
	Command string
	Args    []string

	// MaxSequenceLen rejects over-long sequences before spawning the
	// backend; 0 disables the check.
	MaxSequenceLen int
}

// Invoke runs the backend once. Failure categories follow the upstream
// contract: NoInput, SequenceTooLong, CommunicationFailure, EOFFailure,
// NonZeroStatus, CompilationFailure.
func (p *Process) Invoke(ctx context.Context, req Request) (*image.Compiled, []diag.Diagnostic, error) {
	if len(bytes.TrimSpace(req.Sequence)) == 0 {
		return nil, nil, diag.Fail(diag.CatNoInput, "no input sequence provided")
	}
	if p.MaxSequenceLen > 0 && len(req.Sequence) > p.MaxSequenceLen {
		return nil, nil, diag.Fail(diag.CatSequenceTooLong, fmt.Sprintf(
			"sequence is %d bytes, backend limit is %d", len(req.Sequence), p.MaxSequenceLen))
	}

	args := append([]string(nil), p.Args...)
	if req.Target != "" {
		args = append(args, "--target="+req.Target)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Command, args...)
	cmd.Stdin = bytes.NewReader(req.Sequence)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	diags := parseDiagnostics(stderr.String())

	if runErr != nil {
		if ctx.Err() != nil {
			return nil, diags, diag.Fail(diag.CatCommunicationFailure, fmt.Sprintf(
				"backend %q interrupted: %v", p.Command, ctx.Err()))
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, diags, diag.Fail(diag.CatNonZeroStatus, fmt.Sprintf(
				"backend %q exited with status %d", p.Command, exitErr.ExitCode()))
		}
		return nil, diags, diag.Fail(diag.CatCommunicationFailure, fmt.Sprintf(
			"failed to run backend %q: %v", p.Command, runErr))
	}

	if stdout.Len() == 0 {
		return nil, diags, diag.Fail(diag.CatEOFFailure, fmt.Sprintf(
			"backend %q produced no output", p.Command))
	}
	img, err := image.DecodeCompiled(&stdout)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, diags, diag.Fail(diag.CatEOFFailure, fmt.Sprintf(
				"unexpected end of backend output: %v", err))
		}
		return nil, diags, diag.Fail(diag.CatCompilationFailure, fmt.Sprintf(
			"cannot decode backend output: %v", err))
	}

	return img, diags, nil
}

// parseDiagnostics maps stderr lines to diagnostics. Lines may carry an
// "error:", "warning:" or "info:" prefix; anything else is Info.
func parseDiagnostics(stderr string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sev := diag.SevInfo
		switch {
		case strings.HasPrefix(line, "error:"):
			sev = diag.SevError
			line = strings.TrimSpace(strings.TrimPrefix(line, "error:"))
		case strings.HasPrefix(line, "warning:"):
			sev = diag.SevWarning
			line = strings.TrimSpace(strings.TrimPrefix(line, "warning:"))
		case strings.HasPrefix(line, "info:"):
			line = strings.TrimSpace(strings.TrimPrefix(line, "info:"))
		}
		out = append(out, diag.New(sev, diag.CatUncategorized, diag.StageCompile, line))
	}
	return out
}
