package backend

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"qelink/internal/diag"
	"qelink/internal/image"
)

func requireUnixShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("backend scripts require a POSIX shell")
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-backend.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestProcessNoInput(t *testing.T) {
	p := &Process{Command: "unused"}
	_, _, err := p.Invoke(context.Background(), Request{Sequence: []byte("   \n")})
	if f, ok := diag.AsFailure(err); !ok || f.Category != diag.CatNoInput {
		t.Fatalf("expected NoInput, got %v", err)
	}
}

func TestProcessSequenceTooLong(t *testing.T) {
	p := &Process{Command: "unused", MaxSequenceLen: 8}
	_, _, err := p.Invoke(context.Background(), Request{Sequence: []byte("0123456789")})
	f, ok := diag.AsFailure(err)
	if !ok || f.Category != diag.CatSequenceTooLong {
		t.Fatalf("expected SequenceTooLong, got %v", err)
	}
	if !strings.Contains(f.Message, "10") {
		t.Fatalf("message should carry the sequence length: %q", f.Message)
	}
}

func TestProcessSpawnFailure(t *testing.T) {
	p := &Process{Command: "/does/not/exist/backend"}
	_, _, err := p.Invoke(context.Background(), Request{Sequence: []byte("seq")})
	if f, ok := diag.AsFailure(err); !ok || f.Category != diag.CatCommunicationFailure {
		t.Fatalf("expected CommunicationFailure, got %v", err)
	}
}

func TestProcessNonZeroStatus(t *testing.T) {
	requireUnixShell(t)
	script := writeScript(t, "echo 'error: bad sequence' >&2\nexit 3\n")
	p := &Process{Command: script}

	_, diags, err := p.Invoke(context.Background(), Request{Sequence: []byte("seq")})
	f, ok := diag.AsFailure(err)
	if !ok || f.Category != diag.CatNonZeroStatus {
		t.Fatalf("expected NonZeroStatus, got %v", err)
	}
	if !strings.Contains(f.Message, "3") {
		t.Fatalf("exit code missing from message: %q", f.Message)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SevError || diags[0].Message != "bad sequence" {
		t.Fatalf("stderr diagnostics not captured: %+v", diags)
	}
}

func TestProcessEmptyOutputIsEOF(t *testing.T) {
	requireUnixShell(t)
	script := writeScript(t, "cat > /dev/null\nexit 0\n")
	p := &Process{Command: script}

	_, _, err := p.Invoke(context.Background(), Request{Sequence: []byte("seq")})
	if f, ok := diag.AsFailure(err); !ok || f.Category != diag.CatEOFFailure {
		t.Fatalf("expected EOFFailure, got %v", err)
	}
}

func TestProcessGarbageOutputIsCompilationFailure(t *testing.T) {
	requireUnixShell(t)
	script := writeScript(t, "cat > /dev/null\nprintf 'not a container'\n")
	p := &Process{Command: script}

	_, _, err := p.Invoke(context.Background(), Request{Sequence: []byte("seq")})
	f, ok := diag.AsFailure(err)
	if !ok {
		t.Fatalf("expected Failure, got %v", err)
	}
	if f.Category != diag.CatCompilationFailure && f.Category != diag.CatEOFFailure {
		t.Fatalf("expected CompilationFailure or EOFFailure, got %v", f.Category)
	}
}

func TestProcessDeliversImage(t *testing.T) {
	requireUnixShell(t)
	fixture := filepath.Join(t.TempDir(), "out.qei")
	want := &image.Compiled{Target: "falcon-r1", Capacity: 4096, Data: []byte{1, 2, 3, 4}}
	if err := image.WriteCompiledFile(fixture, want); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	script := writeScript(t, "cat > /dev/null\ncat '"+fixture+"'\necho 'warning: unstable schedule' >&2\n")
	p := &Process{Command: script}

	got, diags, err := p.Invoke(context.Background(), Request{Sequence: []byte("seq"), Target: "falcon-r1"})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if got.Target != "falcon-r1" || got.Capacity != 4096 || len(got.Data) != 4 {
		t.Fatalf("image mismatch: %+v", got)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SevWarning {
		t.Fatalf("warning diagnostic not captured: %+v", diags)
	}
}

func TestProcessContextCancellation(t *testing.T) {
	requireUnixShell(t)
	script := writeScript(t, "sleep 30\n")
	p := &Process{Command: script}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := p.Invoke(ctx, Request{Sequence: []byte("seq")})
	if f, ok := diag.AsFailure(err); !ok || f.Category != diag.CatCommunicationFailure {
		t.Fatalf("expected CommunicationFailure on timeout, got %v", err)
	}
}

func TestScriptedQueue(t *testing.T) {
	img := &image.Compiled{Data: []byte{1}}
	s := NewScripted(
		ScriptedResult{Image: img},
		ScriptedResult{Err: diag.Fail(diag.CatCompilationFailure, "bad circuit")},
	)

	got, _, err := s.Invoke(context.Background(), Request{Sequence: []byte("a")})
	if err != nil || got != img {
		t.Fatalf("first scripted result wrong: %v %v", got, err)
	}
	_, _, err = s.Invoke(context.Background(), Request{Sequence: []byte("b")})
	if diag.CategoryOf(err) != diag.CatCompilationFailure {
		t.Fatalf("second scripted result wrong: %v", err)
	}
	_, _, err = s.Invoke(context.Background(), Request{Sequence: []byte("c")})
	if diag.CategoryOf(err) != diag.CatCommunicationFailure {
		t.Fatalf("exhausted scripted backend should fail: %v", err)
	}
	if s.Calls() != 3 {
		t.Fatalf("calls = %d", s.Calls())
	}
}
