package diag

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailureTextContract(t *testing.T) {
	d1 := New(SevWarning, CatArgumentNotFound, StageBind, "D1")
	d2 := New(SevError, CatAddressError, StagePatch, "D2")

	f := Fail(CatAddressError, "M")
	f.Diagnostics = []Diagnostic{d1, d2}

	f.RenderDiagnostics = false
	if got := f.Error(); got != "M" {
		t.Fatalf("render=false: got %q, want %q", got, "M")
	}

	f.RenderDiagnostics = true
	want := "M\n" + d1.String() + "\n" + d2.String()
	if got := f.Error(); got != want {
		t.Fatalf("render=true:\n got %q\nwant %q", got, want)
	}
}

func TestFailureRenderWithEmptyDiagnostics(t *testing.T) {
	f := Fail(CatNoInput, "nothing to compile").WithRender(true)
	if got := f.Error(); got != "nothing to compile" {
		t.Fatalf("got %q", got)
	}
}

func TestFailureWithDiagnosticsTakesBagItems(t *testing.T) {
	bag := NewBag()
	bag.Add(New(SevWarning, CatSignatureWarning, StageSignature, "entry 2 skipped"))
	f := Fail(CatSignatureError, "bad signature").WithDiagnostics(bag).WithRender(true)
	if len(f.Diagnostics) != 1 {
		t.Fatalf("diagnostics not attached")
	}
}

func TestAsFailureUnwrapsChains(t *testing.T) {
	inner := Fail(CatNonZeroStatus, "backend exited 3")
	wrapped := fmt.Errorf("compile step: %w", inner)

	f, ok := AsFailure(wrapped)
	if !ok || f.Category != CatNonZeroStatus {
		t.Fatalf("failed to unwrap failure from chain")
	}
	if CategoryOf(wrapped) != CatNonZeroStatus {
		t.Fatalf("CategoryOf mismatch")
	}
	if CategoryOf(errors.New("plain")) != CatUncategorized {
		t.Fatalf("plain errors should be uncategorized")
	}
}

func TestFailureIsFatalByConstruction(t *testing.T) {
	f := Fail(CatEOFFailure, "eof")
	if f.Severity != SevFatal {
		t.Fatalf("Fail should produce fatal severity, got %v", f.Severity)
	}
	d := f.Diagnostic(StageCompile)
	if d.Category != CatEOFFailure || d.Stage != StageCompile {
		t.Fatalf("diagnostic conversion wrong: %+v", d)
	}
}
