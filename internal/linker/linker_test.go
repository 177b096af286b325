package linker

import (
	"bytes"
	"strings"
	"testing"

	"qelink/internal/diag"
	"qelink/internal/image"
)

const linkSig = `
parameters:
  - name: shots
    type: int
    patch: imm32
    addresses: [4]
  - name: theta
    type: float
    patch: f64
    addresses: [16, 64]
`

func linkImage() *image.Compiled {
	return &image.Compiled{Target: "falcon-r1", Capacity: 4096, Data: make([]byte, 1024)}
}

func TestLinkHappyPath(t *testing.T) {
	linked, bag, err := Link(linkImage(), Source{Reader: strings.NewReader(linkSig)}, []Argument{
		{Name: "shots", Value: 1000},
		{Name: "theta", Value: 0.25},
	}, Options{})
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", bag.Render())
	}
	if linked.Data[4] != 0xe8 || linked.Data[5] != 0x03 {
		t.Fatalf("shots immediate not patched: % x", linked.Data[4:8])
	}
	// theta patched at both addresses identically
	if !bytes.Equal(linked.Data[16:24], linked.Data[64:72]) {
		t.Fatalf("theta addresses differ")
	}
	if linked.Consumed != 4+8+8 {
		t.Fatalf("consumed = %d, want 20", linked.Consumed)
	}
}

func TestLinkExtraArgumentMatchesCleanRun(t *testing.T) {
	clean, _, err := Link(linkImage(), Source{Reader: strings.NewReader(linkSig)}, []Argument{
		{Name: "shots", Value: 42},
		{Name: "theta", Value: 1.0},
	}, Options{})
	if err != nil {
		t.Fatalf("clean link failed: %v", err)
	}

	withExtra, bag, err := Link(linkImage(), Source{Reader: strings.NewReader(linkSig)}, []Argument{
		{Name: "shots", Value: 42},
		{Name: "theta", Value: 1.0},
		{Name: "y", Value: 99},
	}, Options{})
	if err != nil {
		t.Fatalf("link with extra argument failed: %v", err)
	}
	if !bytes.Equal(clean.Data, withExtra.Data) {
		t.Fatalf("extra argument changed the linked image")
	}
	if bag.Len() != 1 || !strings.Contains(bag.Render(), "argument not found: y") {
		t.Fatalf("expected exactly one 'argument not found: y' diagnostic, got: %s", bag.Render())
	}
}

func TestLinkMissingRequiredAbortsBeforePatch(t *testing.T) {
	img := linkImage()
	orig := append([]byte(nil), img.Data...)

	linked, _, err := Link(img, Source{Reader: strings.NewReader(linkSig)}, []Argument{
		{Name: "theta", Value: 1.0},
	}, Options{})
	if linked != nil {
		t.Fatalf("no image may be produced")
	}
	f, ok := diag.AsFailure(err)
	if !ok || f.Category != diag.CatInvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if !bytes.Equal(img.Data, orig) {
		t.Fatalf("image changed despite binding failure")
	}
}

func TestLinkFailureCarriesDiagnosticsAndRenderFlag(t *testing.T) {
	args := []Argument{
		{Name: "extra", Value: 1},
		{Name: "theta", Value: 1.0},
		// shots missing -> fatal after the extra-argument diagnostic
	}

	_, _, err := Link(linkImage(), Source{Reader: strings.NewReader(linkSig)}, args, Options{RenderDiagnostics: true})
	f, ok := diag.AsFailure(err)
	if !ok {
		t.Fatalf("expected Failure, got %v", err)
	}
	if len(f.Diagnostics) != 1 {
		t.Fatalf("failure should carry the accumulated diagnostics, got %d", len(f.Diagnostics))
	}
	text := f.Error()
	if !strings.Contains(text, "argument not found: extra") {
		t.Fatalf("rendered failure misses diagnostics: %q", text)
	}

	_, _, err = Link(linkImage(), Source{Reader: strings.NewReader(linkSig)}, args, Options{RenderDiagnostics: false})
	f, _ = diag.AsFailure(err)
	if strings.Contains(f.Error(), "argument not found") {
		t.Fatalf("render flag false must suppress diagnostics in text: %q", f.Error())
	}
}

func TestLinkSignatureNotFound(t *testing.T) {
	_, _, err := Link(linkImage(), Source{Path: "/does/not/exist.yaml"}, nil, Options{})
	f, ok := diag.AsFailure(err)
	if !ok || f.Category != diag.CatSignatureNotFound {
		t.Fatalf("expected SignatureNotFound, got %v", err)
	}
}

func TestLinkWarningsAsErrors(t *testing.T) {
	args := []Argument{
		{Name: "shots", Value: 1},
		{Name: "theta", Value: 1.0},
		{Name: "y", Value: 0},
	}
	_, _, err := Link(linkImage(), Source{Reader: strings.NewReader(linkSig)}, args, Options{WarningsAsErrors: true})
	f, ok := diag.AsFailure(err)
	if !ok || f.Category != diag.CatArgumentNotFound {
		t.Fatalf("expected promotion of ArgumentNotFound warning, got %v", err)
	}
}

func TestLinkLenientSignature(t *testing.T) {
	src := "parameters:\n" +
		"  - name: shots\n    type: int\n    patch: imm32\n    addresses: [4]\n" +
		"  - name: broken\n    type: int\n    patch: nope\n    addresses: [8]\n"

	linked, bag, err := Link(linkImage(), Source{Reader: strings.NewReader(src)}, []Argument{
		{Name: "shots", Value: 5},
	}, Options{LenientSignature: true})
	if err != nil {
		t.Fatalf("lenient link failed: %v", err)
	}
	if linked == nil {
		t.Fatalf("no image produced")
	}
	if bag.Len() != 1 || bag.Items()[0].Category != diag.CatSignatureWarning {
		t.Fatalf("expected one SignatureWarning, got: %s", bag.Render())
	}

	// strict mode refuses the same description
	_, _, err = Link(linkImage(), Source{Reader: strings.NewReader(src)}, []Argument{
		{Name: "shots", Value: 5},
	}, Options{})
	if f, ok := diag.AsFailure(err); !ok || f.Category != diag.CatSignatureError {
		t.Fatalf("expected SignatureError in strict mode, got %v", err)
	}
}
