package linker

import (
	"fmt"
	"io"

	"qelink/internal/diag"
	"qelink/internal/image"
	"qelink/internal/signature"
)

// Source locates the signature description for a link invocation:
// either an in-memory reader or a file path.
type Source struct {
	Reader io.Reader
	Path   string
}

// Options controls a link invocation.
type Options struct {
	// LenientSignature skips malformed signature entries with a warning
	// instead of failing the parse. Default (false) is strict.
	LenientSignature bool

	// WarningsAsErrors promotes accumulated warnings to a fatal failure
	// once the stage that produced them completes. Scoped to the link
	// stages (signature parsing, binding, patching); backend compile
	// diagnostics are reported but never promoted.
	WarningsAsErrors bool

	// RenderDiagnostics controls whether a failure's textual form
	// carries the accumulated diagnostics after the message.
	RenderDiagnostics bool
}

// Link runs the full linking sequence against a compiled image: parse
// the signature, bind the supplied arguments, apply the patches. The
// returned bag holds every diagnostic accumulated during the
// invocation, also on failure; any fatal condition aborts the remaining
// stages and is surfaced as a single *diag.Failure.
func Link(img *image.Compiled, src Source, args []Argument, opts Options) (*image.Linked, *diag.Bag, error) {
	bag := diag.NewBag()

	sig, err := parseSource(src, opts.LenientSignature, bag)
	if err != nil {
		return nil, bag, fail(err, bag, opts)
	}
	if err := checkWarnings(bag, opts); err != nil {
		return nil, bag, err
	}

	linked, err := LinkParsed(img, sig, args, bag, opts)
	if err != nil {
		return nil, bag, err
	}
	return linked, bag, nil
}

// LinkParsed links with an already-parsed signature. The signature is
// read-only here, so one parsed signature may serve many concurrent
// invocations, each with its own bag.
func LinkParsed(img *image.Compiled, sig signature.Signature, args []Argument, bag *diag.Bag, opts Options) (*image.Linked, error) {
	bindings, err := Bind(sig, args, bag)
	if err != nil {
		return nil, fail(err, bag, opts)
	}
	if err := checkWarnings(bag, opts); err != nil {
		return nil, err
	}

	linked, err := Apply(img, bindings)
	if err != nil {
		return nil, fail(err, bag, opts)
	}
	return linked, nil
}

func parseSource(src Source, lenient bool, bag *diag.Bag) (signature.Signature, error) {
	if src.Reader != nil {
		if lenient {
			return signature.ParseLenient(src.Reader, bag)
		}
		return signature.Parse(src.Reader)
	}
	return signature.ParseFile(src.Path, lenient, bag)
}

// fail attaches the invocation's diagnostics and the render flag to a
// fatal error, wrapping non-Failure errors as uncategorized.
func fail(err error, bag *diag.Bag, opts Options) error {
	f, ok := diag.AsFailure(err)
	if !ok {
		f = diag.Fail(diag.CatUncategorized, err.Error())
	}
	return f.WithDiagnostics(bag).WithRender(opts.RenderDiagnostics)
}

func checkWarnings(bag *diag.Bag, opts Options) error {
	if !opts.WarningsAsErrors || !bag.HasWarnings() {
		return nil
	}
	first := firstWarning(bag)
	f := diag.Fail(first.Category, fmt.Sprintf("warnings treated as errors: %s", first.Message))
	return f.WithDiagnostics(bag).WithRender(opts.RenderDiagnostics)
}

func firstWarning(bag *diag.Bag) diag.Diagnostic {
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevWarning {
			return d
		}
	}
	return diag.Diagnostic{Category: diag.CatUncategorized}
}
