package diag

import (
	"errors"
	"strings"
)

// Failure is the single aggregated error every fatal pipeline condition
// surfaces as. It carries a human-readable message, the ordered
// diagnostics accumulated up to the failure point, and a flag that
// controls whether those diagnostics are appended to the textual form.
type Failure struct {
	Category    Category
	Severity    Severity
	Message     string
	Diagnostics []Diagnostic

	// RenderDiagnostics selects the textual contract: when false,
	// Error() is Message alone; when true, Message followed by every
	// diagnostic joined with newlines.
	RenderDiagnostics bool

	// Partial optionally carries a partially-patched buffer for
	// inspection. Callers must treat it as invalid output.
	Partial []byte
}

// Fail constructs a fatal Failure for the given category.
func Fail(cat Category, msg string) *Failure {
	return &Failure{Category: cat, Severity: SevFatal, Message: msg}
}

// WithDiagnostics attaches the bag's diagnostics (shared slice, bag
// ownership ends here) and returns the failure.
func (f *Failure) WithDiagnostics(bag *Bag) *Failure {
	f.Diagnostics = bag.Items()
	return f
}

// WithRender sets the render flag and returns the failure.
func (f *Failure) WithRender(render bool) *Failure {
	f.RenderDiagnostics = render
	return f
}

// Error implements the error text contract: either the message alone,
// or the message followed by a newline and all diagnostic messages
// joined by newlines.
func (f *Failure) Error() string {
	if !f.RenderDiagnostics || len(f.Diagnostics) == 0 {
		return f.Message
	}
	parts := make([]string, 0, len(f.Diagnostics)+1)
	parts = append(parts, f.Message)
	for _, d := range f.Diagnostics {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "\n")
}

// Diagnostic converts the failure itself into a diagnostic value.
func (f *Failure) Diagnostic(stage Stage) Diagnostic {
	return Diagnostic{
		Severity: f.Severity,
		Category: f.Category,
		Stage:    stage,
		Message:  f.Message,
	}
}

// AsFailure unwraps err into a *Failure if one is in the chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// CategoryOf reports the failure category of err, or CatUncategorized
// when err is not a Failure.
func CategoryOf(err error) Category {
	if f, ok := AsFailure(err); ok {
		return f.Category
	}
	return CatUncategorized
}
