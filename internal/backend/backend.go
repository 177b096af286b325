// Package backend defines the boundary to the external native compiler
// that turns control sequences into compiled images. The linker core
// only ever talks to the Invoker interface; failures crossing the
// boundary are folded into the uniform category set rather than leaking
// backend-specific semantics.
package backend

import (
	"context"

	"qelink/internal/diag"
	"qelink/internal/image"
)

// Request is one compilation request: the source sequence plus the
// target system it is compiled for.
type Request struct {
	Sequence []byte
	Target   string
}

// Invoker produces a compiled image and initial diagnostics from a
// source sequence. Implementations block until the backend finishes;
// callers impose deadlines through ctx, which surfaces as a
// communication failure.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*image.Compiled, []diag.Diagnostic, error)
}
