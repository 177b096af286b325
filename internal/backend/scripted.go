package backend

import (
	"context"

	"qelink/internal/diag"
	"qelink/internal/image"
)

// ScriptedResult is one canned backend response.
type ScriptedResult struct {
	Image       *image.Compiled
	Diagnostics []diag.Diagnostic
	Err         error
}

// Scripted is a fake Invoker returning queued responses in order. Used
// by tests and by callers that want to replay recorded compilations.
type Scripted struct {
	results []ScriptedResult
	calls   int
}

// NewScripted queues the given responses.
func NewScripted(results ...ScriptedResult) *Scripted {
	return &Scripted{results: results}
}

// Calls reports how many times Invoke ran.
func (s *Scripted) Calls() int { return s.calls }

func (s *Scripted) Invoke(ctx context.Context, req Request) (*image.Compiled, []diag.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, diag.Fail(diag.CatCommunicationFailure, "backend interrupted: "+err.Error())
	}
	if s.calls >= len(s.results) {
		return nil, nil, diag.Fail(diag.CatCommunicationFailure, "scripted backend exhausted")
	}
	res := s.results[s.calls]
	s.calls++
	if res.Err != nil {
		return nil, res.Diagnostics, res.Err
	}
	return res.Image, res.Diagnostics, nil
}
