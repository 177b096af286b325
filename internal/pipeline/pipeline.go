package pipeline

import (
	"context"
	"time"

	"qelink/internal/backend"
	"qelink/internal/diag"
	"qelink/internal/image"
	"qelink/internal/linker"
)

// Request drives one compile-and-link run for a single sequence.
type Request struct {
	Name      string
	Sequence  []byte
	Target    string
	Signature linker.Source
	Arguments []linker.Argument
	Options   linker.Options
	Progress  ProgressSink
}

// Result carries the artifacts of a run. Bag holds every diagnostic of
// the invocation, including backend diagnostics, also when Run fails.
type Result struct {
	Compiled *image.Compiled
	Linked   *image.Linked
	Bag      *diag.Bag
	Timings  Timings
}

// Run compiles the sequence through the invoker and links the supplied
// arguments into the result. Stages run strictly in order; the first
// fatal condition aborts the rest.
func Run(ctx context.Context, invoker backend.Invoker, req *Request) (Result, error) {
	res := Result{Bag: diag.NewBag()}

	emit(req.Progress, req.Name, StageCompile, StatusWorking, nil, 0)
	compileStart := time.Now()
	compiled, backendDiags, err := invoker.Invoke(ctx, backend.Request{
		Sequence: req.Sequence,
		Target:   req.Target,
	})
	for _, d := range backendDiags {
		res.Bag.Add(d)
	}
	res.Timings.Set(StageCompile, time.Since(compileStart))
	if err != nil {
		emit(req.Progress, req.Name, StageCompile, StatusError, err, time.Since(compileStart))
		return res, wrapFailure(err, res.Bag, req.Options)
	}
	res.Compiled = compiled
	emit(req.Progress, req.Name, StageCompile, StatusDone, nil, time.Since(compileStart))

	emit(req.Progress, req.Name, StageLink, StatusWorking, nil, 0)
	linkStart := time.Now()
	linked, linkBag, err := linker.Link(compiled, req.Signature, req.Arguments, req.Options)
	res.Bag.Merge(linkBag)
	res.Timings.Set(StageLink, time.Since(linkStart))
	if err != nil {
		emit(req.Progress, req.Name, StageLink, StatusError, err, time.Since(linkStart))
		return res, rebindDiagnostics(err, res.Bag)
	}
	res.Linked = linked
	emit(req.Progress, req.Name, StageLink, StatusDone, nil, time.Since(linkStart))

	return res, nil
}

// wrapFailure attaches the run's diagnostics to a fatal error, wrapping
// non-Failure errors as uncategorized.
func wrapFailure(err error, bag *diag.Bag, opts linker.Options) error {
	f, ok := diag.AsFailure(err)
	if !ok {
		f = diag.Fail(diag.CatUncategorized, err.Error())
	}
	return f.WithDiagnostics(bag).WithRender(opts.RenderDiagnostics)
}

// rebindDiagnostics widens a link failure's diagnostics to the whole
// run (backend diagnostics included), keeping its render flag.
func rebindDiagnostics(err error, bag *diag.Bag) error {
	if f, ok := diag.AsFailure(err); ok {
		return f.WithDiagnostics(bag)
	}
	return err
}
