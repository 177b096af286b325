package pipeline

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"qelink/internal/diag"
	"qelink/internal/image"
	"qelink/internal/linker"
	"qelink/internal/signature"
)

// BatchItem is one argument set to link against the shared template.
type BatchItem struct {
	Name      string
	Arguments []linker.Argument
}

// BatchResult is the outcome for one item. Results keep input order
// regardless of completion order.
type BatchResult struct {
	Name   string
	Linked *image.Linked
	Bag    *diag.Bag
	Err    error
}

// LinkBatch links many argument sets against one compiled image
// template. The signature is parsed once and shared read-only; each
// item gets its own diagnostic bag and its own copy-on-write buffer, so
// items are independent and run in parallel. jobs <= 0 uses GOMAXPROCS.
//
// One failing item does not stop the others; per-item failures live in
// the corresponding BatchResult.
func LinkBatch(ctx context.Context, img *image.Compiled, sig signature.Signature, items []BatchItem, opts linker.Options, jobs int, progress ProgressSink) []BatchResult {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(items))
	for i, item := range items {
		results[i].Name = item.Name
		emit(progress, item.Name, StageLink, StatusQueued, nil, 0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			bag := diag.NewBag()
			results[i].Bag = bag

			if err := ctx.Err(); err != nil {
				results[i].Err = diag.Fail(diag.CatCommunicationFailure, "link cancelled: "+err.Error()).
					WithDiagnostics(bag).WithRender(opts.RenderDiagnostics)
				emit(progress, item.Name, StageLink, StatusError, results[i].Err, 0)
				return nil
			}

			emit(progress, item.Name, StageLink, StatusWorking, nil, 0)
			start := time.Now()
			linked, err := linker.LinkParsed(img, sig, item.Arguments, bag, opts)
			if err != nil {
				results[i].Err = err
				emit(progress, item.Name, StageLink, StatusError, err, time.Since(start))
				return nil
			}
			results[i].Linked = linked
			emit(progress, item.Name, StageLink, StatusDone, nil, time.Since(start))
			return nil
		})
	}

	// Errors never propagate through the group; they live per item.
	_ = g.Wait()
	return results
}
