package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"qelink/internal/image"
	"qelink/internal/linker"
	"qelink/internal/pipeline"
	"qelink/internal/signature"
	"qelink/internal/ui"
)

// runBatchWithUI drives a batch link under the terminal progress view.
// The batch runs in the background while the UI consumes its events;
// the event channel is closed once all items settle, which quits the
// program.
func runBatchWithUI(ctx context.Context, title string, img *image.Compiled, sig signature.Signature, items []pipeline.BatchItem, opts linker.Options, jobs int) ([]pipeline.BatchResult, error) {
	events := make(chan pipeline.Event, 256)
	resultsCh := make(chan []pipeline.BatchResult, 1)

	go func() {
		results := pipeline.LinkBatch(ctx, img, sig, items, opts, jobs, pipeline.ChannelSink{Ch: events})
		resultsCh <- results
		close(events)
	}()

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	results := <-resultsCh
	return results, uiErr
}
