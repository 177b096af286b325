// Package pipeline orchestrates compile and link for control sequences
// and reports progress to pluggable sinks.
package pipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageCompile is the external backend invocation.
	StageCompile Stage = "compile"
	// StageSignature is signature description parsing.
	StageSignature Stage = "signature"
	// StageLink is argument binding plus patch application.
	StageLink Stage = "link"
	// StageWrite is linked image output.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the item is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the item is currently processed.
	StatusWorking Status = "working"
	// StatusDone indicates the item finished.
	StatusDone Status = "done"
	// StatusError indicates the item failed.
	StatusError Status = "error"
)

// Event reports progress for one item (or for the overall pipeline when
// Item is empty).
type Event struct {
	Item    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe
// for concurrent use when driving batch operations.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, item string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Item: item, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

// Timings holds stage durations for one pipeline run.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

// Get returns the stored duration for a stage.
func (t *Timings) Get(stage Stage) time.Duration {
	if t == nil {
		return 0
	}
	return t.stages[stage]
}

// Total sums all stage durations.
func (t *Timings) Total() time.Duration {
	if t == nil {
		return 0
	}
	var total time.Duration
	for _, d := range t.stages {
		total += d
	}
	return total
}
