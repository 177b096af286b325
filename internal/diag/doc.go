// Package diag defines the diagnostic data model shared by every stage
// of the compile/link pipeline: severities, error categories, the
// per-invocation accumulator (Bag) and the aggregated Failure error.
//
// Diagnostics are plain values. Nothing in this package touches global
// state; each pipeline invocation owns its own Bag.
package diag
