// Package image holds the binary artifacts of the pipeline: the
// backend-produced compiled image and the linked image produced by
// patching, plus the on-disk container codec for both.
package image

// Compiled is the backend-produced instruction image prior to argument
// binding. The byte buffer is opaque to the linker; Capacity is the
// instruction-memory budget of the target control system, a property of
// the target rather than of this particular image.
//
// A Compiled value is never mutated: patching clones the buffer and
// produces a Linked image, so one Compiled template may be linked
// concurrently by many invocations.
type Compiled struct {
	Target   string
	Capacity uint32
	Data     []byte
}

// Size returns the image size in bytes. Patch addresses must lie within
// [0, Size).
func (c *Compiled) Size() int { return len(c.Data) }

// Linked is the terminal artifact: a compiled image with all argument
// patches applied. Consumed records the instruction-memory units the
// patches used, for reporting against the capacity budget.
type Linked struct {
	Target   string
	Data     []byte
	Consumed uint32
}
