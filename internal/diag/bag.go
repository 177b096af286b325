package diag

import "strings"

// Bag accumulates diagnostics for one pipeline invocation. Order of
// arrival is preserved and nothing is deduplicated: downstream
// consumers rely on seeing every message exactly as emitted.
//
// A Bag is not safe for concurrent use; concurrent invocations each get
// their own.
type Bag struct {
	items []Diagnostic
}

// NewBag returns an empty accumulator.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic in arrival order.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Len returns the number of accumulated diagnostics.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Items returns a read-only view of the accumulated diagnostics.
// Callers must not modify the returned slice.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// HasErrors reports whether any diagnostic has Severity >= Error.
func (b *Bag) HasErrors() bool {
	for i := range b.Items() {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic has Severity >= Warning.
func (b *Bag) HasWarnings() bool {
	for i := range b.Items() {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

// MaxSeverity returns the highest severity seen, and false when the bag
// is empty.
func (b *Bag) MaxSeverity() (Severity, bool) {
	items := b.Items()
	if len(items) == 0 {
		return SevInfo, false
	}
	max := items[0].Severity
	for _, d := range items[1:] {
		if d.Severity > max {
			max = d.Severity
		}
	}
	return max, true
}

// Merge appends all diagnostics from other, preserving both orders.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// Render joins the diagnostics with a newline separator in accumulation
// order.
func (b *Bag) Render() string {
	items := b.Items()
	parts := make([]string, 0, len(items))
	for _, d := range items {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "\n")
}
