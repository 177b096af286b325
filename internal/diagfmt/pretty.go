// Package diagfmt renders accumulated diagnostics for humans (pretty,
// optionally colored) and for tooling (JSON). The wire-stable text
// contract lives on diag.Diagnostic itself; this package is display
// only.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"qelink/internal/diag"
)

// PrettyOpts controls pretty rendering.
type PrettyOpts struct {
	Color bool
	// MinSeverity drops diagnostics below the threshold.
	MinSeverity diag.Severity
}

var (
	infoStyle    = color.New(color.FgCyan)
	warningStyle = color.New(color.FgYellow, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
)

func styleFor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevInfo:
		return infoStyle
	case diag.SevWarning:
		return warningStyle
	}
	return errorStyle
}

// Pretty writes one line per diagnostic:
// <severity>[<stage>]: <message> (<category>)
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	for _, d := range bag.Items() {
		if d.Severity < opts.MinSeverity {
			continue
		}
		label := d.Severity.String()
		if opts.Color {
			label = styleFor(d.Severity).Sprint(label)
		}
		fmt.Fprintf(w, "%s[%s]: %s (%s)\n", label, d.Stage, d.Message, d.Category)
	}
}
