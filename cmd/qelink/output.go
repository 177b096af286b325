package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"qelink/internal/config"
	"qelink/internal/diag"
	"qelink/internal/diagfmt"
)

func renderDiagnostics(cmd *cobra.Command, bag *diag.Bag, format string) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	w := cmd.ErrOrStderr()
	if format == "json" {
		_ = diagfmt.JSON(w, bag)
		return
	}
	diagfmt.Pretty(w, bag, diagfmt.PrettyOpts{Color: !color.NoColor})
}

func prettyWithVerbosity(w io.Writer, bag *diag.Bag, v config.Verbosity) {
	diagfmt.Pretty(w, bag, diagfmt.PrettyOpts{
		Color:       !color.NoColor,
		MinSeverity: minSeverityFor(v),
	})
}

func minSeverityFor(v config.Verbosity) diag.Severity {
	switch v {
	case config.VerbosityError:
		return diag.SevError
	case config.VerbosityWarn:
		return diag.SevWarning
	default:
		return diag.SevInfo
	}
}
