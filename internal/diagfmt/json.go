package diagfmt

import (
	"encoding/json"
	"io"

	"qelink/internal/diag"
)

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Code     uint16 `json:"code"`
	Stage    string `json:"stage"`
	Message  string `json:"message"`
}

// JSON writes the bag as a JSON array, one object per diagnostic, in
// accumulation order.
func JSON(w io.Writer, bag *diag.Bag) error {
	out := make([]jsonDiagnostic, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, jsonDiagnostic{
			Severity: d.Severity.String(),
			Category: d.Category.String(),
			Code:     uint16(d.Category),
			Stage:    string(d.Stage),
			Message:  d.Message,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
