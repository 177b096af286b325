package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"qelink/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag()
	bag.Add(diag.New(diag.SevInfo, diag.CatUncategorized, diag.StageCompile, "scheduled 3 ports"))
	bag.Add(diag.New(diag.SevWarning, diag.CatArgumentNotFound, diag.StageBind, "argument not found: y"))
	bag.Add(diag.New(diag.SevError, diag.CatAddressError, diag.StagePatch, "address 2048 out of bounds"))
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Info[compile]: scheduled 3 ports") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "argument not found: y") ||
		!strings.Contains(lines[1], "argument not found in signature") {
		t.Fatalf("warning line misses message or category: %q", lines[1])
	}
}

func TestPrettyMinSeverity(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{MinSeverity: diag.SevError})
	out := buf.String()
	if strings.Contains(out, "scheduled") || strings.Contains(out, "argument not found") {
		t.Fatalf("low-severity diagnostics not filtered:\n%s", out)
	}
	if !strings.Contains(out, "address 2048") {
		t.Fatalf("error diagnostic missing:\n%s", out)
	}
}

func TestJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag()); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(decoded))
	}
	if decoded[2]["severity"] != "Error" || decoded[2]["code"] != float64(diag.CatAddressError) {
		t.Fatalf("entry shape wrong: %+v", decoded[2])
	}
}

func TestJSONEmptyBagIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, diag.NewBag()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("empty bag should render as []: %q", buf.String())
	}
}
