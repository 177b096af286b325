package signature

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"qelink/internal/diag"
)

// rawSignature mirrors the on-disk YAML document.
type rawSignature struct {
	Parameters []rawParameter `yaml:"parameters"`
}

type rawParameter struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Patch     string   `yaml:"patch"`
	Addresses []uint32 `yaml:"addresses"`
	// Required defaults to true when omitted.
	Required *bool `yaml:"required"`
}

// Parse reads a signature description in strict mode: any structurally
// invalid entry fails the whole parse with a signature-format error.
func Parse(r io.Reader) (Signature, error) {
	return parse(r, false, nil)
}

// ParseLenient reads a signature description, skipping structurally
// invalid entries with a warning diagnostic instead of failing. A
// document that is not valid YAML at all still fails.
func ParseLenient(r io.Reader, bag *diag.Bag) (Signature, error) {
	return parse(r, true, bag)
}

// ParseFile reads a signature description from disk. A missing or
// unreadable file is a signature-not-found failure, always fatal.
func ParseFile(path string, lenient bool, bag *diag.Bag) (Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Signature{}, diag.Fail(diag.CatSignatureNotFound,
			fmt.Sprintf("cannot read signature %q: %v", path, err))
	}
	return parse(bytes.NewReader(data), lenient, bag)
}

func parse(r io.Reader, lenient bool, bag *diag.Bag) (Signature, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw rawSignature
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return Signature{}, diag.Fail(diag.CatSignatureError, "signature description is empty")
		}
		return Signature{}, diag.Fail(diag.CatSignatureError,
			fmt.Sprintf("malformed signature description: %v", err))
	}
	if len(raw.Parameters) == 0 {
		return Signature{}, diag.Fail(diag.CatSignatureError,
			"signature description declares no parameters")
	}

	sig := Signature{Specs: make([]ArgumentSpec, 0, len(raw.Parameters))}
	seen := make(map[string]bool, len(raw.Parameters))

	for i, p := range raw.Parameters {
		spec, err := validateParameter(i, p, seen)
		if err != nil {
			if !lenient {
				return Signature{}, err
			}
			if bag != nil {
				bag.Add(diag.New(diag.SevWarning, diag.CatSignatureWarning,
					diag.StageSignature, err.Error()+"; entry skipped"))
			}
			continue
		}
		seen[spec.Name] = true
		sig.Specs = append(sig.Specs, spec)
	}

	return sig, nil
}

func validateParameter(idx int, p rawParameter, seen map[string]bool) (ArgumentSpec, error) {
	fail := func(format string, args ...any) (ArgumentSpec, error) {
		msg := fmt.Sprintf("parameter %d: ", idx) + fmt.Sprintf(format, args...)
		return ArgumentSpec{}, diag.Fail(diag.CatSignatureError, msg)
	}

	if p.Name == "" {
		return fail("missing name")
	}
	if seen[p.Name] {
		return fail("duplicate argument name %q", p.Name)
	}
	if p.Type == "" {
		return fail("%q: missing value type", p.Name)
	}
	valueType, ok := ParseValueType(p.Type)
	if !ok {
		return fail("%q: unknown value type %q", p.Name, p.Type)
	}
	if p.Patch == "" {
		return fail("%q: missing patch type", p.Name)
	}
	patchType, ok := ParsePatchType(p.Patch)
	if !ok {
		return fail("%q: unknown patch type %q", p.Name, p.Patch)
	}
	if len(p.Addresses) == 0 {
		return fail("%q: no target addresses", p.Name)
	}

	required := true
	if p.Required != nil {
		required = *p.Required
	}

	return ArgumentSpec{
		Name:      p.Name,
		Type:      valueType,
		Patch:     patchType,
		Addresses: append([]uint32(nil), p.Addresses...),
		Required:  required,
	}, nil
}
