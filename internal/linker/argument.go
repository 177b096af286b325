// Package linker implements the core of the pipeline: resolving named
// argument values against a signature and patching them into a compiled
// image at byte level, under the address and resource constraints of
// the target control system.
package linker

import (
	"fmt"

	"fortio.org/safecast"

	"qelink/internal/diag"
	"qelink/internal/signature"
)

// Argument is a caller-supplied name/value pair. The value's runtime
// type must match the declared type of the signature entry it binds to.
type Argument struct {
	Name  string
	Value any
}

// Binding is a resolved pair: one signature entry plus the normalized
// value that will be patched at the entry's addresses.
type Binding struct {
	Spec  signature.ArgumentSpec
	Value any
}

// normalizeValue checks the runtime type of v against the declared type
// and converts it to the canonical form the patch engine encodes:
// int64, float64, bool or string. YAML-decoded scalars arrive as int,
// uint64 or float64 depending on magnitude, so integer widths are
// folded here rather than at the call sites.
func normalizeValue(spec signature.ArgumentSpec, v any) (any, error) {
	mismatch := func() (any, error) {
		return nil, diag.Fail(diag.CatArgumentType,
			fmt.Sprintf("argument %q: declared type %s, got %T", spec.Name, spec.Type, v))
	}

	switch spec.Type {
	case signature.TypeInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case uint:
			return safecastInt64(spec.Name, uint64(n))
		case uint8:
			return int64(n), nil
		case uint16:
			return int64(n), nil
		case uint32:
			return int64(n), nil
		case uint64:
			return safecastInt64(spec.Name, n)
		}
		return mismatch()

	case signature.TypeFloat:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return mismatch()

	case signature.TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return mismatch()

	case signature.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return mismatch()
	}

	return nil, diag.Fail(diag.CatSignatureError,
		fmt.Sprintf("argument %q: unknown declared type %q", spec.Name, spec.Type))
}

func safecastInt64(name string, n uint64) (any, error) {
	v, err := safecast.Conv[int64](n)
	if err != nil {
		return nil, diag.Fail(diag.CatArgumentType,
			fmt.Sprintf("argument %q: value %d overflows int", name, n))
	}
	return v, nil
}
