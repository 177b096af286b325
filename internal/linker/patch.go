package linker

import (
	"encoding/binary"
	"fmt"
	"math"

	"fortio.org/safecast"

	"qelink/internal/diag"
	"qelink/internal/image"
	"qelink/internal/signature"
)

// Apply patches all bindings into a copy of the compiled image and
// returns the linked result. The input image is never mutated.
//
// Any out-of-bounds address or unencodable value aborts the whole call;
// the partially patched buffer rides on the Failure for inspection only.
// The instruction-memory budget is checked once, after every patch has
// been computed, so the failure message reports the full requested
// total rather than the first overflowing write.
func Apply(img *image.Compiled, bindings []Binding) (*image.Linked, error) {
	data := append([]byte(nil), img.Data...)
	size := uint64(len(data))
	var consumed uint64

	for _, b := range bindings {
		for _, addr := range b.Spec.Addresses {
			encoded, err := encodePatch(b.Spec, b.Value, addr)
			if err != nil {
				if f, ok := diag.AsFailure(err); ok {
					f.Partial = data
				}
				return nil, err
			}
			end := uint64(addr) + uint64(len(encoded))
			if end > size {
				f := diag.Fail(diag.CatAddressError, fmt.Sprintf(
					"argument %q: patch of %d bytes at address %d exceeds image size %d",
					b.Spec.Name, len(encoded), addr, size))
				f.Partial = data
				return nil, f
			}
			copy(data[addr:end], encoded)
			consumed += uint64(len(encoded))
		}
	}

	// Capacity 0 means the target declared no instruction-memory budget.
	if img.Capacity > 0 && consumed > uint64(img.Capacity) {
		f := diag.Fail(diag.CatResourcesExceeded, fmt.Sprintf(
			"instruction memory exceeded: patches require %d units, capacity is %d",
			consumed, img.Capacity))
		f.Partial = data
		return nil, f
	}

	total, err := safecast.Conv[uint32](consumed)
	if err != nil {
		return nil, diag.Fail(diag.CatResourcesExceeded, fmt.Sprintf(
			"instruction memory exceeded: patches require %d units", consumed))
	}

	return &image.Linked{Target: img.Target, Data: data, Consumed: total}, nil
}

// encodePatch produces the bytes for one patch site. The encoding is
// selected by the (value type, patch type) pair; a recognized pair with
// no rule is a not-implemented failure, distinct from an unrecognized
// patch type.
func encodePatch(spec signature.ArgumentSpec, value any, addr uint32) ([]byte, error) {
	if _, known := signature.ParsePatchType(string(spec.Patch)); !known {
		return nil, diag.Fail(diag.CatInvalidPatchType,
			fmt.Sprintf("argument %q: invalid patch type %q", spec.Name, spec.Patch))
	}

	switch v := value.(type) {
	case int64:
		return encodeInt(spec, v, addr)
	case bool:
		return encodeBool(spec, v)
	case float64:
		return encodeFloat(spec, v)
	case string:
		return encodeString(spec, v)
	}

	return nil, notImplemented(spec)
}

func notImplemented(spec signature.ArgumentSpec) error {
	return diag.Fail(diag.CatLinkerNotImplemented, fmt.Sprintf(
		"argument %q: no encoding for value type %s with patch type %s",
		spec.Name, spec.Type, spec.Patch))
}

func valueOutOfRange(spec signature.ArgumentSpec, v any) error {
	return diag.Fail(diag.CatInvalidArgument, fmt.Sprintf(
		"argument %q: value %v does not fit patch type %s", spec.Name, v, spec.Patch))
}

// Immediates are unsigned; relative offsets carry the sign.
func encodeInt(spec signature.ArgumentSpec, v int64, addr uint32) ([]byte, error) {
	switch spec.Patch {
	case signature.PatchImm16:
		u, err := safecast.Conv[uint16](v)
		if err != nil {
			return nil, valueOutOfRange(spec, v)
		}
		return binary.LittleEndian.AppendUint16(nil, u), nil
	case signature.PatchImm32:
		u, err := safecast.Conv[uint32](v)
		if err != nil {
			return nil, valueOutOfRange(spec, v)
		}
		return binary.LittleEndian.AppendUint32(nil, u), nil
	case signature.PatchImm64:
		u, err := safecast.Conv[uint64](v)
		if err != nil {
			return nil, valueOutOfRange(spec, v)
		}
		return binary.LittleEndian.AppendUint64(nil, u), nil
	case signature.PatchOffset16:
		rel := v - int64(addr)
		s, err := safecast.Conv[int16](rel)
		if err != nil {
			return nil, valueOutOfRange(spec, v)
		}
		return binary.LittleEndian.AppendUint16(nil, uint16(s)), nil
	case signature.PatchOffset32:
		rel := v - int64(addr)
		s, err := safecast.Conv[int32](rel)
		if err != nil {
			return nil, valueOutOfRange(spec, v)
		}
		return binary.LittleEndian.AppendUint32(nil, uint32(s)), nil
	}
	return nil, notImplemented(spec)
}

func encodeBool(spec signature.ArgumentSpec, v bool) ([]byte, error) {
	var bit byte
	if v {
		bit = 1
	}
	switch spec.Patch {
	case signature.PatchImm16:
		return []byte{bit, 0}, nil
	case signature.PatchImm32:
		return []byte{bit, 0, 0, 0}, nil
	case signature.PatchImm64:
		return []byte{bit, 0, 0, 0, 0, 0, 0, 0}, nil
	}
	return nil, notImplemented(spec)
}

func encodeFloat(spec signature.ArgumentSpec, v float64) ([]byte, error) {
	switch spec.Patch {
	case signature.PatchF32:
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(v))), nil
	case signature.PatchF64:
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)), nil
	}
	return nil, notImplemented(spec)
}

func encodeString(spec signature.ArgumentSpec, v string) ([]byte, error) {
	switch spec.Patch {
	case signature.PatchLen16:
		u, err := safecast.Conv[uint16](len(v))
		if err != nil {
			return nil, valueOutOfRange(spec, len(v))
		}
		return binary.LittleEndian.AppendUint16(nil, u), nil
	case signature.PatchBytes:
		return []byte(v), nil
	}
	return nil, notImplemented(spec)
}

// decodePatch is the inverse of encodePatch for fixed-width encodings;
// for PatchBytes the byte length of the original value must be given.
// Exercised by tests to pin the round-trip property of every encoding.
func decodePatch(spec signature.ArgumentSpec, data []byte, addr uint32, strLen int) (any, error) {
	at := data[addr:]
	switch spec.Type {
	case signature.TypeInt:
		switch spec.Patch {
		case signature.PatchImm16:
			return int64(binary.LittleEndian.Uint16(at)), nil
		case signature.PatchImm32:
			return int64(binary.LittleEndian.Uint32(at)), nil
		case signature.PatchImm64:
			v, err := safecast.Conv[int64](binary.LittleEndian.Uint64(at))
			if err != nil {
				return nil, err
			}
			return v, nil
		case signature.PatchOffset16:
			rel := int16(binary.LittleEndian.Uint16(at))
			return int64(addr) + int64(rel), nil
		case signature.PatchOffset32:
			rel := int32(binary.LittleEndian.Uint32(at))
			return int64(addr) + int64(rel), nil
		}
	case signature.TypeBool:
		return at[0] != 0, nil
	case signature.TypeFloat:
		switch spec.Patch {
		case signature.PatchF32:
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(at))), nil
		case signature.PatchF64:
			return math.Float64frombits(binary.LittleEndian.Uint64(at)), nil
		}
	case signature.TypeString:
		switch spec.Patch {
		case signature.PatchLen16:
			return int64(binary.LittleEndian.Uint16(at)), nil
		case signature.PatchBytes:
			return string(at[:strLen]), nil
		}
	}
	return nil, fmt.Errorf("no decoder for %s/%s", spec.Type, spec.Patch)
}
