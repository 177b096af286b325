// Package signature models the external signature description: the
// ordered list of named arguments a compiled image expects, with the
// patch scheme and target addresses for each.
package signature

// ValueType is the declared runtime type of an argument value.
type ValueType string

const (
	// TypeInt accepts integer argument values.
	TypeInt ValueType = "int"
	// TypeFloat accepts floating point argument values.
	TypeFloat ValueType = "float"
	// TypeBool accepts boolean argument values.
	TypeBool ValueType = "bool"
	// TypeString accepts string argument values.
	TypeString ValueType = "string"
)

// ParseValueType maps a signature token to a ValueType.
func ParseValueType(token string) (ValueType, bool) {
	switch ValueType(token) {
	case TypeInt, TypeFloat, TypeBool, TypeString:
		return ValueType(token), true
	}
	return "", false
}

// PatchType selects the byte-level encoding of a patch.
type PatchType string

const (
	// PatchImm16 is a 16-bit little-endian immediate.
	PatchImm16 PatchType = "imm16"
	// PatchImm32 is a 32-bit little-endian immediate.
	PatchImm32 PatchType = "imm32"
	// PatchImm64 is a 64-bit little-endian immediate.
	PatchImm64 PatchType = "imm64"
	// PatchF32 is an IEEE 754 single stored little-endian.
	PatchF32 PatchType = "f32"
	// PatchF64 is an IEEE 754 double stored little-endian.
	PatchF64 PatchType = "f64"
	// PatchOffset16 is a 16-bit signed offset relative to the patch address.
	PatchOffset16 PatchType = "offset16"
	// PatchOffset32 is a 32-bit signed offset relative to the patch address.
	PatchOffset32 PatchType = "offset32"
	// PatchLen16 is a 16-bit length field holding the byte length of a
	// string value.
	PatchLen16 PatchType = "len16"
	// PatchBytes writes the raw bytes of a string value.
	PatchBytes PatchType = "bytes"
)

// ParsePatchType maps a signature token to a PatchType.
func ParsePatchType(token string) (PatchType, bool) {
	switch PatchType(token) {
	case PatchImm16, PatchImm32, PatchImm64,
		PatchF32, PatchF64,
		PatchOffset16, PatchOffset32,
		PatchLen16, PatchBytes:
		return PatchType(token), true
	}
	return "", false
}

// Width returns the fixed byte width of the patch encoding, or 0 when
// the width depends on the value (PatchBytes).
func (p PatchType) Width() uint32 {
	switch p {
	case PatchImm16, PatchOffset16, PatchLen16:
		return 2
	case PatchImm32, PatchF32, PatchOffset32:
		return 4
	case PatchImm64, PatchF64:
		return 8
	}
	return 0
}

// ArgumentSpec describes one named argument: its declared value type,
// patch encoding, and the image offsets it is written to.
type ArgumentSpec struct {
	Name      string
	Type      ValueType
	Patch     PatchType
	Addresses []uint32
	Required  bool
}

// Signature is an ordered sequence of argument specs. Order follows the
// description file; names are unique.
type Signature struct {
	Specs []ArgumentSpec
}

// Len returns the number of specs.
func (s Signature) Len() int { return len(s.Specs) }

// Lookup finds a spec by argument name.
func (s Signature) Lookup(name string) (ArgumentSpec, bool) {
	for _, spec := range s.Specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return ArgumentSpec{}, false
}
