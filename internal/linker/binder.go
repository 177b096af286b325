package linker

import (
	"fmt"

	"qelink/internal/diag"
	"qelink/internal/signature"
)

// Bind matches caller-supplied arguments against the signature and
// returns one binding per matched entry, in signature order.
//
// An argument naming no signature entry is dropped with a recoverable
// diagnostic. A missing required entry, a duplicated argument name or a
// runtime type mismatch aborts binding with no partial result.
func Bind(sig signature.Signature, args []Argument, bag *diag.Bag) ([]Binding, error) {
	byName := make(map[string]Argument, len(args))
	for _, arg := range args {
		if _, dup := byName[arg.Name]; dup {
			return nil, diag.Fail(diag.CatInvalidArgument,
				fmt.Sprintf("argument %q supplied more than once", arg.Name))
		}
		byName[arg.Name] = arg
	}

	// Extra arguments are dropped, not fatal: the caller may be reusing
	// an argument set across signatures.
	for _, arg := range args {
		if _, ok := sig.Lookup(arg.Name); !ok {
			if bag != nil {
				bag.Add(diag.New(diag.SevWarning, diag.CatArgumentNotFound,
					diag.StageBind, "argument not found: "+arg.Name))
			}
			delete(byName, arg.Name)
		}
	}

	bindings := make([]Binding, 0, sig.Len())
	for _, spec := range sig.Specs {
		arg, ok := byName[spec.Name]
		if !ok {
			if spec.Required {
				return nil, diag.Fail(diag.CatInvalidArgument,
					fmt.Sprintf("required argument %q not supplied", spec.Name))
			}
			continue
		}
		value, err := normalizeValue(spec, arg.Value)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, Binding{Spec: spec, Value: value})
	}

	return bindings, nil
}
