package diag

// Category identifies the failure condition a diagnostic or Failure
// reports. Values are grouped by pipeline area: 1xxx backend/input,
// 2xxx signature, 3xxx binding, 4xxx patch, 5xxx resources.
type Category uint16

const (
	// CatUncategorized is the catch-all compilation failure.
	CatUncategorized Category = 1000
	// CatNoInput: no input sequence was provided.
	CatNoInput Category = 1001
	// CatCommunicationFailure: the backend transport broke down.
	CatCommunicationFailure Category = 1002
	// CatEOFFailure: unexpected end of the backend output stream.
	CatEOFFailure Category = 1003
	// CatNonZeroStatus: the backend exited with a non-zero status.
	CatNonZeroStatus Category = 1004
	// CatSequenceTooLong: the input sequence exceeds the backend limit.
	CatSequenceTooLong Category = 1005
	// CatCompilationFailure: any other backend-reported failure.
	CatCompilationFailure Category = 1006

	// CatSignatureError: the signature description is structurally invalid.
	CatSignatureError Category = 2001
	// CatSignatureWarning: invalid signature entry that may still be processed.
	CatSignatureWarning Category = 2002
	// CatSignatureNotFound: the signature description does not exist.
	CatSignatureNotFound Category = 2003

	// CatInvalidArgument: a required argument is missing or unusable.
	CatInvalidArgument Category = 3001
	// CatArgumentType: an argument value has the wrong runtime type.
	CatArgumentType Category = 3002
	// CatArgumentNotFound: a supplied argument matches no signature entry.
	CatArgumentNotFound Category = 3003
	// CatLinkerNotImplemented: no encoding rule for a recognized
	// patch-type/value-type combination.
	CatLinkerNotImplemented Category = 3004

	// CatAddressError: a patch address lies outside the image.
	CatAddressError Category = 4001
	// CatInvalidPatchType: unrecognized patch point type.
	CatInvalidPatchType Category = 4002

	// CatResourcesExceeded: control system resources (such as
	// instruction memory) are exceeded.
	CatResourcesExceeded Category = 5001
)

func (c Category) String() string {
	switch c {
	case CatUncategorized:
		return "compilation failure"
	case CatNoInput:
		return "no input sequence provided"
	case CatCommunicationFailure:
		return "compilation communication failure"
	case CatEOFFailure:
		return "unexpected EOF from backend"
	case CatNonZeroStatus:
		return "backend returned non-zero status"
	case CatSequenceTooLong:
		return "input sequence is too long"
	case CatCompilationFailure:
		return "failure during compilation"
	case CatSignatureError:
		return "signature format is invalid"
	case CatSignatureWarning:
		return "signature format is invalid but may be processed"
	case CatSignatureNotFound:
		return "signature not found"
	case CatInvalidArgument:
		return "argument is invalid"
	case CatArgumentType:
		return "argument type is invalid"
	case CatArgumentNotFound:
		return "argument not found in signature"
	case CatLinkerNotImplemented:
		return "argument binding not implemented"
	case CatAddressError:
		return "patch address is invalid"
	case CatInvalidPatchType:
		return "invalid patch point type"
	case CatResourcesExceeded:
		return "control system resources exceeded"
	}
	return "unknown failure"
}
