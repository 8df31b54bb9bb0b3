package etch

import (
	"github.com/cockroachdb/errors"
)

// Leaf errors for every way an ETCH operation can fail. All errors returned
// by this package wrap exactly one of these; match with errors.Is.
var (
	// ErrFile: the underlying file could not be opened for read or write.
	ErrFile = errors.New("etch: file not accessible")

	// ErrStructure: the text does not conform to the grammar. Raised before
	// any field of the target object is touched.
	ErrStructure = errors.New("etch: malformed document")

	// ErrTypecheck: a declared type or class tag does not match the document,
	// or a value does not parse back to its canonical form.
	ErrTypecheck = errors.New("etch: type mismatch")

	// ErrIntegrity: a declared field has no corresponding node in the
	// document.
	ErrIntegrity = errors.New("etch: missing field")

	// ErrPointer: a reference is nil where a target is required, or its
	// target identity does not resolve.
	ErrPointer = errors.New("etch: unresolved reference")
)

// Code is the coarse result class of an engine error.
type Code uint8

const (
	OK Code = iota
	FileError
	StructureError
	TypecheckError
	IntegrityError
	PointerError
	UnknownError
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case FileError:
		return "FILE"
	case StructureError:
		return "STRUCTURE"
	case TypecheckError:
		return "TYPECHECK"
	case IntegrityError:
		return "INTEGRITY"
	case PointerError:
		return "POINTER"
	default:
		return "UNKNOWN"
	}
}

// CodeOf classifies an error returned by this package. Errors from other
// sources classify as UnknownError.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ErrFile):
		return FileError
	case errors.Is(err, ErrStructure):
		return StructureError
	case errors.Is(err, ErrTypecheck):
		return TypecheckError
	case errors.Is(err, ErrIntegrity):
		return IntegrityError
	case errors.Is(err, ErrPointer):
		return PointerError
	default:
		return UnknownError
	}
}
