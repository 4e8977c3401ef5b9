package minerid

import "fmt"

// Kind classifies why a candidate output was rejected
type Kind int

const (
	// KindStructural covers missing markers, truncated scripts, missing
	// or empty operands and unparsable JSON
	KindStructural Kind = iota + 1

	// KindSchema covers missing or mistyped fields, height mismatches,
	// unsupported versions and malformed dataRefs entries
	KindSchema

	// KindSignature covers a failed check at any of the three
	// verification sites
	KindSignature
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindSchema:
		return "schema"
	case KindSignature:
		return "signature"
	}
	return "unknown"
}

// ScanError describes why a candidate was rejected. It never escapes
// FindMinerId; the scan logs it and moves on to the next output.
type ScanError struct {
	Kind   Kind
	Reason string
}

func (e *ScanError) Error() string {
	return e.Kind.String() + ": " + e.Reason
}

func structuralf(format string, args ...interface{}) *ScanError {
	return &ScanError{Kind: KindStructural, Reason: fmt.Sprintf(format, args...)}
}

func schemaf(format string, args ...interface{}) *ScanError {
	return &ScanError{Kind: KindSchema, Reason: fmt.Sprintf(format, args...)}
}

func signaturef(format string, args ...interface{}) *ScanError {
	return &ScanError{Kind: KindSignature, Reason: fmt.Sprintf(format, args...)}
}
