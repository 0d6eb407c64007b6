package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph mutation errors
const (
	// ErrCodeNamingConflict indicates a node name is already in use.
	ErrCodeNamingConflict ErrorCode = "NAMING_CONFLICT"
	// ErrCodeCycle indicates an insertion would make the graph cyclic.
	ErrCodeCycle ErrorCode = "CYCLE"
	// ErrCodeDependentsExist indicates a node cannot be removed while other nodes depend on it.
	ErrCodeDependentsExist ErrorCode = "DEPENDENTS_EXIST"
)

// Lookup errors
const (
	// ErrCodeNotFound indicates the referenced node (or resource) does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Execution errors
const (
	// ErrCodeInvalidInput indicates an argument or input key is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingInputs indicates required virtual inputs were not supplied.
	ErrCodeMissingInputs ErrorCode = "MISSING_VIRTUAL_INPUTS"
	// ErrCodeUnreachable indicates an output cannot be computed from the supplied inputs.
	ErrCodeUnreachable ErrorCode = "UNREACHABLE_OUTPUT"
	// ErrCodeInvalidResult indicates a node result does not have the expected shape.
	ErrCodeInvalidResult ErrorCode = "INVALID_RESULT"
)

// Validation errors
const (
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
