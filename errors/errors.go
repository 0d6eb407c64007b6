package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code, so that
// errors.Is(err, errors.New(errors.ErrCodeCycle, "")) matches any cycle error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// HasCode reports whether err, or any error it wraps, is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// --- Pipeline error constructors ---

// NamingConflict creates an AppError for a node name that is already taken.
func NamingConflict(name string) *AppError {
	return &AppError{
		Code: ErrCodeNamingConflict, Message: fmt.Sprintf("node %q already exists", name),
		Details: map[string]any{"node": name},
	}
}

// Cycle creates an AppError for an insertion that would create a cycle.
func Cycle(name string) *AppError {
	return &AppError{
		Code: ErrCodeCycle, Message: fmt.Sprintf("adding node %q would create a cycle", name),
		Details: map[string]any{"node": name},
	}
}

// NotFound creates an AppError for an unknown node or resource.
func NotFound(resource, name string) *AppError {
	details := map[string]any{"resource": resource}
	if name != "" {
		details["name"] = name
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, name),
		Details: details,
	}
}

// DependentsExist creates an AppError for removing a node that other nodes still consume.
func DependentsExist(name string, dependents []string) *AppError {
	sorted := sortedCopy(dependents)
	return &AppError{
		Code: ErrCodeDependentsExist,
		Message: fmt.Sprintf("cannot remove node %q: nodes [%s] depend on it",
			name, strings.Join(sorted, ", ")),
		Details: map[string]any{"node": name, "dependents": sorted},
	}
}

// InvalidInput creates an AppError for an invalid argument or input key.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// UnknownInputKey creates an AppError for an execution input key that is
// neither a node nor a virtual input.
func UnknownInputKey(key string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf("input key %q is neither a node nor a virtual input", key),
		Details: map[string]any{"field": key},
	}
}

// MissingInputs creates an AppError listing required virtual inputs that were not supplied.
func MissingInputs(names []string) *AppError {
	sorted := sortedCopy(names)
	return &AppError{
		Code: ErrCodeMissingInputs,
		Message: fmt.Sprintf("missing required virtual inputs: [%s]; these must be provided in inputs",
			strings.Join(sorted, ", ")),
		Details: map[string]any{"missing": sorted},
	}
}

// Unreachable creates an AppError for an output that cannot be computed from
// the supplied inputs, naming the unresolved virtual inputs in its ancestry.
func Unreachable(output string, unresolved []string) *AppError {
	sorted := sortedCopy(unresolved)
	return &AppError{
		Code: ErrCodeUnreachable,
		Message: fmt.Sprintf("output %q is not reachable from provided inputs; "+
			"virtual inputs without values in its dependency chain: [%s]",
			output, strings.Join(sorted, ", ")),
		Details: map[string]any{"output": output, "unresolved": sorted},
	}
}

// InvalidResult creates an AppError for a node result of unexpected shape.
func InvalidResult(node, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidResult, Message: fmt.Sprintf("node %q: %s", node, reason),
		Details: map[string]any{"node": node},
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// InvalidFormat creates a new AppError for an invalid field format.
func InvalidFormat(field, expectedFormat string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("invalid format for %s, expected: %s", field, expectedFormat),
		Details: map[string]any{"field": field, "expected_format": expectedFormat},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message, Cause: cause}
}

func sortedCopy(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}
