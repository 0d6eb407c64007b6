// Package errors provides the structured error type shared by the pipeline
// engine and its builders.
//
// Every failure the engine reports synchronously is an *AppError carrying a
// machine-readable ErrorCode, a message naming the offending node(s), and
// optional details. Errors returned by node functions and hooks are never
// wrapped into an AppError.
package errors
