// Package errors provides the structured error type used across the service.
// Every error that reaches an HTTP client is an AppError carrying a code,
// a client-facing message and the HTTP status to answer with.
package errors
