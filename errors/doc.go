// Package errors provides the structured error type shared by iockit packages.
// It carries a machine-readable code, retryable detection and an HTTP status
// so the same value can be logged, returned from the container helpers and
// rendered by the inspect API.
package errors
