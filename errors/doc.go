// Package errors provides unified error handling for the auth service.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection following RFC 7807.
//
// Messages for authentication and reset-token failures are intentionally
// generic: the same body is returned whether an account exists or not, so
// responses cannot be used to enumerate registered emails. Only input
// validation errors name the violated rule.
package errors
