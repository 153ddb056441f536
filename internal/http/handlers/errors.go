// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via `fail()` and `failErr()` in this package). These codes give
// clients a stable, machine-readable error taxonomy that supplements
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Storage codes distinguish an unreachable database (db_unavailable) from
//     a failed statement (db_error); both are 500s.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "bad_request",
//	  "message": "list_id must be a decimal integer"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
	ErrCodePayloadTooLarge  = "payload_too_large"

	// Storage:
	ErrCodeDBUnavailable = "db_unavailable"
	ErrCodeDBError       = "db_error"
)
