// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates malformed caller input.
var ErrValidation = errors.New("validation failed")

// ErrQuotaExceeded indicates an identity used up its free allowance.
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrUpstream indicates a dependent external service failed or is unavailable.
var ErrUpstream = errors.New("upstream unavailable")
