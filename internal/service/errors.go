package service

import "errors"

// Sentinel errors for the three failure classes every operation can hit.
// None are transient; callers map them to HTTP statuses and never retry.
var (
	// ErrNotFound: the requested declaration, invoice, asset or customer
	// does not exist (or belongs to another user).
	ErrNotFound = errors.New("not found")

	// ErrInvalidState: the operation conflicts with a lifecycle state,
	// e.g. updating or recalculating a FINAL declaration.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput: the request itself is malformed beyond what binding
	// catches, e.g. an unknown box id or a reverse-charge line without a
	// jurisdiction.
	ErrInvalidInput = errors.New("invalid input")
)
