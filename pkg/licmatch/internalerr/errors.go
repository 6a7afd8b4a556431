package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound                = errors.New("not found")
	ErrInputDecoding           = errors.New("input decoding failed")
	ErrConfiguration           = errors.New("invalid configuration")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrCorruptEntry            = errors.New("corrupt corpus entry")
)
