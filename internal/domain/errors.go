package domain

import "errors"

var (
	ErrEntryNotFound   = errors.New("library entry not found")
	ErrInvalidPatch    = errors.New("invalid state patch")
	ErrEmptyImage      = errors.New("empty image payload")
	ErrBadImagePayload = errors.New("malformed image payload")
)
