package domain

import "errors"

var (
	// ErrMissingInput marks a required dataset that is absent.
	ErrMissingInput = errors.New("missing required input")
	// ErrMissingColumn marks a required column that none of its candidate names matched.
	ErrMissingColumn = errors.New("missing required column")
)
