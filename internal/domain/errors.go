// Package domain holds sentinel errors shared across the service layers.
package domain

import "errors"

var (
	// ErrDatasetNotLoaded signals that the listings snapshot is absent or empty.
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	// ErrInvalidQuery signals a malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrFileNotFound signals a missing required source file.
	ErrFileNotFound = errors.New("source file not found")
	// ErrUndecodable signals that a source file could not be decoded in any known encoding.
	ErrUndecodable = errors.New("undecodable source file")
)
