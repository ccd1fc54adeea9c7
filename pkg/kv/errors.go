package kv

import "errors"

var (
	// ErrNotFound indicates no value is stored under the key.
	ErrNotFound = errors.New("key not found")
	// ErrEmptyKey indicates an empty key was provided.
	ErrEmptyKey = errors.New("key must not be empty")
)
