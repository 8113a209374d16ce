package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by repositories on a unique-key conflict.
	ErrDuplicate = errors.New("already exists")
)
