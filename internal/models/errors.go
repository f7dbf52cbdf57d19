package models

import "errors"

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an imported session was already recorded.
	ErrDuplicate = errors.New("session already recorded")
)
