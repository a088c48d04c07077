package services

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("username or email already exists")
	ErrUserNotFound = errors.New("user not found")

	// ErrPostNotFound covers both a missing post and a post owned by someone
	// else; callers must not be able to tell the two apart.
	ErrPostNotFound = errors.New("post not found or not authorized")
)
