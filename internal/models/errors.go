package models

import "errors"

var (
	// ErrInvalidReference means the input could not be turned into a
	// repository coordinate (bad URL or unknown alias).
	ErrInvalidReference = errors.New("invalid repository reference")

	// ErrRepositoryUnavailable means the coordinate parsed but the repository
	// could not be reached: not found, private, or a network/API failure.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrSessionNotFound is returned for unknown and expired session ids alike.
	ErrSessionNotFound = errors.New("session not found")

	// ErrModelResponse means the language model call failed or returned
	// something that could not be used.
	ErrModelResponse = errors.New("model response failed")
)
