package storage

import "github.com/JaimeStill/tollgate/pkg/apperr"

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = apperr.NotFound("BlobNotFound", "Blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = apperr.BadRequest("InvalidStorageKey", "Storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = apperr.BadRequest("InvalidStorageKey", "Storage key contains invalid path segment")
)
