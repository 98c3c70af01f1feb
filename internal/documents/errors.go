package documents

import "errors"

var (
	// ErrNotFound covers both missing documents and documents owned by
	// another user, so existence never leaks across tenants.
	ErrNotFound = errors.New("document not found")

	ErrInvalidInput = errors.New("invalid input")

	// ErrNoText marks an operation that needs extracted text on a document
	// that has none yet.
	ErrNoText = errors.New("document text has not been extracted")

	// ErrStaleStatus is returned when a conditional status transition loses
	// to a concurrent writer.
	ErrStaleStatus = errors.New("document status changed concurrently")

	// ErrPartialDelete signals that either the stored bytes or the metadata
	// record survived a delete; the document is in a torn state.
	ErrPartialDelete = errors.New("document partially deleted")
)
