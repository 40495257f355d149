package media

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the pipelines.
var (
	// ErrNotFound means no record exists for the given id.
	ErrNotFound = errors.New("audio file not found")
	// ErrNotOwner means the caller's identity does not match the
	// record's uploaded_by.
	ErrNotOwner = errors.New("not the owner of this audio file")
	// ErrNotAudio means the upload's declared media type is not audio.
	ErrNotAudio = errors.New("file is not an audio file")
	// ErrEmptyTitle means the title is empty after trimming and no
	// filename was available to derive one from.
	ErrEmptyTitle = errors.New("title must not be empty")
	// ErrNoIdentity means no signed-in identity was supplied.
	ErrNoIdentity = errors.New("a signed-in identity is required")
)

// DecodeError means the uploaded bytes could not be parsed as audio:
// corrupt file, unsupported codec, or empty input.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StorageWriteError is an object store upload failure, including key
// conflicts (uploads never overwrite).
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write failed for key %q: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// StorageDeleteError is an object store removal failure.
type StorageDeleteError struct {
	Key string
	Err error
}

func (e *StorageDeleteError) Error() string {
	return fmt.Sprintf("storage delete failed for key %q: %v", e.Key, e.Err)
}

func (e *StorageDeleteError) Unwrap() error { return e.Err }

// MetadataWriteError is a metadata store insert/update/delete failure.
type MetadataWriteError struct {
	Err error
}

func (e *MetadataWriteError) Error() string {
	return fmt.Sprintf("metadata write failed: %v", e.Err)
}

func (e *MetadataWriteError) Unwrap() error { return e.Err }

// MetadataReadError is a metadata store query failure.
type MetadataReadError struct {
	Err error
}

func (e *MetadataReadError) Error() string {
	return fmt.Sprintf("metadata read failed: %v", e.Err)
}

func (e *MetadataReadError) Unwrap() error { return e.Err }
