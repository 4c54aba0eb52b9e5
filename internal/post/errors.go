package post

import "errors"

// ErrNotFound is returned when a post does not exist or belongs to someone else.
var ErrNotFound = errors.New("post not found")

// StagingError means the upload could not be written to local staging.
type StagingError struct {
	Err error
}

func (e *StagingError) Error() string { return "stage upload: " + e.Err.Error() }
func (e *StagingError) Unwrap() error { return e.Err }

// UploadBackendError means the media store rejected or failed the upload.
type UploadBackendError struct {
	Message string
}

func (e *UploadBackendError) Error() string { return "media store upload failed: " + e.Message }

// PersistenceError means the post row could not be committed after a
// successful media upload. The stored object is left in place.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persist post: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }
