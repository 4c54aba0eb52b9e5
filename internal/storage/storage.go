// Package storage defines the media store contract used by the upload flow.
// The MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"io"
)

// Storage uploads and removes media objects.
type Storage interface {
	// Upload sends the content to the store. Errors are reported through the
	// returned Result, never as raw client errors.
	Upload(ctx context.Context, in UploadInput) Result
	// Delete removes a stored object by the name returned from Upload.
	Delete(ctx context.Context, fileName string) error
}

// UploadInput describes a single object to store.
type UploadInput struct {
	Reader      io.Reader
	Size        int64 // -1 when unknown
	FileName    string
	ContentType string
	Options     Options
}

// Options are store-side upload options.
type Options struct {
	// UseUniqueFileName makes the store pick a collision-free object name.
	UseUniqueFileName bool
	// Folder is an optional prefix for the stored object.
	Folder string
	// Tags are attached to the stored object.
	Tags []string
}

// Result is the outcome of an upload: either a success carrying the public
// URL and stored name, or a failure carrying a message.
type Result struct {
	ok       bool
	URL      string
	FileName string
	Message  string
}

// Success returns a successful Result.
func Success(url, fileName string) Result {
	return Result{ok: true, URL: url, FileName: fileName}
}

// Failure returns a failed Result with a human-readable message.
func Failure(message string) Result {
	if message == "" {
		message = "unknown media store error"
	}
	return Result{Message: message}
}

// OK reports whether the upload succeeded.
func (r Result) OK() bool {
	return r.ok
}
