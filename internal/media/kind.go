// Package media decides whether an upload is an image or a video and which
// content type it may be served with.
package media

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind is the media type stored on a post.
type Kind string

const (
	Image Kind = "image"
	Video Kind = "video"
)

// OctetStream is served for anything that is not a recognised image or video.
const OctetStream = "application/octet-stream"

var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Classify returns the media kind from the declared content type, falling
// back to the file extension and finally to Image. It never fails.
func Classify(contentType, filename string) Kind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "video/"):
		return Video
	case strings.HasPrefix(ct, "image/"):
		return Image
	}

	if t, ok := extensionTypes[ext(filename)]; ok && strings.HasPrefix(t, "video/") {
		return Video
	}
	return Image
}

// Extension returns the lower-cased extension of filename when it is a known
// image or video extension, and "" otherwise.
func Extension(filename string) string {
	e := ext(filename)
	if _, ok := extensionTypes[e]; ok {
		return e
	}
	return ""
}

// ContentType returns the content type a file of the given kind is stored
// with. It is derived from the extension only and must agree with kind;
// anything else is OctetStream. The client's declared type is never used.
func ContentType(kind Kind, filename string) string {
	e := ext(filename)
	ct, ok := extensionTypes[e]
	if !ok {
		ct = mime.TypeByExtension(e)
	}
	if IsServable(ct) && strings.HasPrefix(ct, string(kind)+"/") {
		return ct
	}
	return OctetStream
}

// IsServable reports whether contentType is an image or video type that is
// safe to serve inline from the public media origin. SVG is excluded because
// it can carry script.
func IsServable(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mt == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mt, "image/") || strings.HasPrefix(mt, "video/")
}

func ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
