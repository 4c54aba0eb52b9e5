package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		want        Kind
	}{
		{"video content type wins over extension", "video/mp4", "a.bin", Video},
		{"image content type wins over video extension", "image/png", "clip.mp4", Image},
		{"content type is case insensitive", " Video/QuickTime ", "x", Video},
		{"upper case extension", "", "clip.MOV", Video},
		{"jpeg extension", "", "pic.jpeg", Image},
		{"webm extension", "application/octet-stream", "stream.webm", Video},
		{"unknown extension defaults to image", "", "file.xyz", Image},
		{"no extension defaults to image", "", "file", Image},
		{"non media content type falls back to extension", "text/plain", "movie.mkv", Video},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contentType, tt.filename))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", Extension("Cat.JPG"))
	assert.Equal(t, ".webm", Extension("clip.webm"))
	assert.Equal(t, "", Extension("evil.html"))
	assert.Equal(t, "", Extension("vector.svg"))
	assert.Equal(t, "", Extension("noext"))
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		filename string
		want     string
	}{
		{"jpeg", Image, "cat.jpg", "image/jpeg"},
		{"upper case extension", Video, "clip.MOV", "video/quicktime"},
		{"webm", Video, "stream.webm", "video/webm"},
		{"html is never served as html", Image, "evil.html", OctetStream},
		{"svg is not servable", Image, "vector.svg", OctetStream},
		{"javascript", Image, "x.js", OctetStream},
		{"kind and extension disagree", Video, "cat.png", OctetStream},
		{"no extension", Image, "file", OctetStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentType(tt.kind, tt.filename))
		})
	}
}

func TestIsServable(t *testing.T) {
	tests := map[string]bool{
		"image/png":                true,
		"video/mp4":                true,
		"Image/JPEG":               true,
		"text/html":                false,
		"text/html; charset=utf-8": false,
		"image/svg+xml":            false,
		"application/octet-stream": false,
		"":                         false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsServable(in), in)
	}
}
