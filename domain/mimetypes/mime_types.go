// Package mimetypes names the media types a chat message may carry.
package mimetypes

import (
	"mime"
	"strings"
)

type MIME string

const (
	Unknown   MIME = "unknown"
	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWEBP MIME = "image/webp"
	ImageBMP  MIME = "image/bmp"
	ImageSVG  MIME = "image/svg+xml"
)

// Parse strips parameters from a detected media type.
func Parse(detected string) MIME {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

// IsImage reports whether a detected media type is any image/* type.
func IsImage(detected string) (MIME, bool) {
	mt := Parse(detected)
	return mt, strings.HasPrefix(string(mt), "image/")
}
