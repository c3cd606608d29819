package mimetypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		want     MIME
		ok       bool
	}{
		{"PNG", "image/png", ImagePNG, true},
		{"JPEG", "image/jpeg", ImageJPEG, true},
		{"GIF", "image/gif", ImageGIF, true},
		{"WEBP", "image/webp", ImageWEBP, true},
		{"SVG with charset", "image/svg+xml; charset=utf-8", ImageSVG, true},
		{"Plain text", "text/plain; charset=utf-8", "text/plain", false},
		{"Octet stream", "application/octet-stream", "application/octet-stream", false},
		{"Invalid MIME", "not a mime", Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IsImage(tt.detected)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.ok, ok)
		})
	}
}
