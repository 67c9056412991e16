package storage

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accmarket/pkg/errors"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestDetectImage(t *testing.T) {
	contentType, ext, err := DetectImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	contentType, ext, err = DetectImage([]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, ".jpg", ext)
}

func TestDetectImageRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
		{"pdf", []byte("%PDF-1.7\n")},
		{"too large", append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxImageSize)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DetectImage(tt.data)
			assert.True(t, errors.Is(err, errors.CodeValidation), "got %v", err)
		})
	}
}

func TestObjectName(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	assert.Regexp(t, `^public/accs/20260301123000-[0-9a-f-]{36}\.png$`, ObjectName("/accs/", ".png", at))
	assert.Regexp(t, `^public/uploads/20260301123000-`, ObjectName("", ".jpg", at))
}
