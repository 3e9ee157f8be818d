package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    SelectedFile
		max     int64
		wantErr string
	}{
		{name: "valid png", file: SelectedFile{Size: 100, MIMEType: "image/png"}, max: 1 << 20},
		{name: "exactly at limit", file: SelectedFile{Size: 1 << 20, MIMEType: "image/jpeg"}, max: 1 << 20},
		{name: "one byte over", file: SelectedFile{Size: 1<<20 + 1, MIMEType: "image/png"}, max: 1 << 20,
			wantErr: "File too large. Maximum size is 1MB. Your file is 1.00MB."},
		{name: "fractional limit", file: SelectedFile{Size: 3 << 20, MIMEType: "image/png"}, max: 2621440,
			wantErr: "File too large. Maximum size is 2.5MB. Your file is 3.00MB."},
		{name: "size checked before type", file: SelectedFile{Size: 10 << 20, MIMEType: "text/plain"}, max: 5 << 20,
			wantErr: "File too large. Maximum size is 5MB. Your file is 10.00MB."},
		{name: "not an image", file: SelectedFile{Size: 10, MIMEType: "application/pdf"}, max: 1 << 20,
			wantErr: "Please select a valid image file."},
		{name: "default limit", file: SelectedFile{Size: 6 << 20, MIMEType: "image/png"}, max: 0,
			wantErr: "File too large. Maximum size is 5MB. Your file is 6.00MB."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.file, tt.max)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantErr, ve.Error())
		})
	}
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "face.PNG")
	require.NoError(t, os.WriteFile(path, pngHeader, 0644))

	f, err := LoadFile(path, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "face.PNG", f.Name)
	assert.Equal(t, "image/png", f.MIMEType)
	assert.Equal(t, int64(len(pngHeader)), f.Size)
	assert.Equal(t, pngHeader, f.Data)
}

func TestLoadFileSniffsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload")
	require.NoError(t, os.WriteFile(path, pngHeader, 0644))

	f, err := LoadFile(path, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MIMEType)
}

func TestLoadFileSkipsOversizeContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.jpg")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0644))

	f, err := LoadFile(path, 1024)
	require.NoError(t, err)
	assert.Nil(t, f.Data)
	assert.Equal(t, int64(2048), f.Size)
	assert.Error(t, Validate(f, 1024))
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.png"), 1024)
	assert.Error(t, err)

	_, err = LoadFile(t.TempDir(), 1024)
	assert.Error(t, err)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/gif;base64,R0lG", DataURL("image/gif", []byte("GIF")))
	assert.Equal(t, "data:application/octet-stream;base64,", DataURL("", nil))
}

func TestDetectMIMEType(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIMEType(pngHeader))
	assert.Equal(t, "text/plain", DetectMIMEType([]byte("hello")))
}
