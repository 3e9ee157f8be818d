package workflow

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultMaxFileSize is the upload limit used when none is configured (5 MiB).
const DefaultMaxFileSize int64 = 5 << 20

const (
	mebibyte            = 1024 * 1024
	invalidImageMessage = "Please select a valid image file."
)

// SelectedFile is an image chosen by the user.
type SelectedFile struct {
	Name     string
	Size     int64
	MIMEType string
	// Data is nil when the file was too large to be read.
	Data []byte
}

// FileInfo is the metadata part of a SelectedFile.
type FileInfo struct {
	Name     string `json:"name" yaml:"name"`
	Size     int64  `json:"size" yaml:"size"`
	MIMEType string `json:"mime_type" yaml:"mime_type"`
}

// ValidationError rejects a selection before any network activity.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate applies the size limit, then the image type check.
func Validate(f *SelectedFile, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}
	if f.Size > maxBytes {
		return &ValidationError{Message: fmt.Sprintf(
			"File too large. Maximum size is %sMB. Your file is %.2fMB.",
			formatLimit(maxBytes), float64(f.Size)/mebibyte,
		)}
	}
	if !strings.HasPrefix(f.MIMEType, "image/") {
		return &ValidationError{Message: invalidImageMessage}
	}
	return nil
}

func formatLimit(maxBytes int64) string {
	return strconv.FormatFloat(float64(maxBytes)/mebibyte, 'f', -1, 64)
}

// LoadFile builds a SelectedFile from disk. Files over maxBytes are described
// but not read, so validation can reject them without loading them.
func LoadFile(path string, maxBytes int64) (*SelectedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	sf := &SelectedFile{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
	}
	if maxBytes > 0 && sf.Size > maxBytes {
		return sf, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	sf.Data = data
	sf.Size = int64(len(data))
	if sf.MIMEType == "" {
		sf.MIMEType = DetectMIMEType(data)
	}
	return sf, nil
}

// DetectMIMEType sniffs the content type, dropping any parameters.
func DetectMIMEType(data []byte) string {
	ct := http.DetectContentType(data)
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

func (f *SelectedFile) info() *FileInfo {
	return &FileInfo{Name: f.Name, Size: f.Size, MIMEType: f.MIMEType}
}
