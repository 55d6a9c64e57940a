package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// Upload categories.
const (
	CategoryImage    = "image"
	CategoryDocument = "document"
)

// AllowedMimeTypes lists sniffed content types accepted per category.
var AllowedMimeTypes = map[string][]string{
	CategoryImage:    {"image/jpeg", "image/png", "image/gif", "image/webp"},
	CategoryDocument: {"application/pdf", "image/jpeg", "image/png"},
}

// MaxSizes are the default per-category upload limits in bytes.
var MaxSizes = map[string]int64{
	CategoryImage:    10 << 20,
	CategoryDocument: 15 << 20,
}

// ValidateFile reads at most maxSize bytes from reader, detects the content
// type from its magic bytes and checks it against the category allow-list.
func ValidateFile(reader io.Reader, category string, maxSize int64) ([]byte, string, error) {
	allowedTypes, ok := AllowedMimeTypes[category]
	if !ok {
		return nil, "", fmt.Errorf("unknown category: %s", category)
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	for _, t := range allowedTypes {
		if detected.Is(t) {
			return data, t, nil
		}
	}
	return nil, "", ErrInvalidMimeType
}

// NewReader wraps validated bytes for Save.
func NewReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
