package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

// Storage is the file backend used for apartment images and booking
// documents.
type Storage interface {
	// Save stores a file under key.
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes key. Missing files are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for key.
	GetURL(key string) string
}

// Config selects and configures a backend.
type Config struct {
	Driver string // "s3" or "local"

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	LocalPath string
	LocalURL  string
}

// New builds the backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg)
	case "local", "":
		return NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Key builds "<prefix>/<owner>/<uuid><ext>" with a lower-cased extension
// taken from filename.
func Key(prefix string, owner uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(prefix, owner.String(), uuid.NewString()+ext)
}
