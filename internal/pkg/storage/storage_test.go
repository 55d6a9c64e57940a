package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLocalStorageSaveExistsDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	ctx := context.Background()

	key := "bookings/abc/doc.pdf"
	if err := s.Save(ctx, key, strings.NewReader("%PDF-1.4"), "application/pdf"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bookings", "abc", "doc.pdf")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	ok, err := s.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected file to exist, ok=%v err=%v", ok, err)
	}
	if got := s.GetURL(key); got != "http://localhost:8080/files/bookings/abc/doc.pdf" {
		t.Fatalf("unexpected url %q", got)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s, _ := NewLocalStorage(t.TempDir(), "")
	if err := s.Save(context.Background(), "../escape.txt", strings.NewReader("x"), "text/plain"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestValidateFile(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	data, mime, err := ValidateFile(bytes.NewReader(png), CategoryImage, 1024)
	if err != nil || mime != "image/png" || len(data) != len(png) {
		t.Fatalf("unexpected result mime=%q err=%v", mime, err)
	}

	if _, _, err := ValidateFile(bytes.NewReader(png), CategoryImage, 8); err != ErrFileTooLarge {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if _, _, err := ValidateFile(strings.NewReader("plain text"), CategoryImage, 1024); err != ErrInvalidMimeType {
		t.Fatalf("expected ErrInvalidMimeType, got %v", err)
	}
	if _, _, err := ValidateFile(strings.NewReader(""), CategoryDocument, 1024); err != ErrEmptyFile {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestKey(t *testing.T) {
	owner := uuid.New()
	k := Key("apartments", owner, "Photo.JPG")
	if !strings.HasPrefix(k, "apartments/"+owner.String()+"/") || !strings.HasSuffix(k, ".jpg") {
		t.Fatalf("unexpected key %q", k)
	}
}
