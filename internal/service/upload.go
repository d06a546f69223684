package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotImage     = errors.New("file is not an image")
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)

// UploadService stores admin-uploaded product images on local disk under a
// random filename and hands back the public path they are served from.
type UploadService struct {
	dir     string
	maxSize int64
}

func NewUploadService(dir string, maxSize int64) *UploadService {
	return &UploadService{dir: dir, maxSize: maxSize}
}

func (s *UploadService) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}
	if size > s.maxSize {
		return "", ErrFileTooLarge
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	// Limit the copy too in case the declared size lied.
	if _, err := io.Copy(f, io.LimitReader(r, s.maxSize+1)); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if info, err := f.Stat(); err == nil && info.Size() > s.maxSize {
		os.Remove(path)
		return "", ErrFileTooLarge
	}

	return "/products/" + name, nil
}
