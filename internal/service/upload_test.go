package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadService_Save(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, 5*1024*1024)

	data := []byte("fake png bytes")
	url, err := svc.Save(context.Background(), "photo.PNG", "image/png", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/products/"))
	assert.True(t, strings.HasSuffix(url, ".png"), "extension is kept, lowercased: %s", url)
	assert.NotContains(t, url, "photo", "original filename must not leak into the stored name")

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/products/")))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestUploadService_Save_NotAnImage(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, 5*1024*1024)

	_, err := svc.Save(context.Background(), "run.sh", "application/x-sh", 4, strings.NewReader("boom"))
	assert.ErrorIs(t, err, ErrNotImage)
	assertDirEmpty(t, dir)
}

func TestUploadService_Save_TooLarge(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, 1024)

	_, err := svc.Save(context.Background(), "big.png", "image/png", 2048, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assertDirEmpty(t, dir)
}

func TestUploadService_Save_DeclaredSizeLied(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, 16)

	body := strings.Repeat("a", 64)
	_, err := svc.Save(context.Background(), "big.png", "image/png", 8, strings.NewReader(body))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assertDirEmpty(t, dir)
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
