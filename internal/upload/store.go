// Package upload persists multipart image uploads on local disk under
// random names and hands back the path they are served from.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MaxFileSize is the upload ceiling; larger files are rejected outright.
const MaxFileSize = 10 << 20 // 10 MB

var ErrTooLarge = errors.New("file exceeds upload size limit")

type Store struct {
	dir string
}

// NewStore creates the upload directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save writes the uploaded file under a random name, keeping the original
// extension, and returns the stored file name.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxFileSize {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(fh.Filename)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	// The size header is client-supplied; cap the copy as well.
	if _, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1)); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if fi, err := dst.Stat(); err == nil && fi.Size() > MaxFileSize {
		os.Remove(dst.Name())
		return "", ErrTooLarge
	}

	return name, nil
}
