// Package blobstore stores uploaded bytes under slash-separated paths and
// serves them back over HTTP.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrInvalidPath      = errors.New("invalid blob path")
	ErrUnsupportedMedia = errors.New("only image uploads are accepted")
	ErrEmptyBlob        = errors.New("blob is empty")
	ErrBlobTooLarge     = errors.New("blob exceeds the size limit")
)

// MaxBlobSize caps a single upload.
const MaxBlobSize = 5 << 20

// FileStore keeps blobs in a local directory. URLs handed out are baseURL
// joined with the stored path, so the directory must be served at baseURL.
type FileStore struct {
	root    string
	baseURL string
}

func NewFileStore(root, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FileStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload stores an image under name and returns its retrieval URL. The file
// extension is taken from the sniffed content type.
func (s *FileStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean, err := cleanPath(name)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyBlob
	}
	if len(data) > MaxBlobSize {
		return "", fmt.Errorf("%w: %d bytes", ErrBlobTooLarge, len(data))
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedMedia, mtype.String())
	}
	clean += mtype.Extension()

	target := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", clean, err)
	}

	return s.baseURL + "/" + clean, nil
}

func cleanPath(name string) (string, error) {
	if name == "" || strings.Contains(name, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
		}
	}
	return path.Clean(name), nil
}

// Remove deletes the blob behind a URL returned by Upload. Removing a blob
// that is already gone is not an error.
func (s *FileStore) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return fmt.Errorf("%w: %q is not a stored blob", ErrInvalidPath, url)
	}
	clean, err := cleanPath(name)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob %s: %w", clean, err)
	}
	return nil
}

// Handler serves stored blobs. Mount it with the URL prefix stripped.
// Directories are never listed.
func (s *FileStore) Handler() http.Handler {
	return http.FileServer(filesOnly{http.Dir(s.root)})
}

// filesOnly hides directories, so a listing request answers 404.
type filesOnly struct {
	dir http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.dir.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
