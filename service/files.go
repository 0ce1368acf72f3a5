package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/leejason2025/audiostudio/config"
)

// FileStore stages uploaded audio files on local disk until the worker
// is done with them.
type FileStore struct {
	dir         string
	maxBytes    int64
	maxSizeMB   int
	allowedExts []string
}

func NewFileStore(cfg *config.UploadConfig) *FileStore {
	exts := make([]string, 0, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		exts = append(exts, strings.ToLower(ext))
	}
	return &FileStore{
		dir:         cfg.Dir,
		maxBytes:    cfg.MaxFileSizeBytes(),
		maxSizeMB:   cfg.MaxFileSizeMB,
		allowedExts: exts,
	}
}

// Prepare creates the upload directory.
func (f *FileStore) Prepare() error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// Validate rejects bad uploads before any job record exists. Every
// rejection is a *ValidationError whose reason is shown to the client.
func (f *FileStore) Validate(header *multipart.FileHeader) error {
	if header.Filename == "" {
		return &ValidationError{Reason: "No filename provided"}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !f.extAllowed(ext) {
		return &ValidationError{
			Reason: fmt.Sprintf("Invalid file format. Only %s files are allowed.", f.describeAllowed()),
		}
	}

	// Some clients send no MIME type or a generic one, so the extension
	// list is the real gate. Reject only clearly non-audio types.
	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, "audio/") {
		return &ValidationError{Reason: "Invalid file type. Only audio files are allowed."}
	}

	if header.Size == 0 {
		return &ValidationError{Reason: "Uploaded file is empty"}
	}
	if header.Size > f.maxBytes {
		return &ValidationError{
			Reason: fmt.Sprintf("File size exceeds limit of %dMB", f.maxSizeMB),
		}
	}

	return nil
}

// Save stores the upload as <jobID><ext> under the upload directory and
// returns the full path.
func (f *FileStore) Save(src io.Reader, jobID, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(f.dir, jobID+ext)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return path, nil
}

// Remove deletes a staged file. A file that is already gone returns
// ErrFileMissing so callers can log it apart from a real failure.
func (f *FileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrFileMissing
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (f *FileStore) extAllowed(ext string) bool {
	for _, allowed := range f.allowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (f *FileStore) describeAllowed() string {
	names := make([]string, 0, len(f.allowedExts))
	for _, ext := range f.allowedExts {
		names = append(names, strings.ToUpper(strings.TrimPrefix(ext, ".")))
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
