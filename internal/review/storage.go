package review

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Storage stores uploaded document originals, one file per document. Stored
// names are opaque to callers: Save derives one from the document id and the
// uploaded filename, and Get/Delete take it back verbatim.
type Storage interface {
	// Save stores a document's original and returns its stored name
	Save(documentID, filename string, data []byte) (string, error)

	// Get retrieves a stored original by its stored name
	Get(storedName string) ([]byte, error)

	// Delete removes a stored original
	Delete(storedName string) error
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up an uploaded filename: directory components are
// dropped, special characters removed, and phone-generated long names
// truncated. An empty result falls back to "document".
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeChars.ReplaceAllString(base, "")
	base = multiSpace.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "document"
	}

	return base + ext
}

// Save stores a document's original under a name scoped by the document id.
// The uploaded filename is sanitized first so client-supplied paths never
// escape the storage directory.
func (l *LocalStorage) Save(documentID, filename string, data []byte) (string, error) {
	storedName := fmt.Sprintf("%s_%s", documentID, sanitizeFilename(filename))
	path := filepath.Join(l.basePath, storedName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return storedName, nil
}

// Get retrieves a stored original from local storage
func (l *LocalStorage) Get(storedName string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, storedName)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a stored original from local storage
func (l *LocalStorage) Delete(storedName string) error {
	fullPath := filepath.Join(l.basePath, storedName)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
