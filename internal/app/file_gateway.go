package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/ytgrab-go/internal/domain"
)

// FileGateway resolves finished downloads inside the download directory
type FileGateway struct {
	dir string
}

// NewFileGateway creates a gateway rooted at dir
func NewFileGateway(dir string) (*FileGateway, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve download directory: %w", err)
	}
	return &FileGateway{dir: abs}, nil
}

// Dir returns the absolute download directory
func (g *FileGateway) Dir() string {
	return g.dir
}

// Resolve returns the absolute path of filename within the download
// directory. Names that could escape the directory, and files that do not
// exist, yield domain.ErrFileNotFound.
func (g *FileGateway) Resolve(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." {
		return "", domain.ErrFileNotFound
	}
	if strings.ContainsAny(filename, `/\`) || strings.ContainsRune(filename, 0) {
		return "", domain.ErrFileNotFound
	}

	path := filepath.Join(g.dir, filename)
	rel, err := filepath.Rel(g.dir, path)
	if err != nil || rel == "." || escapes(rel) || filepath.IsAbs(rel) {
		return "", domain.ErrFileNotFound
	}

	// Symlinks must not lead outside the directory either
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", domain.ErrFileNotFound
	}
	realDir, err := filepath.EvalSymlinks(g.dir)
	if err != nil {
		return "", domain.ErrFileNotFound
	}
	if rel, err := filepath.Rel(realDir, real); err != nil || escapes(rel) {
		return "", domain.ErrFileNotFound
	}

	info, err := os.Stat(real)
	if err != nil || !info.Mode().IsRegular() {
		return "", domain.ErrFileNotFound
	}

	return path, nil
}

// escapes reports whether a relative path leaves its base directory.
// Names that merely start with two dots stay inside.
func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
