// Package archive unpacks downloaded release archives and locates the true
// project root inside their unpredictable internal layout.
package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extractor is the decoding capability the updater needs from an archive
// format: listing entry paths and unpacking everything into a directory.
type Extractor interface {
	List(archivePath string) ([]string, error)
	ExtractAll(archivePath, destDir string) error
}

// ForPath selects an extractor by file extension.
func ForPath(archivePath string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip":
		return &ZipExtractor{}, nil
	case ".7z":
		return &SevenZipExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Ext(archivePath))
	}
}

// sanitizeEntry rejects entry names that would escape destDir (zip-slip)
// and returns the absolute extraction target.
func sanitizeEntry(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}
