// Package storage persists uploaded post images under the media root.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const imagesDir = "posts_images"

// MediaRoot returns the base directory for uploaded files (MEDIA_ROOT,
// default "media").
func MediaRoot() string {
	if root := os.Getenv("MEDIA_ROOT"); root != "" {
		return root
	}
	return "media"
}

// ImagePath returns the media-relative path for an uploaded image with the
// given original filename and content hash.
func ImagePath(filename string, sum uint64) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := sanitizeBase(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	return filepath.Join(imagesDir, fmt.Sprintf("%s_%016x%s", base, sum, ext))
}

// SaveImage writes the uploaded image into the media root and returns its
// media-relative path. The name embeds an xxHash of the content, so the same
// file saved twice lands on the same path.
func SaveImage(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	relPath := ImagePath(filename, xxhash.Sum64(data))
	fullPath := filepath.Join(MediaRoot(), relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", err
	}

	return relPath, nil
}

// Remove deletes a stored image by its media-relative path. A path that is
// already gone is not an error.
func Remove(relPath string) error {
	if relPath == "" {
		return nil
	}

	fullPath := filepath.Join(MediaRoot(), filepath.Clean(relPath))
	if !strings.HasPrefix(fullPath, filepath.Clean(MediaRoot())+string(os.PathSeparator)) {
		return fmt.Errorf("path escapes media root: %s", relPath)
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// sanitizeBase keeps filenames URL- and filesystem-safe.
func sanitizeBase(base string) string {
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		if r == ' ' {
			return '-'
		}
		return -1
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "image"
	}
	return base
}
