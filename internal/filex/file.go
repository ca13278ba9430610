// Package filex validates local files before they are offered to the
// multipart uploader. All checks run before any network I/O.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxUploadSize caps uploads at 10 MB.
const DefaultMaxUploadSize int64 = 10 << 20

// allowedExtensions lists the upload types the backend accepts:
// common image, document, and video formats.
var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".heic": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".txt": {},
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {},
}

// AllowedExtension reports whether ext (with or without leading dot,
// any case) is on the upload allow-list.
func AllowedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	_, ok := allowedExtensions[ext]
	return ok
}

// ValidateUpload checks that path points to an existing regular file with an
// allowed extension whose size does not exceed maxSize. Pass maxSize <= 0 to
// use DefaultMaxUploadSize.
func ValidateUpload(path string, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}

	if !AllowedExtension(filepath.Ext(path)) {
		return fmt.Errorf("file type %q is not allowed: %s", filepath.Ext(path), path)
	}

	if info.Size() > maxSize {
		return fmt.Errorf("file exceeds %d bytes (size %d): %s", maxSize, info.Size(), path)
	}

	return nil
}
