package textutil

import (
	"crypto/rand"
	"path/filepath"
	"strings"
)

const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomName returns n characters drawn from lowercase letters and digits.
func RandomName(n int) string {
	if n <= 0 {
		n = 12
	}
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = nameAlphabet[int(b)%len(nameAlphabet)]
	}
	return string(buf)
}

// OutputPath places a randomly named file with extension ext under dir.
func OutputPath(dir, ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		ext = ".mp4"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, RandomName(12)+ext)
}

// UploadName builds the stored name for an uploaded file: a fresh id joined
// with the sanitized original base name so listings stay readable.
func UploadName(id, original string) string {
	base := SanitizeFileName(filepath.Base(original))
	if base == "" || base == "." {
		return id
	}
	return id + "_" + strings.ReplaceAll(base, " ", "_")
}
