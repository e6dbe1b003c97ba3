package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const maxExtLen = 10

// Upload is one audio file received from a client.
type Upload struct {
	// Filename is the client-supplied name; only its extension is kept.
	Filename string
	Body     io.Reader
	Language string
	Format   string
}

// extension returns the lowercase extension of the client filename, or ""
// when it is missing or looks unsafe.
func extension(filename string) string {
	ext := filepath.Ext(filepath.Base(filename))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return strings.ToLower(ext)
}

// saveUpload writes body to dir/<stem><ext> and returns the path.
func saveUpload(dir, stem, filename string, body io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	path := filepath.Join(dir, stem+extension(filename))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing upload: %w", err)
	}
	return path, nil
}
