// Package upload saves message attachments under the static uploads directory.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultDir is where uploads land when no directory is configured.
const DefaultDir = "static/uploads"

// Namespace prefixes every reference Save returns, wherever the files
// actually live on disk.
const Namespace = "static/uploads"

// ErrNoExtension is returned for file names without an extension.
var ErrNoExtension = errors.New("The file you uploaded lacks an extension.")

var filenamePattern = regexp.MustCompile(`^(.+)(\.\S+)$`)

// Store writes uploaded files into a directory, never overwriting.
type Store struct {
	dir string
}

// New returns a Store rooted at dir (DefaultDir when empty).
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes content under the attachment's file name and returns its
// reference, Namespace/name. An existing file is never replaced: name.ext
// becomes name-1.ext, name-2.ext and so on.
func (s *Store) Save(ctx context.Context, filename string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := filepath.Base(filename)
	match := filenamePattern.FindStringSubmatch(name)
	if match == nil {
		return "", ErrNoExtension
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	for i := 1; exists(filepath.Join(s.dir, name)); i++ {
		name = fmt.Sprintf("%s-%d%s", match[1], i, match[2])
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), content, 0644); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}

	return path.Join(Namespace, name), nil
}

// Resolve maps a reference returned by Save, with or without a leading
// slash, to the file on disk. It reports false for anything outside
// Namespace or naming a nested path.
func (s *Store) Resolve(ref string) (string, bool) {
	name, ok := strings.CutPrefix(strings.TrimPrefix(ref, "/"), Namespace+"/")
	if !ok || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
