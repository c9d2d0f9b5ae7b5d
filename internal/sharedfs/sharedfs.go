// Package sharedfs provides sandboxed access to the shared workspace
// directory and a watcher that turns filesystem activity into hub events.
package sharedfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrPathEscapesRoot is returned when a requested path resolves outside the
// shared root, whether by traversal components or by symlinks.
var ErrPathEscapesRoot = errors.New("path escapes shared root")

// Entry describes one item in a directory listing.
type Entry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	IsDir    bool      `json:"is_dir"`
	Modified time.Time `json:"modified"`
}

// FS is a filesystem rooted at the shared directory. Every operation takes a
// root-relative path and refuses to touch anything outside the root.
type FS struct {
	root string // absolute, symlink-resolved
}

// New creates the shared root if needed and returns an FS over it.
func New(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create shared root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shared root: %w", err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shared root: %w", err)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute shared root path.
func (f *FS) Root() string {
	return f.root
}

// Resolve maps a root-relative path to an absolute path inside the root.
// Traversal components and symlinks pointing outside the root are rejected.
func (f *FS) Resolve(rel string) (string, error) {
	cleaned := filepath.Clean("/" + rel) // forces interpretation relative to root
	abs := filepath.Join(f.root, cleaned)
	if !f.within(abs) {
		return "", ErrPathEscapesRoot
	}

	// Resolve symlinks on the deepest existing ancestor so a link inside the
	// root cannot smuggle the operation outside it.
	existing := abs
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !f.within(resolved) {
		return "", ErrPathEscapesRoot
	}
	return abs, nil
}

func (f *FS) within(path string) bool {
	return path == f.root || strings.HasPrefix(path, f.root+string(filepath.Separator))
}

// Rel maps an absolute path under the root back to a root-relative path with
// forward slashes.
func (f *FS) Rel(abs string) string {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// Read returns the contents of a file under the root.
func (f *FS) Read(rel string) ([]byte, error) {
	abs, err := f.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// Write stores a file under the root, creating parent directories as needed.
func (f *FS) Write(rel string, data []byte) error {
	abs, err := f.Resolve(rel)
	if err != nil {
		return err
	}
	if abs == f.root {
		return ErrPathEscapesRoot
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return os.WriteFile(abs, data, 0o644)
}

// Delete removes a file under the root.
func (f *FS) Delete(rel string) error {
	abs, err := f.Resolve(rel)
	if err != nil {
		return err
	}
	if abs == f.root {
		return ErrPathEscapesRoot
	}
	return os.Remove(abs)
}

// List returns the entries of a directory under the root, sorted by name.
func (f *FS) List(rel string) ([]Entry, error) {
	abs, err := f.Resolve(rel)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:     de.Name(),
			Path:     f.Rel(filepath.Join(abs, de.Name())),
			Size:     info.Size(),
			IsDir:    de.IsDir(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
