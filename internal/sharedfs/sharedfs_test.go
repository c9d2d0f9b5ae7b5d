package sharedfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func createTestFS(t *testing.T) *FS {
	t.Helper()
	fs, err := New(filepath.Join(t.TempDir(), "shared"))
	if err != nil {
		t.Fatalf("failed to create shared fs: %v", err)
	}
	return fs
}

func TestFS_WriteReadDelete(t *testing.T) {
	fs := createTestFS(t)

	if err := fs.Write("notes/plan.md", []byte("hello")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	data, err := fs.Read("notes/plan.md")
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected hello, got %q", data)
	}

	if err := fs.Delete("notes/plan.md"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := fs.Read("notes/plan.md"); err == nil {
		t.Error("expected read after delete to fail")
	}
}

func TestFS_List(t *testing.T) {
	fs := createTestFS(t)

	if err := fs.Write("b.txt", []byte("b")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := fs.Write("a.txt", []byte("a")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := fs.Write("sub/c.txt", []byte("c")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	entries, err := fs.List("")
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[1].Name != "b.txt" || entries[2].Name != "sub" {
		t.Errorf("unexpected order: %v", entries)
	}
	if !entries[2].IsDir {
		t.Error("expected sub to be a directory")
	}
}

func TestFS_RejectsTraversal(t *testing.T) {
	fs := createTestFS(t)

	// Plant a file next to the root that must stay unreachable.
	outside := filepath.Join(filepath.Dir(fs.Root()), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("failed to plant outside file: %v", err)
	}

	for _, rel := range []string{
		"../secret.txt",
		"sub/../../secret.txt",
		"../../etc/passwd",
	} {
		// Clean collapses the traversal back inside the root, so the read must
		// not reach the outside file.
		data, err := fs.Read(rel)
		if err == nil && string(data) == "secret" {
			t.Errorf("Read(%q) escaped the root", rel)
		}
	}
}

func TestFS_RejectsSymlinkEscape(t *testing.T) {
	fs := createTestFS(t)

	outsideDir := filepath.Join(filepath.Dir(fs.Root()), "outside")
	if err := os.MkdirAll(outsideDir, 0o755); err != nil {
		t.Fatalf("failed to create outside dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outsideDir, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatalf("failed to plant outside file: %v", err)
	}
	if err := os.Symlink(outsideDir, filepath.Join(fs.Root(), "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := fs.Read("link/secret.txt"); !errors.Is(err, ErrPathEscapesRoot) {
		t.Errorf("expected ErrPathEscapesRoot, got %v", err)
	}
	if err := fs.Write("link/evil.txt", []byte("x")); !errors.Is(err, ErrPathEscapesRoot) {
		t.Errorf("expected ErrPathEscapesRoot on write, got %v", err)
	}
}

func TestFS_RejectsRootMutation(t *testing.T) {
	fs := createTestFS(t)

	if err := fs.Write("", []byte("x")); !errors.Is(err, ErrPathEscapesRoot) {
		t.Errorf("expected ErrPathEscapesRoot writing root, got %v", err)
	}
	if err := fs.Delete("."); !errors.Is(err, ErrPathEscapesRoot) {
		t.Errorf("expected ErrPathEscapesRoot deleting root, got %v", err)
	}
}

func TestHidden(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"notes/plan.md", false},
		{".git/config", true},
		{"sub/.cache/x", true},
		{"normal/file.txt", false},
	}
	for _, tt := range tests {
		if got := hidden(tt.rel); got != tt.want {
			t.Errorf("hidden(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}
