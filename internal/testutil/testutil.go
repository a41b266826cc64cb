// Package testutil provides filesystem fixtures for ignoreclean tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// TestFixture is a scratch directory tree rooted in a temp dir
type TestFixture struct {
	T       *testing.T
	RootDir string // canonical (symlink-free) temp directory, auto-cleaned
}

// NewFixture creates an empty fixture
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}

	return &TestFixture{T: t, RootDir: root}
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// Touch creates empty files
func (f *TestFixture) Touch(relPaths ...string) {
	f.T.Helper()
	for _, p := range relPaths {
		f.CreateFile(p, nil)
	}
}

// WriteRules writes a rule file named name inside relDir, one pattern per line
func (f *TestFixture) WriteRules(relDir, name string, patterns ...string) string {
	f.T.Helper()
	content := strings.Join(patterns, "\n")
	if len(patterns) > 0 {
		content += "\n"
	}
	return f.CreateFile(filepath.Join(relDir, name), []byte(content))
}

// WriteGitignore writes a .gitignore inside relDir
func (f *TestFixture) WriteGitignore(relDir string, patterns ...string) string {
	f.T.Helper()
	return f.WriteRules(relDir, ".gitignore", patterns...)
}

// =============================================================================
// Directory Helpers
// =============================================================================

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateUnreadableDir creates a directory that cannot be listed
func (f *TestFixture) CreateUnreadableDir(relPath string) string {
	f.T.Helper()

	dirPath := f.CreateDir(relPath)
	f.CreateFile(filepath.Join(relPath, "hidden.txt"), []byte("hidden"))
	if err := os.Chmod(dirPath, 0000); err != nil {
		f.T.Fatalf("failed to chmod directory %s: %v", dirPath, err)
	}

	// Restore permissions so TempDir cleanup works
	f.T.Cleanup(func() {
		os.Chmod(dirPath, 0755)
	})

	return dirPath
}

// CreateReadOnlyDir creates a read-only directory (files inside can't be deleted)
func (f *TestFixture) CreateReadOnlyDir(relPath string) string {
	f.T.Helper()

	dirPath := f.CreateDir(relPath)
	if err := os.Chmod(dirPath, 0555); err != nil {
		f.T.Fatalf("failed to chmod directory %s: %v", dirPath, err)
	}

	f.T.Cleanup(func() {
		os.Chmod(dirPath, 0755)
	})

	return dirPath
}

// =============================================================================
// Symlink Helpers
// =============================================================================

// CreateSymlink creates a symbolic link at linkPath pointing to target.
// target is used verbatim, so pass f.Path(...) for an absolute link.
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	fullLinkPath := filepath.Join(f.RootDir, linkPath)
	dir := filepath.Dir(fullLinkPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.Symlink(target, fullLinkPath); err != nil {
		f.T.Fatalf("failed to create symlink %s -> %s: %v", fullLinkPath, target, err)
	}

	return fullLinkPath
}

// =============================================================================
// Path Helpers
// =============================================================================

// Path returns the full path for a relative path within the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// RelPath returns the relative path from the fixture root
func (f *TestFixture) RelPath(fullPath string) string {
	rel, _ := filepath.Rel(f.RootDir, fullPath)
	return rel
}

// Snapshot lists every path below the root, relative and sorted.
// Symlinks are listed but not followed.
func (f *TestFixture) Snapshot() []string {
	f.T.Helper()

	var paths []string
	err := filepath.WalkDir(f.RootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != f.RootDir {
			paths = append(paths, f.RelPath(path))
		}
		return nil
	})
	if err != nil {
		f.T.Fatalf("failed to snapshot %s: %v", f.RootDir, err)
	}
	sort.Strings(paths)
	return paths
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// Exists reports whether relPath exists, without following a final symlink
func (f *TestFixture) Exists(relPath string) bool {
	_, err := os.Lstat(f.Path(relPath))
	return err == nil
}

// AssertExists fails the test if relPath doesn't exist
func (f *TestFixture) AssertExists(relPaths ...string) {
	f.T.Helper()
	for _, p := range relPaths {
		if !f.Exists(p) {
			f.T.Errorf("expected %s to exist", p)
		}
	}
}

// AssertNotExists fails the test if relPath exists
func (f *TestFixture) AssertNotExists(relPaths ...string) {
	f.T.Helper()
	for _, p := range relPaths {
		if f.Exists(p) {
			f.T.Errorf("expected %s to not exist", p)
		}
	}
}

// AssertIsSymlink fails if relPath is not a symlink
func (f *TestFixture) AssertIsSymlink(relPath string) {
	f.T.Helper()
	info, err := os.Lstat(f.Path(relPath))
	if err != nil {
		f.T.Errorf("failed to stat %s: %v", relPath, err)
		return
	}
	if info.Mode()&os.ModeSymlink == 0 {
		f.T.Errorf("expected %s to be a symlink", relPath)
	}
}

// =============================================================================
// Utility Functions
// =============================================================================

// IsRoot returns true if running as root/admin
func IsRoot() bool {
	return os.Geteuid() == 0
}

// SkipIfRoot skips the test if running as root, where permission bits don't bite
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if IsRoot() {
		t.Skip("skipping test when running as root")
	}
}
