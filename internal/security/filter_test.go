package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateSkipPattern(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		shouldError bool
	}{
		{"literal", "vendor", false},
		{"anchored", `^/home/.*/keep$`, false},
		{"alternation", `\.(lock|keep)$`, false},
		{"empty matches everything", "", false},
		{"unclosed group", "(abc", true},
		{"bad repetition", "*abc", true},
		{"unclosed class", "[abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSkipPattern(tt.pattern)
			if tt.shouldError && err == nil {
				t.Errorf("Expected error for pattern '%s', got nil", tt.pattern)
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Expected no error for pattern '%s', got: %v", tt.pattern, err)
			}
		})
	}
}

func TestNewSkipFilterInvalid(t *testing.T) {
	if _, err := NewSkipFilter([]string{"ok", "(broken"}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestSkipFilterEmpty(t *testing.T) {
	f, err := NewSkipFilter(nil)
	if err != nil {
		t.Fatalf("NewSkipFilter: %v", err)
	}
	if skip, _ := f.Skip("/anything"); skip {
		t.Error("empty filter must not skip")
	}

	var nilFilter *SkipFilter
	if skip, _ := nilFilter.Skip("/anything"); skip {
		t.Error("nil filter must not skip")
	}
}

func TestSkipFilterMatchesCanonicalPath(t *testing.T) {
	tmp := t.TempDir()
	realDir, err := filepath.EvalSymlinks(tmp)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}

	protected := filepath.Join(realDir, "protected")
	if err := os.Mkdir(protected, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	alias := filepath.Join(realDir, "alias")
	if err := os.Symlink(protected, alias); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	f, err := NewSkipFilter([]string{`/protected$`, `/never$`})
	if err != nil {
		t.Fatalf("NewSkipFilter: %v", err)
	}

	skip, pattern := f.Skip(protected)
	if !skip || pattern != `/protected$` {
		t.Errorf("Skip(protected) = %v, %q", skip, pattern)
	}

	// The alias resolves to the protected directory
	if skip, _ := f.Skip(alias); !skip {
		t.Error("symlink resolving to a protected path must be skipped")
	}

	// Patterns are tested against the canonical path, not the link name
	byName, err := NewSkipFilter([]string{`/alias$`})
	if err != nil {
		t.Fatalf("NewSkipFilter: %v", err)
	}
	if skip, _ := byName.Skip(alias); skip {
		t.Error("pattern on the link name must not match the canonical path")
	}

	if skip, _ := f.Skip(filepath.Join(realDir, "other")); skip {
		t.Error("unrelated path must not be skipped")
	}
}

func TestSkipFilterFirstMatchWins(t *testing.T) {
	f, err := NewSkipFilter([]string{`\.txt$`, `keep`})
	if err != nil {
		t.Fatalf("NewSkipFilter: %v", err)
	}
	skip, pattern := f.Skip("/nonexistent/keep.txt")
	if !skip || pattern != `\.txt$` {
		t.Errorf("Skip = %v, %q, want first pattern", skip, pattern)
	}
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
}
