// Package rules compiles per-directory ignore rule files into matchers.
//
// The pattern grammar itself is gitignore's and is delegated to go-git's
// gitignore implementation. This package adds strict rejection of malformed
// rule files, matching of absolute paths relative to the directory that
// holds the rule file, and per-entry verdicts: a pattern only counts when it
// matches the entry itself, not merely one of its parent directories.
package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DefaultFileName is the rule file looked up in every visited directory
const DefaultFileName = ".gitignore"

// Verdict is the outcome of testing a path against a Matcher
type Verdict int

const (
	Kept Verdict = iota
	Ignored
)

// String returns a human-readable verdict
func (v Verdict) String() string {
	switch v {
	case Ignored:
		return "ignored"
	case Kept:
		return "kept"
	default:
		return "unknown"
	}
}

// ParseError reports a rule file that could not be compiled
type ParseError struct {
	File    string
	Line    int
	Pattern string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: invalid pattern %q", e.File, e.Line, e.Pattern)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Unwrap returns the underlying error, if any
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Matcher is a compiled rule file. It is immutable once built.
type Matcher struct {
	base   string
	source string
	rules  []rule
}

// rule is one compiled pattern line
type rule struct {
	pattern gitignore.Pattern
	glob    string // set for patterns containing a slash, matched against the whole relative path
	dirOnly bool
}

// CompileFile reads and compiles the rule file at path. Patterns are
// evaluated relative to the directory containing the file.
func CompileFile(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: path, Err: err}
	}

	m, err := Compile(filepath.Dir(path), bytes.NewReader(data))
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = path
			return nil, pe
		}
		return nil, &ParseError{File: path, Err: err}
	}
	m.source = path

	return m, nil
}

// Compile compiles rule text read from r into a Matcher rooted at base
func Compile(base string, r io.Reader) (*Matcher, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve rule base %s: %w", base, err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var compiled []rule
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		body := patternBody(line)
		if body == "" {
			continue
		}
		if !validGlob(body) {
			return nil, &ParseError{Line: i + 1, Pattern: line}
		}

		compiled = append(compiled, newRule(line, body))
	}

	return &Matcher{
		base:  absBase,
		rules: compiled,
	}, nil
}

func newRule(line, body string) rule {
	r := rule{pattern: gitignore.ParsePattern(line, nil)}

	trimmed := strings.TrimPrefix(line, "!")
	if !strings.HasSuffix(trimmed, `\ `) {
		trimmed = strings.TrimRight(trimmed, " ")
	}
	if strings.HasSuffix(trimmed, "/") {
		r.dirOnly = true
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	if strings.Contains(trimmed, "/") {
		r.glob = escapeBraces(body)
	}
	return r
}

// matchesSelf reports whether the rule matches the entry at parts itself.
// go-git also reports a match when only an ancestor inside the base matches.
func (r rule) matchesSelf(parts []string, isDir bool) bool {
	if r.glob == "" {
		return r.pattern.Match(parts[len(parts)-1:], isDir) != gitignore.NoMatch
	}
	if r.dirOnly && !isDir {
		return false
	}
	ok, err := doublestar.Match(r.glob, strings.Join(parts, "/"))
	return err == nil && ok
}

// Source returns the rule file path, empty for matchers compiled from a reader
func (m *Matcher) Source() string {
	return m.source
}

// Len returns the number of compiled patterns
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match tests an absolute path against the rules. The last pattern matching
// the entry itself decides. Paths outside the matcher's base directory are
// always kept.
func (m *Matcher) Match(path string, isDir bool) Verdict {
	rel, err := filepath.Rel(m.base, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Kept
	}

	parts := strings.Split(rel, string(filepath.Separator))
	for i := len(m.rules) - 1; i >= 0; i-- {
		r := m.rules[i]
		result := r.pattern.Match(parts, isDir)
		if result == gitignore.NoMatch || !r.matchesSelf(parts, isDir) {
			continue
		}
		if result == gitignore.Include {
			return Kept
		}
		return Ignored
	}
	return Kept
}

// patternBody strips the negation prefix, unescaped trailing spaces and the
// directory suffix from a rule line, leaving the glob itself.
func patternBody(line string) string {
	body := line
	switch {
	case strings.HasPrefix(body, `\!`), strings.HasPrefix(body, `\#`):
		body = body[1:]
	case strings.HasPrefix(body, "!"):
		body = body[1:]
	}
	if !strings.HasSuffix(body, `\ `) {
		body = strings.TrimRight(body, " ")
	}
	return strings.Trim(body, "/")
}

// validGlob reports whether a pattern body is well formed
func validGlob(body string) bool {
	return doublestar.ValidatePattern(escapeBraces(body))
}

// escapeBraces makes braces literal. gitignore has no brace alternation.
func escapeBraces(body string) string {
	var b strings.Builder
	escaped := false
	for _, r := range body {
		if !escaped && (r == '{' || r == '}') {
			b.WriteRune('\\')
		}
		escaped = !escaped && r == '\\'
		b.WriteRune(r)
	}
	return b.String()
}
