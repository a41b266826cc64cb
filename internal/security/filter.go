package security

import (
	"fmt"
	"regexp"
)

// SkipFilter force-excludes entries whose canonical path matches one of the
// operator-supplied regular expressions. An excluded entry is never
// reported, measured or deleted, but directories are still walked.
type SkipFilter struct {
	patterns []*regexp.Regexp
}

// ValidateSkipPattern checks that a skip pattern compiles
func ValidateSkipPattern(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid skip pattern %q: %w", pattern, err)
	}
	return nil
}

// NewSkipFilter compiles the skip patterns
func NewSkipFilter(patterns []string) (*SkipFilter, error) {
	f := &SkipFilter{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Len returns the number of patterns
func (f *SkipFilter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.patterns)
}

// Skip reports whether path must be excluded. The first matching pattern is
// returned alongside; later patterns are not tested.
func (f *SkipFilter) Skip(path string) (bool, string) {
	if f.Len() == 0 {
		return false, ""
	}

	canonical := Canonicalize(path)
	for _, re := range f.patterns {
		if re.MatchString(canonical) {
			return true, re.String()
		}
	}
	return false, ""
}
