package cleaner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/ignoreclean/internal/config"
	"github.com/fenilsonani/ignoreclean/internal/rules"
	"github.com/fenilsonani/ignoreclean/internal/security"
	"github.com/rs/zerolog"
)

// EntryKind classifies an ignored entry. Symlink wins over dir and file.
type EntryKind string

const (
	KindFile    EntryKind = "file"
	KindDir     EntryKind = "dir"
	KindSymlink EntryKind = "symlink"
)

// Entry is one ignored filesystem object
type Entry struct {
	Path    string    `json:"path" yaml:"path"`
	Kind    EntryKind `json:"kind" yaml:"kind"`
	IsDir   bool      `json:"is_dir" yaml:"is_dir"` // follows symlinks, used for display
	Size    int64     `json:"size" yaml:"size"`
	Deleted bool      `json:"deleted" yaml:"deleted"`
}

// Output receives user-facing events as the walk progresses
type Output interface {
	DryRunNotice()
	Entry(e Entry)
	Error(err error)
}

// CleanResult represents the result of a clean operation
type CleanResult struct {
	Root            string
	Entries         []Entry
	TotalSize       int64
	Matched         int
	Deleted         int
	SkippedSymlinks int
	Errors          []error // reported, non-fatal
	Aborted         bool    // root rule file failed to compile
	DryRun          bool
}

// runState is the only mutable state of a walk. One walk owns it.
type runState struct {
	result *CleanResult
}

func (s *runState) add(size int64) {
	s.result.TotalSize += size
}

// Cleaner walks a tree and removes entries ignored by the rule files found along the way
type Cleaner struct {
	config *config.Config
	filter *security.SkipFilter
	out    Output
	logger zerolog.Logger
}

// Option configures a Cleaner
type Option func(*Cleaner)

// WithOutput sets where entry lines and reported errors go
func WithOutput(out Output) Option {
	return func(c *Cleaner) {
		c.out = out
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cleaner) {
		c.logger = logger
	}
}

// New creates a new Cleaner. The configuration is captured and not mutated.
func New(cfg *config.Config, opts ...Option) (*Cleaner, error) {
	filter, err := security.NewSkipFilter(cfg.SkipPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid skip patterns: %w", err)
	}

	c := &Cleaner{
		config: cfg,
		filter: filter,
		out:    discard{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Clean walks root. The returned error is fatal; reported errors are in the result.
func (c *Cleaner) Clean(root string) (*CleanResult, error) {
	state := &runState{
		result: &CleanResult{
			Root:    root,
			Entries: []Entry{},
			DryRun:  !c.config.Delete,
		},
	}

	if !c.config.Delete {
		c.out.DryRunNotice()
		time.Sleep(c.config.DryRunDelay)
	}

	c.logger.Trace().
		Str("root", root).
		Bool("delete", c.config.Delete).
		Int("skip_patterns", c.filter.Len()).
		Msg("clean started")

	signal, scope := c.resolveScope(root, nil, true, state)
	if signal == abortWalk {
		state.result.Aborted = true
		return state.result, nil
	}

	if err := c.walk(root, scope, state); err != nil {
		return state.result, err
	}
	return state.result, nil
}

// walk applies the active scope to every entry of dir
func (c *Cleaner) walk(dir string, scope *rules.Matcher, state *runState) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return c.tolerate(newListError(dir, err), state)
	}

	for _, de := range entries {
		path := filepath.Join(dir, de.Name())

		// Siblings may have been removed since the listing
		info, err := os.Lstat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			if err := c.tolerate(newListError(path, err), state); err != nil {
				return err
			}
			continue
		}

		if err := c.visit(path, info, scope, state); err != nil {
			return err
		}
	}
	return nil
}

// visit is the single decision point for one entry
func (c *Cleaner) visit(path string, info fs.FileInfo, scope *rules.Matcher, state *runState) error {
	c.logger.Trace().Str("entry", path).Msg("entry")

	isDir := followsToDir(path, info)

	if skip, pattern := c.filter.Skip(path); skip {
		c.logger.Debug().Str("entry", path).Str("pattern", pattern).Msg("excluded by skip pattern")
	} else if scope != nil && scope.Match(path, isDir) == rules.Ignored {
		return c.execute(path, info, isDir, state)
	}

	// Only real directories are descended into; symlinks are terminal
	if !info.IsDir() {
		return nil
	}

	signal, next := c.resolveScope(path, scope, false, state)
	if signal != recurse {
		return nil
	}

	if err := c.walk(path, next, state); err != nil {
		return c.tolerate(err, state)
	}
	return nil
}

// tolerate reports err and returns nil when the error policy allows it
func (c *Cleaner) tolerate(err error, state *runState) error {
	if IsFatal(err, c.config.IgnoreErrors) {
		return err
	}
	c.report(err, state)
	return nil
}

func (c *Cleaner) report(err error, state *runState) {
	state.result.Errors = append(state.result.Errors, err)
	c.out.Error(err)
}

func followsToDir(path string, info fs.FileInfo) bool {
	if info.Mode()&fs.ModeSymlink == 0 {
		return info.IsDir()
	}
	target, err := os.Stat(path)
	return err == nil && target.IsDir()
}

func kindOf(info fs.FileInfo) EntryKind {
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return KindSymlink
	case info.IsDir():
		return KindDir
	default:
		return KindFile
	}
}

type discard struct{}

func (discard) DryRunNotice() {}
func (discard) Entry(Entry)   {}
func (discard) Error(error)   {}
