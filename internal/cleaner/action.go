package cleaner

import (
	"io/fs"
	"os"
	"path/filepath"
)

// execute handles an ignored entry: measure, report, then delete unless dry run
func (c *Cleaner) execute(path string, info fs.FileInfo, isDir bool, state *runState) error {
	entry := Entry{
		Path:  path,
		Kind:  kindOf(info),
		IsDir: isDir,
	}

	// Measure before removal destroys the data
	if c.config.CalculateSize {
		entry.Size = entrySize(path, info)
		state.add(entry.Size)
	}
	state.result.Matched++

	if !c.config.Quiet {
		c.out.Entry(entry)
	}

	if !c.config.Delete {
		state.result.Entries = append(state.result.Entries, entry)
		return nil
	}

	if entry.Kind == KindSymlink {
		c.logger.Debug().Str("entry", path).Msg("not removing symlink")
		state.result.SkippedSymlinks++
		state.result.Entries = append(state.result.Entries, entry)
		return nil
	}

	var err error
	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return CategorizeError(path, err)
	}

	entry.Deleted = true
	state.result.Deleted++
	state.result.Entries = append(state.result.Entries, entry)
	return nil
}

// entrySize is the file length or the recursive byte sum of a directory.
// Symlinks count as zero and are never followed. Unreadable parts are skipped.
func entrySize(path string, info fs.FileInfo) int64 {
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return 0
	case !info.IsDir():
		return info.Size()
	}

	var size int64
	filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			if fi, err := d.Info(); err == nil {
				size += fi.Size()
			}
		}
		return nil
	})
	return size
}
