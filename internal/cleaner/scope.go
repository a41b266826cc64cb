package cleaner

import (
	"os"
	"path/filepath"

	"github.com/fenilsonani/ignoreclean/internal/rules"
)

// scopeSignal tells the walker what to do with a directory
type scopeSignal int

const (
	recurse scopeSignal = iota
	skipDescent
	abortWalk
)

// resolveScope picks the scope for the children of dir. A local rule file
// replaces the inherited scope; it never merges with it.
func (c *Cleaner) resolveScope(dir string, inherited *rules.Matcher, isRoot bool, state *runState) (scopeSignal, *rules.Matcher) {
	rulesPath := filepath.Join(dir, c.config.RulesFile)

	// A rule file we cannot stat does not exist as far as scoping goes;
	// an unreadable dir then fails at listing time under the error policy.
	if _, err := os.Stat(rulesPath); err != nil {
		if !isRoot {
			c.logger.Debug().Str("dir", dir).Msg("visiting with parent rules")
		}
		return recurse, inherited
	}

	scope, err := rules.CompileFile(rulesPath)
	if err != nil {
		c.report(&RulesError{Path: rulesPath, Err: err}, state)
		if isRoot {
			return abortWalk, nil
		}
		return skipDescent, nil
	}

	if c.config.SkipNested && !isRoot {
		c.logger.Debug().Str("dir", dir).Str("rules", rulesPath).Msg("skipping nested rules")
		return skipDescent, nil
	}

	c.logger.Debug().
		Str("dir", dir).
		Str("rules", scope.Source()).
		Int("patterns", scope.Len()).
		Msg("visiting with new rules")
	return recurse, scope
}
