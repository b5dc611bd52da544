// Package sweep finds and removes orphaned policy source/module artefacts:
// te/if/fc/pp files left behind in the rules directory by an application
// id no caller currently declares (typically after a crash interrupted an
// uninstall between RemoveSourceArtefacts and the final directory
// cleanup).
package sweep

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/redpesk-labs/sec-lsm-manager/logger"
	"github.com/redpesk-labs/sec-lsm-manager/osutil"
)

var artefactPattern = "*.{te,if,fc,pp}"

// FindOrphans globs rulesDir for policy artefacts and returns the full
// paths of any whose id (the file's base name with extension stripped) is
// not a key of known.
func FindOrphans(rulesDir string, known map[string]bool) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(rulesDir), artefactPattern)
	if err != nil {
		return nil, err
	}

	var orphans []string
	for _, m := range matches {
		id := strings.TrimSuffix(m, filepath.Ext(m))
		if !known[id] {
			orphans = append(orphans, filepath.Join(rulesDir, m))
		}
	}
	return orphans, nil
}

// RemoveOrphans removes every path in orphans, logging and continuing past
// individual failures, and returns the first error encountered (if any).
func RemoveOrphans(orphans []string) error {
	var first error
	for _, p := range orphans {
		if err := osutil.RemoveFile(p); err != nil {
			logger.Errorf("sweep.RemoveOrphans: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
