package organizer

import (
	"path/filepath"
	"strings"
)

// CommonAncestor returns the deepest directory that contains every path. Each
// path is walked up towards the root until it contains the running result.
// It fails when some path shares no ancestor with the others, which can only
// happen for relative or mixed inputs.
func CommonAncestor(paths []string) (string, bool) {
	if len(paths) == 0 {
		return "", false
	}
	common := filepath.Clean(paths[0])
	for _, p := range paths[1:] {
		candidate := filepath.Clean(p)
		for !containsPath(candidate, common) {
			parent := filepath.Dir(candidate)
			if parent == candidate {
				return "", false
			}
			candidate = parent
		}
		common = candidate
	}
	return common, true
}

// containsPath reports whether dir is path or one of its ancestors, comparing
// whole components.
func containsPath(dir, path string) bool {
	if dir == path {
		return true
	}
	if dir == "/" {
		return strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, dir+"/")
}
