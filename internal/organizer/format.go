package organizer

import (
	"path/filepath"
	"strings"
)

// RootLookup answers which git worktree contains a path. A false result means
// the root is not known yet.
type RootLookup interface {
	Root(path string) (string, bool)
}

// PathFormatter turns an absolute path into tab-name text.
type PathFormatter interface {
	Format(path string) string
}

// Formatter abbreviates paths by git worktree root first, then by the home
// directory. Only one substitution is applied.
type Formatter struct {
	Roots RootLookup
	Home  string
}

func (f Formatter) Format(path string) string {
	if f.Roots != nil {
		if root, ok := f.Roots.Root(path); ok && root != "" {
			if rest, under := relativeTo(path, root); under {
				return joinDisplay(filepath.Base(root), rest)
			}
		}
	}
	if f.Home != "" {
		if rest, under := relativeTo(path, f.Home); under {
			return joinDisplay("~", rest)
		}
	}
	return path
}

// relativeTo reports whether path equals base or lies beneath it, and the
// remainder without a leading separator.
func relativeTo(path, base string) (string, bool) {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		if strings.HasPrefix(path, "/") {
			return strings.TrimPrefix(path, "/"), true
		}
		return "", false
	}
	if path == base {
		return "", true
	}
	if strings.HasPrefix(path, base+"/") {
		return strings.TrimPrefix(path[len(base):], "/"), true
	}
	return "", false
}

func joinDisplay(head, rest string) string {
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return head
	}
	if strings.HasSuffix(head, "/") {
		return head + rest
	}
	return head + "/" + rest
}
