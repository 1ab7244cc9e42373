// Package organizer derives tab names from the working directories of the
// panes inside each tab.
//
// A tab whose panes share one directory is named after it; panes that are
// spread over several directories are summarised by their deepest common
// ancestor and a pane count. Paths are abbreviated by Formatter.
package organizer

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/atomicstack/tmux-tabdir/internal/logging/events"
	"github.com/atomicstack/tmux-tabdir/internal/state"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "…"

// Renamer applies a tab name. Ordinals are 1-based.
type Renamer interface {
	RenameTab(ordinal uint32, name string)
}

// Engine computes and applies tab names.
type Engine struct {
	Paths    PathFormatter
	MaxWidth int
}

// Organize names every tab from its panes' directories and issues a rename
// for each tab whose name changed. The new name is recorded on the tab store
// so a repeated pass is a no-op. It returns the number of renames issued.
func (e *Engine) Organize(tabs state.TabStore, panes []state.Pane, dirs *state.WorkingDirs, r Renamer) int {
	entries := tabs.Entries()
	slices.SortFunc(entries, func(a, b state.Tab) int { return cmp.Compare(a.Position, b.Position) })
	events.Tab.Organize(len(entries), len(panes), dirs.Len())

	renamed := 0
	for _, tab := range entries {
		selected := 0
		var workingDirs []string
		for _, pane := range panes {
			if pane.TabPosition != tab.Position || pane.IsSuppressed || pane.IsPlugin {
				continue
			}
			selected++
			if dir, ok := dirs.Get(pane.ID); ok {
				workingDirs = append(workingDirs, dir)
			}
		}
		if len(workingDirs) == 0 {
			events.Tab.Skip(tab.Position, events.SkipNoDirectories)
			continue
		}
		name, ok := e.Name(workingDirs, selected)
		if !ok {
			continue
		}
		if name == tab.Name {
			continue
		}
		ordinal, ok := ordinalFor(tab.Position)
		if !ok {
			events.Tab.Skip(tab.Position, events.SkipOrdinal)
			continue
		}
		events.Tab.Rename(ordinal, tab.Name, name)
		r.RenameTab(ordinal, name)
		tabs.SetName(tab.Position, name)
		renamed++
	}
	return renamed
}

// Name derives a tab name from the known working directories of a tab.
// paneCount is the number of panes considered for the tab, including those
// without a known directory.
func (e *Engine) Name(workingDirs []string, paneCount int) (string, bool) {
	if len(workingDirs) == 0 {
		return "", false
	}
	for _, dir := range workingDirs {
		if !utf8.ValidString(dir) {
			events.Tab.Skip(-1, events.SkipUnprintable)
			return "", false
		}
	}

	var name string
	switch {
	case len(workingDirs) == 1:
		name = e.Paths.Format(workingDirs[0])
	case allEqual(workingDirs):
		name = withSeparator(e.Paths.Format(workingDirs[0]))
	default:
		common, ok := CommonAncestor(workingDirs)
		if !ok {
			events.Tab.Skip(-1, events.SkipNoAncestor)
			return "", false
		}
		name = fmt.Sprintf("%s* (%d panes)", withSeparator(e.Paths.Format(common)), paneCount)
	}
	return e.truncate(name), true
}

func (e *Engine) truncate(name string) string {
	if e.MaxWidth <= 0 || ansi.StringWidth(name) <= e.MaxWidth {
		return name
	}
	return ansi.Truncate(name, e.MaxWidth, ellipsis)
}

func allEqual(values []string) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// withSeparator appends the path separator unconditionally, so a uniform
// name always differs from the singleton name, even for "/".
func withSeparator(s string) string {
	return s + "/"
}

// ordinalFor converts a 0-based position to the host's 1-based ordinal.
func ordinalFor(position int) (uint32, bool) {
	if position < 0 || uint64(position) >= math.MaxUint32 {
		return 0, false
	}
	return uint32(position) + 1, true
}
