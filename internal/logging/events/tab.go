package events

import "github.com/atomicstack/tmux-tabdir/internal/logging"

type TabTracer struct{}

type skipReason string

const (
	SkipNoDirectories skipReason = "no-directories"
	SkipNoAncestor    skipReason = "no-common-ancestor"
	SkipUnprintable   skipReason = "unprintable-path"
	SkipOrdinal       skipReason = "ordinal-overflow"
)

var Tab = TabTracer{}

func (TabTracer) Organize(tabs, panes, dirs int) {
	logging.Trace("tab.organize", map[string]interface{}{"tabs": tabs, "panes": panes, "dirs": dirs})
}

func (TabTracer) Rename(ordinal uint32, from, to string) {
	logging.Trace("tab.rename", map[string]interface{}{"ordinal": ordinal, "from": from, "to": to})
}

func (TabTracer) Skip(position int, reason skipReason) {
	logging.Trace("tab.skip", map[string]interface{}{"position": position, "reason": string(reason)})
}
