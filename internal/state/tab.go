package state

// Tab is a host tab identified by its ordinal position.
type Tab struct {
	Position int
	Name     string
}

type TabStore interface {
	Entries() []Tab
	SetEntries([]Tab)
	// SetName records a name the organiser has just asked the host to apply.
	SetName(position int, name string) bool
	Len() int
}

type tabStore struct {
	entries []Tab
}

func NewTabStore() TabStore {
	return &tabStore{}
}

func (t *tabStore) Entries() []Tab {
	return cloneTabs(t.entries)
}

func (t *tabStore) SetEntries(entries []Tab) {
	t.entries = cloneTabs(entries)
}

func (t *tabStore) SetName(position int, name string) bool {
	for i := range t.entries {
		if t.entries[i].Position == position {
			t.entries[i].Name = name
			return true
		}
	}
	return false
}

func (t *tabStore) Len() int {
	return len(t.entries)
}

func cloneTabs(entries []Tab) []Tab {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]Tab, len(entries))
	copy(dup, entries)
	return dup
}
