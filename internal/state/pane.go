package state

// Pane is a terminal session inside a tab.
type Pane struct {
	ID           uint32
	TabPosition  int
	IsSuppressed bool
	IsPlugin     bool
}

type PaneStore interface {
	Entries() []Pane
	SetEntries([]Pane)
	IDs() map[uint32]struct{}
}

type paneStore struct {
	entries []Pane
}

func NewPaneStore() PaneStore {
	return &paneStore{}
}

func (p *paneStore) Entries() []Pane {
	return clonePanes(p.entries)
}

func (p *paneStore) SetEntries(entries []Pane) {
	p.entries = clonePanes(entries)
}

// IDs returns the set of pane ids in the latest snapshot.
func (p *paneStore) IDs() map[uint32]struct{} {
	ids := make(map[uint32]struct{}, len(p.entries))
	for _, pane := range p.entries {
		ids[pane.ID] = struct{}{}
	}
	return ids
}

func clonePanes(entries []Pane) []Pane {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]Pane, len(entries))
	copy(dup, entries)
	return dup
}
