package state

// WorkingDirs maps pane ids to the last directory reported for them. Entries
// survive the pane closing unless Prune is called.
type WorkingDirs struct {
	dirs map[uint32]string
}

func NewWorkingDirs() *WorkingDirs {
	return &WorkingDirs{dirs: make(map[uint32]string)}
}

// Set records path for pane id, overwriting any earlier report.
func (w *WorkingDirs) Set(id uint32, path string) {
	w.dirs[id] = path
}

func (w *WorkingDirs) Get(id uint32) (string, bool) {
	path, ok := w.dirs[id]
	return path, ok
}

func (w *WorkingDirs) Len() int {
	return len(w.dirs)
}

// Prune drops entries for pane ids missing from live and reports how many
// were removed.
func (w *WorkingDirs) Prune(live map[uint32]struct{}) int {
	removed := 0
	for id := range w.dirs {
		if _, ok := live[id]; !ok {
			delete(w.dirs, id)
			removed++
		}
	}
	return removed
}

// Snapshot returns a copy of the store contents.
func (w *WorkingDirs) Snapshot() map[uint32]string {
	out := make(map[uint32]string, len(w.dirs))
	for id, path := range w.dirs {
		out[id] = path
	}
	return out
}
