package ui

import tea "charm.land/bubbletea/v2"

// Harness drives the UI model programmatically for tests. Commands returned
// by the model run synchronously, and batches are expanded, so every host
// side effect has completed by the time Send returns.
type Harness struct {
	model *Model
}

// NewHarness creates a harness for the provided model and runs its Init.
func NewHarness(model *Model) *Harness {
	h := &Harness{model: model}
	if model != nil {
		h.processCmd(model.Init())
	}
	return h
}

// Send routes a message through the model and executes any returned commands.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	h.processCmd(cmd)
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			return
		}
		mdl, more := h.model.Update(msg)
		if updated, ok := mdl.(*Model); ok {
			h.model = updated
		}
		queue = append(queue, more)
	}
}

// View returns the current rendered status view.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.Render()
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}
