package presentation

import (
	"sync"

	"tunespot/internal/domain"
	"tunespot/internal/ports"
)

// Model holds the result sheet state and notifies its renderer on change.
type Model struct {
	renderer ports.PresentationRenderer

	mu    sync.Mutex
	state domain.PresentationState
}

func NewModel(renderer ports.PresentationRenderer) *Model {
	return &Model{renderer: renderer}
}

// Show makes record the visible result. A nil record is treated as Dismiss.
func (m *Model) Show(record *domain.MatchRecord) {
	if record == nil {
		m.Dismiss()
		return
	}
	m.set(domain.PresentationState{Visible: true, Current: record})
}

func (m *Model) Dismiss() {
	m.set(domain.PresentationState{})
}

func (m *Model) State() domain.PresentationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ExternalID returns the current record's identifier on platform. It is false
// when nothing is shown or the record is not linkable there.
func (m *Model) ExternalID(platform domain.Platform) (string, bool) {
	state := m.State()
	if !state.Visible || state.Current == nil {
		return "", false
	}
	return state.Current.ExternalID(platform)
}

func (m *Model) set(state domain.PresentationState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	if m.renderer != nil {
		m.renderer.PresentationChanged(state)
	}
}
