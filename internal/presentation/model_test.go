package presentation

import (
	"sync"
	"testing"

	"tunespot/internal/domain"
)

func TestShowThenDismissRestoresEmptyState(t *testing.T) {
	t.Parallel()

	records := []*domain.MatchRecord{
		{},
		{Title: "X", Artist: "Y"},
		{Title: "X", Artist: "Y", SpotifyTrackID: "S1", DeezerTrackID: "D1", YouTubeVideoID: "V1"},
	}

	for _, record := range records {
		renderer := &fakeRenderer{}
		model := NewModel(renderer)

		model.Show(record)
		state := model.State()
		if !state.Visible || state.Current != record {
			t.Fatalf("unexpected shown state: %+v", state)
		}

		model.Dismiss()
		if got := model.State(); got.Visible || got.Current != nil {
			t.Fatalf("expected empty state after dismiss, got %+v", got)
		}

		states := renderer.snapshot()
		if len(states) != 2 || !states[0].Visible || states[1].Visible {
			t.Fatalf("unexpected renderer notifications: %+v", states)
		}
	}
}

func TestShowNilDismisses(t *testing.T) {
	t.Parallel()

	model := NewModel(nil)
	model.Show(&domain.MatchRecord{Title: "X"})
	model.Show(nil)
	if state := model.State(); state.Visible || state.Current != nil {
		t.Fatalf("expected hidden state, got %+v", state)
	}
}

func TestExternalID(t *testing.T) {
	t.Parallel()

	model := NewModel(nil)
	if _, ok := model.ExternalID(domain.PlatformSpotify); ok {
		t.Fatalf("expected no id while hidden")
	}

	model.Show(&domain.MatchRecord{Title: "X", SpotifyTrackID: "S1"})
	if id, ok := model.ExternalID(domain.PlatformSpotify); !ok || id != "S1" {
		t.Fatalf("unexpected spotify id: %q %v", id, ok)
	}
	if _, ok := model.ExternalID(domain.PlatformDeezer); ok {
		t.Fatalf("expected deezer to be unlinkable")
	}
}

type fakeRenderer struct {
	mu     sync.Mutex
	states []domain.PresentationState
}

func (f *fakeRenderer) PresentationChanged(state domain.PresentationState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
}

func (f *fakeRenderer) snapshot() []domain.PresentationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.PresentationState, len(f.states))
	copy(out, f.states)
	return out
}
