// Package session holds caller-owned state that outlives a single
// detection run: decisions and categories assigned to merchants. The
// detection core never reads or writes it; loading and saving happen only
// at session boundaries.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/billwatch/billwatch/internal/domain/recurring"
)

// State is a key-value overlay keyed by merchant key.
type State struct {
	Decisions  map[string]recurring.Decision `json:"decisions"`
	Categories map[string]string             `json:"categories"`
}

// NewState returns an empty, usable state.
func NewState() *State {
	return &State{
		Decisions:  make(map[string]recurring.Decision),
		Categories: make(map[string]string),
	}
}

// Load reads state from path. A missing file yields an empty state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	state := NewState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	if state.Decisions == nil {
		state.Decisions = make(map[string]recurring.Decision)
	}
	if state.Categories == nil {
		state.Categories = make(map[string]string)
	}
	return state, nil
}

// Save writes state to path.
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	return nil
}

// Annotate projects this state onto detector output without mutating it.
func (s *State) Annotate(groups []recurring.Group) []recurring.AnnotatedGroup {
	annotated := make([]recurring.AnnotatedGroup, len(groups))
	for i, g := range groups {
		annotated[i] = recurring.Annotate(g, s.Decisions, s.Categories)
	}
	return annotated
}
