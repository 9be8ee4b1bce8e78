package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billwatch/billwatch/internal/domain/recurring"
)

func TestLoad_MissingFileYieldsEmptyState(t *testing.T) {
	state, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, state.Decisions)
	assert.Empty(t, state.Categories)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	state := NewState()
	state.Decisions["netflix com"] = recurring.DecisionConfirmed
	state.Decisions["random shop"] = recurring.DecisionDismissed
	state.Categories["netflix com"] = "Entertainment"
	require.NoError(t, state.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, recurring.DecisionConfirmed, loaded.Decisions["netflix com"])
	assert.Equal(t, recurring.DecisionDismissed, loaded.Decisions["random shop"])
	assert.Equal(t, "Entertainment", loaded.Categories["netflix com"])
}

func TestAnnotate_DoesNotMutateGroups(t *testing.T) {
	groups := []recurring.Group{
		{MerchantKey: "netflix com", Merchant: "Netflix Com"},
		{MerchantKey: "unseen", Merchant: "Unseen"},
	}

	state := NewState()
	state.Decisions["netflix com"] = recurring.DecisionConfirmed
	state.Categories["netflix com"] = "Entertainment"

	annotated := state.Annotate(groups)
	require.Len(t, annotated, 2)

	assert.Equal(t, recurring.DecisionConfirmed, annotated[0].Decision)
	assert.Equal(t, "Entertainment", annotated[0].Category)
	assert.Empty(t, annotated[1].Decision)
	assert.Empty(t, annotated[1].Category)

	// Source groups carry no overlay fields and stay untouched.
	assert.Equal(t, "netflix com", groups[0].MerchantKey)
	assert.Equal(t, "Netflix Com", groups[0].Merchant)
}
