package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAppendOrderAndIDs(t *testing.T) {
	store := NewStore("")
	first := store.Append(userTurn("one"))
	second := store.Append(assistantText("two"))

	turns := store.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "one", turns[0].Content)
	assert.Equal(t, "two", turns[1].Content)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestStoreTurnsReturnsCopy(t *testing.T) {
	store := NewStore("")
	store.Append(userTurn("one"))
	turns := store.Turns()
	turns[0].Content = "mutated"
	assert.Equal(t, "one", store.Turns()[0].Content)
}

func TestStoreClearWithoutWelcome(t *testing.T) {
	store := NewStore("")
	store.Append(userTurn("one"))
	store.Clear()
	assert.Zero(t, store.Len())
}

func TestStoreClearKeepsWelcome(t *testing.T) {
	store := NewStore("Hi! Ask me about customer churn.")
	welcome := store.Turns()[0]
	assert.Equal(t, RoleAssistant, welcome.Role)

	store.Append(userTurn("one"))
	store.Append(assistantText("two"))
	store.Clear()

	turns := store.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, welcome, turns[0])
}

func TestStoreRestoreSkipsSavedWelcome(t *testing.T) {
	store := NewStore("Welcome")
	saved := []Turn{
		{ID: "old-welcome", Role: RoleAssistant, Content: "Welcome"},
		{ID: "u1", Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
	}
	store.Restore(saved)

	turns := store.Turns()
	require.Len(t, turns, 3)
	assert.NotEqual(t, "old-welcome", turns[0].ID)
	assert.Equal(t, "u1", turns[1].ID)
	assert.NotEmpty(t, turns[2].ID)
}
