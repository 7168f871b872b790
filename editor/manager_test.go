package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGetLoadsSavedState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, NewRepository(store, StateKey("ada"), nil).Save(ctx, State{Code: "print(2)", Language: "python", Theme: "vs-light"}))

	m := NewManager(store, nil, nil, WithIdleTTL(0))
	defer m.Shutdown()

	s := m.Get(ctx, "ada")
	assert.Equal(t, "print(2)", s.State().Code)
	assert.Same(t, s, m.Get(ctx, "ada"))
	assert.Equal(t, 1, m.Len())

	other := m.Get(ctx, "grace")
	assert.Equal(t, Defaults(), other.State())
	assert.Equal(t, 2, m.Len())
}

func TestManagerFlushAndClose(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	m := NewManager(store, nil, nil, WithIdleTTL(0), WithAutosaveInterval(time.Hour))
	defer m.Shutdown()

	require.NoError(t, m.Flush(ctx, "nobody"))

	s := m.Get(ctx, "ada")
	s.SetCode("a")
	require.NoError(t, m.Flush(ctx, "ada"))
	repo := NewRepository(store, StateKey("ada"), nil)
	assert.Equal(t, "a", repo.Load(ctx).Code)

	s.SetCode("b")
	assert.True(t, m.Close("ada"))
	assert.False(t, m.Close("ada"))
	assert.Equal(t, "b", repo.Load(ctx).Code)
	assert.Zero(t, m.Len())
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	m := NewManager(store, nil, nil, WithIdleTTL(20*time.Millisecond), WithAutosaveInterval(time.Hour))
	defer m.Shutdown()

	m.Get(ctx, "ada").SetTheme("hc-black")
	repo := NewRepository(store, StateKey("ada"), nil)
	require.Eventually(t, func() bool {
		return m.Len() == 0 && repo.Load(ctx).Theme == "hc-black"
	}, time.Second, 5*time.Millisecond)
}

func TestManagerShutdownSavesSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	m := NewManager(store, nil, nil, WithAutosaveInterval(time.Hour))

	m.Get(ctx, "ada").SetStdin("42")
	m.Get(ctx, "grace").SetCode("x")
	m.Shutdown()

	assert.Zero(t, m.Len())
	assert.Equal(t, "42", NewRepository(store, StateKey("ada"), nil).Load(ctx).Stdin)
	assert.Equal(t, "x", NewRepository(store, StateKey("grace"), nil).Load(ctx).Code)
}

func TestManagerSessionRunDelay(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil, WithIdleTTL(0), WithSessionRunDelay(time.Hour))
	defer m.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := m.Get(context.Background(), "ada").Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
