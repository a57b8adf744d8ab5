package main

import (
	"context"
	"testing"

	"pairchat/backend/internal/friends"
	"pairchat/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	ledger := friends.NewLedger(store)

	require.NoError(t, run(ctx, ledger, []string{"befriend", "alpha", "beta"}))
	got, err := store.GetFriends(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, got)

	require.NoError(t, run(ctx, ledger, []string{"friends", "alpha"}))

	require.NoError(t, run(ctx, ledger, []string{"unfriend", "alpha", "beta"}))
	got, err = store.GetFriends(ctx, "alpha")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRun_BadInput(t *testing.T) {
	ledger := friends.NewLedger(storage.NewMemoryStore())

	assert.Error(t, run(context.Background(), ledger, []string{"befriend", "alpha"}))
	assert.ErrorIs(t, run(context.Background(), ledger, []string{"befriend", "alpha", "alpha"}), friends.ErrInvalidPair)
	assert.Error(t, run(context.Background(), ledger, []string{"ban", "alpha"}))
}
