package services

import (
	"context"
	"testing"

	"gpu-shop/repositories"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*CartManager, *fakeCartRepo) {
	t.Helper()
	repo := newFakeCartRepo()
	local, err := repositories.NewFileGuestCartStore(t.TempDir())
	require.NoError(t, err)
	m := NewCartManager(repo, repositories.NopCartFeed{}, local, silentNotifier{})
	t.Cleanup(m.CloseAll)
	return m, repo
}

func TestManagerReusesStorePerUser(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.ForUser(context.Background(), 1)
	b := m.ForUser(context.Background(), 1)
	other := m.ForUser(context.Background(), 2)

	require.Same(t, a, b)
	require.NotSame(t, a, other)
	require.Equal(t, CartReady, a.State())
}

func TestManagerSeparatesGuestAndUserSessions(t *testing.T) {
	m, _ := newTestManager(t)

	guest := m.ForGuest(context.Background(), "abc")
	user := m.ForUser(context.Background(), 1)

	require.NotSame(t, guest, user)

	require.NoError(t, guest.AddToCart(context.Background(), gpuSnapshot(), 1))
	require.Empty(t, user.Items())
}

func TestManagerDropForgetsStore(t *testing.T) {
	m, _ := newTestManager(t)

	before := m.ForUser(context.Background(), 1)
	m.Drop(1)
	after := m.ForUser(context.Background(), 1)

	require.NotSame(t, before, after)
}
