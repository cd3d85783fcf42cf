package services

import (
	"context"
	"fmt"
	"sync"

	"gpu-shop/repositories"
)

// CartManager hands out one CartStore per session and initializes it on
// first use. A user signing in gets a different session key than their guest
// session had, so the sign-in transition always re-initializes against the
// remote table.
type CartManager struct {
	mu     sync.Mutex
	stores map[string]*CartStore

	remote repositories.CartRepository
	feed   repositories.CartFeed
	local  repositories.GuestCartStore
	notify Notifier
}

func NewCartManager(remote repositories.CartRepository, feed repositories.CartFeed, local repositories.GuestCartStore, notify Notifier) *CartManager {
	return &CartManager{
		stores: map[string]*CartStore{},
		remote: remote,
		feed:   feed,
		local:  local,
		notify: notify,
	}
}

func (m *CartManager) ForUser(ctx context.Context, userID int) *CartStore {
	return m.storeFor(ctx, fmt.Sprintf("user:%d", userID), userID, "")
}

func (m *CartManager) ForGuest(ctx context.Context, guestKey string) *CartStore {
	return m.storeFor(ctx, "guest:"+guestKey, 0, guestKey)
}

func (m *CartManager) storeFor(ctx context.Context, key string, userID int, guestKey string) *CartStore {
	m.mu.Lock()
	store, ok := m.stores[key]
	if !ok {
		store = NewCartStore(m.remote, m.feed, m.local, m.notify)
		m.stores[key] = store
	}
	m.mu.Unlock()

	if store.State() == CartUninitialized {
		store.Initialize(ctx, userID, guestKey)
	}
	return store
}

// Drop closes and forgets a user's store, typically on sign-out.
func (m *CartManager) Drop(userID int) {
	key := fmt.Sprintf("user:%d", userID)

	m.mu.Lock()
	store, ok := m.stores[key]
	delete(m.stores, key)
	m.mu.Unlock()

	if ok {
		store.Close()
	}
}

func (m *CartManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, store := range m.stores {
		store.Close()
		delete(m.stores, key)
	}
}
