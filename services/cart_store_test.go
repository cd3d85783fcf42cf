package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gpu-shop/models"
	"gpu-shop/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeCartRepo is an in-memory CartRepository. Order of insertion is
// preserved so loads are deterministic.
type fakeCartRepo struct {
	mu       sync.Mutex
	items    []models.CartLineItem
	failAll  bool
	notFound map[uuid.UUID]bool
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{notFound: map[uuid.UUID]bool{}}
}

func (r *fakeCartRepo) ListByOwner(ctx context.Context, userID int) ([]models.CartLineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, &repositories.StorageError{Kind: repositories.ErrKindUnavailable, Err: errors.New("down")}
	}
	out := []models.CartLineItem{}
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeCartRepo) FindByOwnerProduct(ctx context.Context, userID, productID int) (*models.CartLineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, &repositories.StorageError{Kind: repositories.ErrKindUnavailable, Err: errors.New("down")}
	}
	for i := range r.items {
		if r.items[i].UserID == userID && r.items[i].ProductID == productID {
			found := r.items[i]
			return &found, nil
		}
	}
	return nil, &repositories.StorageError{Kind: repositories.ErrKindNotFound, Err: errors.New("no rows")}
}

func (r *fakeCartRepo) Insert(ctx context.Context, item models.CartLineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return &repositories.StorageError{Kind: repositories.ErrKindUnavailable, Err: errors.New("down")}
	}
	r.items = append(r.items, item)
	return nil
}

func (r *fakeCartRepo) UpdateQuantity(ctx context.Context, userID int, id uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return &repositories.StorageError{Kind: repositories.ErrKindUnavailable, Err: errors.New("down")}
	}
	if r.notFound[id] {
		return &repositories.StorageError{Kind: repositories.ErrKindNotFound, Err: errors.New("no rows")}
	}
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].Quantity = quantity
			return nil
		}
	}
	return &repositories.StorageError{Kind: repositories.ErrKindNotFound, Err: errors.New("no rows")}
}

func (r *fakeCartRepo) Delete(ctx context.Context, userID int, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return &repositories.StorageError{Kind: repositories.ErrKindUnavailable, Err: errors.New("down")}
	}
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeCartRepo) DeleteByOwner(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return &repositories.StorageError{Kind: repositories.ErrKindUnavailable, Err: errors.New("down")}
	}
	kept := r.items[:0]
	for _, it := range r.items {
		if it.UserID != userID {
			kept = append(kept, it)
		}
	}
	r.items = kept
	return nil
}

func (r *fakeCartRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// fakeFeed hands subscribers a channel the test can push events into.
type fakeFeed struct {
	ch chan models.CartChangeEvent
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{ch: make(chan models.CartChangeEvent, 16)}
}

func (f *fakeFeed) Publish(ctx context.Context, userID int, ev models.CartChangeEvent) error {
	return nil
}

func (f *fakeFeed) Subscribe(ctx context.Context, userID int) (<-chan models.CartChangeEvent, error) {
	return f.ch, nil
}

type silentNotifier struct{}

func (silentNotifier) Success(msg string) {}
func (silentNotifier) Error(msg string)   {}

func newTestStore(t *testing.T, repo repositories.CartRepository, feed repositories.CartFeed) *CartStore {
	t.Helper()
	local, err := repositories.NewFileGuestCartStore(t.TempDir())
	require.NoError(t, err)
	s := NewCartStore(repo, feed, local, silentNotifier{})
	t.Cleanup(s.Close)
	return s
}

func gpuSnapshot() models.ProductSnapshot {
	return models.ProductSnapshot{
		ProductID: 1,
		Name:      "VoltCore RTX Apex",
		UnitPrice: decimal.RequireFromString("999.99"),
		ImageURL:  "/uploads/products/apex.png",
	}
}

func TestAddToCartMergesQuantities(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 1))
	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 2))

	items := s.Items()
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)
	require.Equal(t, 1, repo.rowCount())

	proj := s.Projection()
	require.Len(t, proj.SelectedItems, 1)
	require.Equal(t, "2999.97", proj.Total.StringFixed(2))
}

func TestAddToCartFloorsQuantityAtOne(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 0))

	items := s.Items()
	require.Len(t, items, 1)
	require.Equal(t, 1, items[0].Quantity)
}

func TestAddToCartRemoteFailureLeavesMemoryUntouched(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	repo.failAll = true
	err := s.AddToCart(context.Background(), gpuSnapshot(), 1)
	require.Error(t, err)
	require.Empty(t, s.Items())
}

func TestCheckoutScenario(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 1))
	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 2))

	items := s.Items()
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)
	require.Equal(t, "2999.97", s.Projection().Total.StringFixed(2))

	// deselect the only item: total collapses to zero
	s.ToggleItemSelection(items[0].ID, false)
	proj := s.Projection()
	require.Empty(t, proj.SelectedItems)
	require.True(t, proj.Total.IsZero())

	s.SelectAllItems(true)
	require.Equal(t, "2999.97", s.Projection().Total.StringFixed(2))

	require.NoError(t, s.RemoveFromCart(context.Background(), items[0].ID))
	require.Empty(t, s.Items())
	require.Equal(t, 0, repo.rowCount())
}

func TestUpdateQuantityBelowOneIsSilentNoop(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 2))
	id := s.Items()[0].ID

	require.NoError(t, s.UpdateQuantity(context.Background(), id, 0))
	require.Equal(t, 2, s.Items()[0].Quantity)

	require.NoError(t, s.UpdateQuantity(context.Background(), id, 5))
	require.Equal(t, 5, s.Items()[0].Quantity)
}

func TestUpdateQuantityForMissingItemIsSilent(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.UpdateQuantity(context.Background(), uuid.New(), 4))
	require.Empty(t, s.Items())
}

func TestRemoveFromCartIsIdempotent(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.RemoveFromCart(context.Background(), uuid.New()))
	require.Empty(t, s.Items())
}

func TestInitializeDegradesToEmptyReadyOnFailure(t *testing.T) {
	repo := newFakeCartRepo()
	repo.failAll = true
	s := newTestStore(t, repo, repositories.NopCartFeed{})

	s.Initialize(context.Background(), 1, "")

	require.Equal(t, CartReady, s.State())
	require.Empty(t, s.Items())
}

func TestInitializeResetsSelectionFromRemoteRows(t *testing.T) {
	repo := newFakeCartRepo()
	item := models.CartLineItem{
		ID: uuid.New(), UserID: 1, ProductID: 1,
		ProductName: "VoltCore RTX Apex",
		UnitPrice:   decimal.RequireFromString("999.99"),
		Quantity:    2,
	}
	require.NoError(t, repo.Insert(context.Background(), item))

	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	items := s.Items()
	require.Len(t, items, 1)
	require.Nil(t, items[0].Selected)
	require.True(t, items[0].IsSelected())
}

func TestFeedInsertSkipsKnownIDs(t *testing.T) {
	repo := newFakeCartRepo()
	feed := newFakeFeed()
	s := newTestStore(t, repo, feed)
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 1))
	existing := s.Items()[0]

	// our own write echoed back must not double up
	feed.ch <- models.CartChangeEvent{Type: models.CartEventInsert, Item: existing}

	other := models.CartLineItem{
		ID: uuid.New(), UserID: 1, ProductID: 2,
		ProductName: "VoltCore RTX Volt",
		UnitPrice:   decimal.RequireFromString("549.00"),
		Quantity:    1,
	}
	feed.ch <- models.CartChangeEvent{Type: models.CartEventInsert, Item: other}

	require.Eventually(t, func() bool {
		for _, it := range s.Items() {
			if it.ID == other.ID {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	require.Len(t, s.Items(), 2)
}

func TestFeedUpdatePreservesLocalFields(t *testing.T) {
	repo := newFakeCartRepo()
	feed := newFakeFeed()
	s := newTestStore(t, repo, feed)
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 1))
	item := s.Items()[0]
	s.ToggleItemSelection(item.ID, false)

	remote := item
	remote.Quantity = 7
	remote.Selected = nil
	remote.ImageURL = ""
	feed.ch <- models.CartChangeEvent{Type: models.CartEventUpdate, Item: remote}

	require.Eventually(t, func() bool {
		got := s.Items()[0]
		return got.Quantity == 7 &&
			got.Selected != nil && !*got.Selected &&
			got.ImageURL == "/uploads/products/apex.png"
	}, time.Second, 10*time.Millisecond)
}

func TestFeedUpdateForUnknownItemIsIgnored(t *testing.T) {
	repo := newFakeCartRepo()
	feed := newFakeFeed()
	s := newTestStore(t, repo, feed)
	s.Initialize(context.Background(), 1, "")

	ghost := models.CartLineItem{ID: uuid.New(), UserID: 1, ProductID: 9, Quantity: 1}
	feed.ch <- models.CartChangeEvent{Type: models.CartEventUpdate, Item: ghost}
	feed.ch <- models.CartChangeEvent{Type: models.CartEventDelete, Item: ghost}

	require.Never(t, func() bool {
		return len(s.Items()) != 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestFeedDeleteRemovesItem(t *testing.T) {
	repo := newFakeCartRepo()
	feed := newFakeFeed()
	s := newTestStore(t, repo, feed)
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 1))
	item := s.Items()[0]

	feed.ch <- models.CartChangeEvent{Type: models.CartEventDelete, Item: item}

	require.Eventually(t, func() bool {
		return len(s.Items()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestFeedUnknownEventTriggersReload(t *testing.T) {
	repo := newFakeCartRepo()
	feed := newFakeFeed()
	s := newTestStore(t, repo, feed)
	s.Initialize(context.Background(), 1, "")

	// a row that reached storage behind our back
	item := models.CartLineItem{
		ID: uuid.New(), UserID: 1, ProductID: 3,
		ProductName: "VoltCore RTX Surge",
		UnitPrice:   decimal.RequireFromString("1299.00"),
		Quantity:    1,
	}
	require.NoError(t, repo.Insert(context.Background(), item))

	feed.ch <- models.CartChangeEvent{Type: "MALFORMED"}

	require.Eventually(t, func() bool {
		items := s.Items()
		return len(items) == 1 && items[0].ID == item.ID
	}, time.Second, 10*time.Millisecond)
}

func TestClearCartEmptiesMemoryAndStorage(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 2))
	require.NoError(t, s.ClearCart(context.Background()))

	require.Empty(t, s.Items())
	require.Equal(t, 0, repo.rowCount())
}

func TestClearCartAbortsOnRemoteFailure(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 2))

	repo.failAll = true
	require.Error(t, s.ClearCart(context.Background()))
	require.Len(t, s.Items(), 1)
}

func TestDropItemsIsMemoryOnly(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 1, "")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 1))
	id := s.Items()[0].ID

	s.DropItems([]uuid.UUID{id})

	require.Empty(t, s.Items())
	// rows are untouched; checkout already deleted them in its transaction
	require.Equal(t, 1, repo.rowCount())
}

func TestGuestCartSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	local, err := repositories.NewFileGuestCartStore(dir)
	require.NoError(t, err)

	repo := newFakeCartRepo()
	s := NewCartStore(repo, repositories.NopCartFeed{}, local, silentNotifier{})
	s.Initialize(context.Background(), 0, "guest-abc")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 2))
	id := s.Items()[0].ID
	s.ToggleItemSelection(id, false)
	s.Close()

	// nothing reached the remote table
	require.Equal(t, 0, repo.rowCount())

	reopened := NewCartStore(repo, repositories.NopCartFeed{}, local, silentNotifier{})
	reopened.Initialize(context.Background(), 0, "guest-abc")
	defer reopened.Close()

	items := reopened.Items()
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity)
	require.NotNil(t, items[0].Selected)
	require.False(t, *items[0].Selected)
}

func TestGuestCartMergesByProduct(t *testing.T) {
	repo := newFakeCartRepo()
	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 0, "guest-merge")

	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 1))
	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 2))

	items := s.Items()
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)
	require.Equal(t, 0, repo.rowCount())
}

func TestInitializeReplacesGuestCartOnSignIn(t *testing.T) {
	repo := newFakeCartRepo()
	remote := models.CartLineItem{
		ID: uuid.New(), UserID: 7, ProductID: 4,
		ProductName: "VoltCore RTX Titanum",
		UnitPrice:   decimal.RequireFromString("1999.00"),
		Quantity:    1,
	}
	require.NoError(t, repo.Insert(context.Background(), remote))

	s := newTestStore(t, repo, repositories.NopCartFeed{})
	s.Initialize(context.Background(), 0, "guest-xyz")
	require.NoError(t, s.AddToCart(context.Background(), gpuSnapshot(), 1))

	// sign-in: the remote cart wins, the guest items are left behind
	s.Initialize(context.Background(), 7, "")

	items := s.Items()
	require.Len(t, items, 1)
	require.Equal(t, remote.ID, items[0].ID)
	require.Equal(t, CartReady, s.State())
}
