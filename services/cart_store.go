package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gpu-shop/models"
	"gpu-shop/repositories"

	"github.com/google/uuid"
)

type CartState int

const (
	CartUninitialized CartState = iota
	CartLoading
	CartReady
)

// CartStore holds the line items of one session. Signed-in sessions are
// write-through against the cart_items table and kept in sync by the change
// feed; guest sessions live in memory and are mirrored to a guest-cart file
// on every change.
//
// Known limitation: AddToCart's increment-or-insert reads the remote row and
// then writes, with no transaction around the pair. Two concurrent adds for
// the same product can both miss the existing row and insert twice, or both
// read the same quantity and drop one increment. This mirrors the observed
// behavior of the storefront client.
type CartStore struct {
	mu       sync.Mutex
	state    CartState
	userID   int
	guestKey string
	items    []models.CartLineItem

	remote repositories.CartRepository
	feed   repositories.CartFeed
	local  repositories.GuestCartStore
	notify Notifier

	cancelFeed context.CancelFunc
}

func NewCartStore(remote repositories.CartRepository, feed repositories.CartFeed, local repositories.GuestCartStore, notify Notifier) *CartStore {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &CartStore{
		remote: remote,
		feed:   feed,
		local:  local,
		notify: notify,
		items:  []models.CartLineItem{},
	}
}

func (s *CartStore) authenticated() bool {
	return s.userID != 0
}

// Initialize loads the cart for the given identity, replacing whatever was
// held before. It runs on session start and again on every sign-in or
// sign-out transition. A failed load degrades to an empty ready cart; the
// UI cannot tell the difference and the error only reaches the log.
func (s *CartStore) Initialize(ctx context.Context, userID int, guestKey string) {
	s.mu.Lock()
	if s.cancelFeed != nil {
		s.cancelFeed()
		s.cancelFeed = nil
	}
	s.state = CartLoading
	s.userID = userID
	s.guestKey = guestKey
	s.mu.Unlock()

	items := s.loadItems(ctx, userID, guestKey)

	s.mu.Lock()
	s.items = items
	s.state = CartReady
	s.mu.Unlock()

	if userID != 0 {
		s.openFeed(userID)
	}
}

func (s *CartStore) loadItems(ctx context.Context, userID int, guestKey string) []models.CartLineItem {
	if userID == 0 {
		items, err := s.local.Load(guestKey)
		if err != nil {
			log.Printf("cart store: guest cart load failed, starting empty: %v", err)
			return []models.CartLineItem{}
		}
		return items
	}

	items, err := s.remote.ListByOwner(ctx, userID)
	if err != nil {
		log.Printf("cart store: remote fetch failed, starting empty: %v", err)
		return []models.CartLineItem{}
	}
	// remote rows carry no selection flag; nil means selected
	for i := range items {
		items[i].Selected = nil
	}
	return items
}

func (s *CartStore) openFeed(userID int) {
	if s.feed == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.feed.Subscribe(ctx, userID)
	if err != nil {
		log.Printf("cart store: feed subscription failed: %v", err)
		cancel()
		return
	}

	s.mu.Lock()
	s.cancelFeed = cancel
	s.mu.Unlock()

	go func() {
		for ev := range ch {
			s.applyEvent(ev)
		}
	}()
}

// applyEvent reconciles one change-feed message into the in-memory list.
// Inserts are deduplicated on the client-generated ID so our own writes,
// echoed back by the feed, do not double up.
func (s *CartStore) applyEvent(ev models.CartChangeEvent) {
	switch ev.Type {
	case models.CartEventInsert:
		s.mu.Lock()
		if s.indexOf(ev.Item.ID) < 0 {
			s.items = append(s.items, ev.Item)
		}
		s.mu.Unlock()

	case models.CartEventUpdate:
		s.mu.Lock()
		if i := s.indexOf(ev.Item.ID); i >= 0 {
			// merge remote fields, keep the local-only ones
			selected := s.items[i].Selected
			imageURL := s.items[i].ImageURL
			s.items[i] = ev.Item
			s.items[i].Selected = selected
			s.items[i].ImageURL = imageURL
		}
		s.mu.Unlock()

	case models.CartEventDelete:
		s.mu.Lock()
		if i := s.indexOf(ev.Item.ID); i >= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
		s.mu.Unlock()

	default:
		// unrecognized payload shape: reload rather than guess
		log.Printf("cart store: unexpected feed event %q, reloading", ev.Type)
		s.reload()
	}
}

func (s *CartStore) reload() {
	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, err := s.remote.ListByOwner(ctx, userID)
	if err != nil {
		log.Printf("cart store: defensive reload failed: %v", err)
		return
	}
	for i := range items {
		items[i].Selected = nil
	}

	s.mu.Lock()
	if s.userID == userID {
		s.items = items
	}
	s.mu.Unlock()
}

// AddToCart merges the snapshot into the cart: an existing line item for the
// product gains quantity, otherwise a new item is created. For signed-in
// sessions the remote write happens first and a failure leaves memory
// untouched.
func (s *CartStore) AddToCart(ctx context.Context, snap models.ProductSnapshot, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	if !s.authenticated() {
		s.addToGuestCart(snap, quantity)
		s.notify.Success("Added to cart")
		return nil
	}

	existing, err := s.remote.FindByOwnerProduct(ctx, s.userID, snap.ProductID)
	if err != nil && repositories.KindOf(err) != repositories.ErrKindNotFound {
		log.Printf("cart store: add to cart lookup failed: %v", err)
		s.notify.Error("Could not add to cart")
		return err
	}

	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if err := s.remote.UpdateQuantity(ctx, s.userID, existing.ID, newQuantity); err != nil {
			log.Printf("cart store: add to cart update failed: %v", err)
			s.notify.Error("Could not add to cart")
			return err
		}

		s.mu.Lock()
		if i := s.indexOf(existing.ID); i >= 0 {
			s.items[i].Quantity = newQuantity
		} else {
			merged := *existing
			merged.Quantity = newQuantity
			merged.ImageURL = snap.ImageURL
			s.items = append(s.items, merged)
		}
		s.mu.Unlock()

		s.notify.Success("Added to cart")
		return nil
	}

	item := models.CartLineItem{
		ID:          uuid.New(),
		UserID:      s.userID,
		ProductID:   snap.ProductID,
		ProductName: snap.Name,
		UnitPrice:   snap.UnitPrice,
		Quantity:    quantity,
		ImageURL:    snap.ImageURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	// only the remote columns travel; ImageURL and Selected stay local
	if err := s.remote.Insert(ctx, item); err != nil {
		log.Printf("cart store: add to cart insert failed: %v", err)
		s.notify.Error("Could not add to cart")
		return err
	}

	s.mu.Lock()
	if s.indexOf(item.ID) < 0 {
		s.items = append(s.items, item)
	}
	s.mu.Unlock()

	s.notify.Success("Added to cart")
	return nil
}

func (s *CartStore) addToGuestCart(snap models.ProductSnapshot, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == snap.ProductID {
			s.items[i].Quantity += quantity
			s.items[i].UpdatedAt = time.Now()
			s.persistGuestCart()
			return
		}
	}

	s.items = append(s.items, models.CartLineItem{
		ID:          uuid.New(),
		ProductID:   snap.ProductID,
		ProductName: snap.Name,
		UnitPrice:   snap.UnitPrice,
		Quantity:    quantity,
		ImageURL:    snap.ImageURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	s.persistGuestCart()
}

// RemoveFromCart deletes a line item. Removing an ID that is already gone is
// a no-op.
func (s *CartStore) RemoveFromCart(ctx context.Context, id uuid.UUID) error {
	if s.authenticated() {
		if err := s.remote.Delete(ctx, s.userID, id); err != nil {
			log.Printf("cart store: remove failed: %v", err)
			s.notify.Error("Could not remove item")
			return err
		}
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		if !s.authenticated() {
			s.persistGuestCart()
		}
	}
	s.mu.Unlock()

	s.notify.Success("Item removed")
	return nil
}

// UpdateQuantity sets a line item's quantity. Anything below one is rejected
// silently, keeping the quantity floor without surfacing an error.
func (s *CartStore) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity < 1 {
		return nil
	}

	if s.authenticated() {
		err := s.remote.UpdateQuantity(ctx, s.userID, id, quantity)
		if err != nil {
			if repositories.KindOf(err) == repositories.ErrKindNotFound {
				return nil
			}
			log.Printf("cart store: quantity update failed: %v", err)
			s.notify.Error("Could not update quantity")
			return err
		}
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i].Quantity = quantity
		s.items[i].UpdatedAt = time.Now()
		if !s.authenticated() {
			s.persistGuestCart()
		}
	}
	s.mu.Unlock()

	return nil
}

// ToggleItemSelection flips the checkout flag of one item. Selection is
// purely local state; the remote table has no column for it, so this never
// touches storage for signed-in sessions either.
func (s *CartStore) ToggleItemSelection(id uuid.UUID, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.items[i].Selected = &selected
		if !s.authenticated() {
			s.persistGuestCart()
		}
	}
}

func (s *CartStore) SelectAllItems(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		s.items[i].Selected = &selected
	}
	if !s.authenticated() {
		s.persistGuestCart()
	}
}

// ClearCart empties the cart, deleting every remote row first for signed-in
// sessions.
func (s *CartStore) ClearCart(ctx context.Context) error {
	if s.authenticated() {
		if err := s.remote.DeleteByOwner(ctx, s.userID); err != nil {
			log.Printf("cart store: clear failed: %v", err)
			s.notify.Error("Could not clear cart")
			return err
		}
	}

	s.mu.Lock()
	s.items = []models.CartLineItem{}
	if !s.authenticated() {
		s.persistGuestCart()
	}
	s.mu.Unlock()

	s.notify.Success("Cart cleared")
	return nil
}

// DropItems removes line items from memory only. Checkout uses it after the
// purchase transaction has already deleted the rows.
func (s *CartStore) DropItems(ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if i := s.indexOf(id); i >= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
	}
	if !s.authenticated() {
		s.persistGuestCart()
	}
}

func (s *CartStore) Items() []models.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *CartStore) Projection() Projection {
	return ProjectSelection(s.Items())
}

func (s *CartStore) State() CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears down the feed subscription.
func (s *CartStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelFeed != nil {
		s.cancelFeed()
		s.cancelFeed = nil
	}
}

// persistGuestCart mirrors the in-memory list to the guest-cart file. Memory
// is the source of truth for guests; a failed mirror is logged, not rolled
// back. Callers hold the lock.
func (s *CartStore) persistGuestCart() {
	if s.local == nil || s.guestKey == "" {
		return
	}
	if err := s.local.Save(s.guestKey, s.items); err != nil {
		log.Printf("cart store: guest cart save failed: %v", err)
	}
}

// indexOf finds a line item by ID. Callers hold the lock.
func (s *CartStore) indexOf(id uuid.UUID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
