// Package cart owns the single source of truth for the visitor's pending
// purchase. Every mutation is synchronously persisted best-effort; the
// in-memory state stays authoritative even when persistence fails.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
	"github.com/Tomyshh/aerilux-commerce/internal/migrate"
	"github.com/Tomyshh/aerilux-commerce/internal/store"
)

// StorageKey is the fixed blob key for the persisted cart.
const StorageKey = "aerilux.cart"

// DeltaEmitter receives the unsigned quantity delta and directional kind of
// every quantity-changing mutation.
// Consumers define this interface, not the events implementation.
type DeltaEmitter interface {
	Delta(sku, name, kind string, quantity int)
}

// Store holds the cart for one browsing context. Construct once at
// application start and pass by reference; a fresh instance re-reads and
// migrates the persisted blob.
type Store struct {
	mu      sync.Mutex
	blobs   store.BlobStore
	emitter DeltaEmitter
	items   []domain.LineItem
}

// NewStore reads the persisted blob once and migrates it. Load fails soft:
// a read error, unparsable JSON or a non-array payload all resolve to an
// empty cart.
func NewStore(ctx context.Context, blobs store.BlobStore, emitter DeltaEmitter) *Store {
	s := &Store{blobs: blobs, emitter: emitter}

	blob, err := blobs.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("cart load failed, starting empty: %v", err)
		}
		return s
	}
	s.items = migrate.FromBlob(blob)
	return s
}

// Add puts quantity units of sku into the cart. Quantity is clamped to at
// least 1. An existing line keeps its position and gains the quantity; a
// new line is appended. Emits one add_to_cart sized by the quantity
// actually added.
func (s *Store) Add(ctx context.Context, sku, name string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(sku); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, domain.LineItem{SKU: sku, Name: name, Quantity: quantity})
	}
	s.persist(ctx)

	// Delta only enqueues, so it stays inside the critical section: the
	// emitter must see deltas in the order the mutations committed.
	s.emitter.Delta(sku, name, domain.EventAddToCart, quantity)
}

// Remove deletes the matching line. No-op without an event when sku is not
// in the cart; otherwise emits one remove_from_cart sized by the entire
// removed quantity.
func (s *Store) Remove(ctx context.Context, sku string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(sku)
	if i < 0 {
		return
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.persist(ctx)

	s.emitter.Delta(removed.SKU, removed.Name, domain.EventRemoveFromCart, removed.Quantity)
}

// SetQuantity replaces the stored quantity. A quantity of zero or below is
// equivalent to Remove. The event is sized by the delta against the old
// quantity: positive deltas emit add_to_cart, negative emit
// remove_from_cart, zero emits nothing. Unknown skus are a no-op.
func (s *Store) SetQuantity(ctx context.Context, sku string, quantity int) {
	if quantity <= 0 {
		s.Remove(ctx, sku)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(sku)
	if i < 0 {
		return
	}
	delta := quantity - s.items[i].Quantity
	name := s.items[i].Name
	s.items[i].Quantity = quantity
	s.persist(ctx)

	switch {
	case delta > 0:
		s.emitter.Delta(sku, name, domain.EventAddToCart, delta)
	case delta < 0:
		s.emitter.Delta(sku, name, domain.EventRemoveFromCart, -delta)
	}
}

// Clear empties the cart without emitting an event; the checkout success
// path emits purchase separately, before calling Clear.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist(ctx)
}

// Items returns a defensive copy in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Cart{Items: s.items}.TotalItemCount()
}

func (s *Store) find(sku string) int {
	return domain.Cart{Items: s.items}.Find(sku)
}

// persist writes the current items under StorageKey. Best-effort: a write
// failure is logged and swallowed, the in-memory cart remains authoritative
// for the rest of the session. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []domain.LineItem{}
	}
	blob, err := json.Marshal(items)
	if err != nil {
		log.Printf("cart marshal failed: %v", err)
		return
	}
	if err := s.blobs.Set(ctx, StorageKey, string(blob)); err != nil {
		log.Printf("cart persist failed: %v", err)
	}
}
