package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/promorang/marketplace-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	content  map[string]*model.Content
	holdings map[string]*model.Holding // key: userID + "/" + contentID
	listings map[string]*model.Listing
	offers   map[string]*model.Offer
	wallets  map[string]*model.Wallet
	moves    []model.MoveEntry
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		content:  make(map[string]*model.Content),
		holdings: make(map[string]*model.Holding),
		listings: make(map[string]*model.Listing),
		offers:   make(map[string]*model.Offer),
		wallets:  make(map[string]*model.Wallet),
	}
}

func holdingKey(userID, contentID string) string {
	return userID + "/" + contentID
}

func (s *MemoryStore) CreateContent(_ context.Context, c *model.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.content[c.ID]; exists {
		return fmt.Errorf("content %s already exists", c.ID)
	}
	copy := *c
	s.content[c.ID] = &copy
	return nil
}

func (s *MemoryStore) GetContent(_ context.Context, id string) (*model.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.content[id]
	if !ok {
		return nil, fmt.Errorf("content %s not found", id)
	}
	copy := *c
	return &copy, nil
}

func (s *MemoryStore) ListContent(_ context.Context) ([]model.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content := make([]model.Content, 0, len(s.content))
	for _, c := range s.content {
		content = append(content, *c)
	}
	return content, nil
}

func (s *MemoryStore) UpdateContentShares(_ context.Context, id string, available int64, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.content[id]
	if !ok {
		return fmt.Errorf("content %s not found", id)
	}
	c.AvailableShares = available
	c.SharePrice = price
	return nil
}

func (s *MemoryStore) GetHolding(_ context.Context, userID, contentID string) (*model.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.holdings[holdingKey(userID, contentID)]
	if !ok {
		return nil, fmt.Errorf("holding %s/%s not found", userID, contentID)
	}
	copy := *h
	return &copy, nil
}

func (s *MemoryStore) ListHoldingsByUser(_ context.Context, userID string) ([]model.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Holding
	for _, h := range s.holdings {
		if h.UserID == userID {
			result = append(result, *h)
		}
	}
	return result, nil
}

func (s *MemoryStore) UpsertHolding(_ context.Context, h *model.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.AvailableToSell > h.OwnedShares {
		return fmt.Errorf("holding %s/%s: available_to_sell exceeds owned_shares", h.UserID, h.ContentID)
	}

	// Store a copy to avoid external mutation.
	copy := *h
	s.holdings[holdingKey(h.UserID, h.ContentID)] = &copy
	return nil
}

func (s *MemoryStore) CreateListing(_ context.Context, l *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[l.ID]; exists {
		return fmt.Errorf("listing %s already exists", l.ID)
	}
	copy := *l
	s.listings[l.ID] = &copy
	return nil
}

func (s *MemoryStore) GetListing(_ context.Context, id string) (*model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s not found", id)
	}
	copy := *l
	return &copy, nil
}

func (s *MemoryStore) ListListingsByContent(_ context.Context, contentID string) ([]model.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Listing
	for _, l := range s.listings {
		if l.ContentID == contentID {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (s *MemoryStore) UpdateListingStatus(_ context.Context, id, status string, remaining int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return fmt.Errorf("listing %s not found", id)
	}
	l.Status = status
	l.RemainingQuantity = remaining
	return nil
}

func (s *MemoryStore) CreateOffer(_ context.Context, o *model.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offers[o.ID]; exists {
		return fmt.Errorf("offer %s already exists", o.ID)
	}
	copy := *o
	s.offers[o.ID] = &copy
	return nil
}

func (s *MemoryStore) GetOffer(_ context.Context, id string) (*model.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, fmt.Errorf("offer %s not found", id)
	}
	copy := *o
	return &copy, nil
}

func (s *MemoryStore) UpdateOfferStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offers[id]
	if !ok {
		return fmt.Errorf("offer %s not found", id)
	}
	o.Status = status
	return nil
}

func (s *MemoryStore) GetWallet(_ context.Context, userID string) (*model.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[userID]
	if !ok {
		return &model.Wallet{UserID: userID, USDBalance: decimal.Zero}, nil
	}
	copy := *w
	return &copy, nil
}

func (s *MemoryStore) SaveWallet(_ context.Context, w *model.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.PointsBalance < 0 || w.KeysBalance < 0 || w.GemsBalance < 0 || w.GoldCollected < 0 || w.USDBalance.IsNegative() {
		return fmt.Errorf("wallet %s: negative balance", w.UserID)
	}
	copy := *w
	s.wallets[w.UserID] = &copy
	return nil
}

func (s *MemoryStore) InsertMoveEntry(_ context.Context, e *model.MoveEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.moves = append(s.moves, *e)
	return nil
}

func (s *MemoryStore) ListMoveEntriesByUser(_ context.Context, userID string) ([]model.MoveEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.MoveEntry
	for _, e := range s.moves {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return result, nil
}
