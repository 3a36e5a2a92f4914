package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/promorang/marketplace-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetContent(ctx context.Context, id string) (*model.Content, error) {
	data, err := s.rdb.Get(ctx, contentKey(id)).Bytes()
	if err == nil {
		var c model.Content
		if json.Unmarshal(data, &c) == nil {
			return &c, nil
		}
	}

	c, err := s.primary.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheContent(ctx, c)
	return c, nil
}

func (s *CachedStore) GetHolding(ctx context.Context, userID, contentID string) (*model.Holding, error) {
	data, err := s.rdb.Get(ctx, holdingCacheKey(userID, contentID)).Bytes()
	if err == nil {
		var h model.Holding
		if json.Unmarshal(data, &h) == nil {
			return &h, nil
		}
	}

	// Cache miss: read from primary.
	h, err := s.primary.GetHolding(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}

	s.cacheHolding(ctx, h)
	return h, nil
}

func (s *CachedStore) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	data, err := s.rdb.Get(ctx, walletKey(userID)).Bytes()
	if err == nil {
		var w model.Wallet
		if json.Unmarshal(data, &w) == nil {
			return &w, nil
		}
	}

	w, err := s.primary.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(w); err == nil {
		s.rdb.Set(ctx, walletKey(userID), data, s.ttl)
	}
	return w, nil
}

func (s *CachedStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	data, err := s.rdb.Get(ctx, listingKey(id)).Bytes()
	if err == nil {
		var l model.Listing
		if json.Unmarshal(data, &l) == nil {
			return &l, nil
		}
	}

	l, err := s.primary.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(l); err == nil {
		s.rdb.Set(ctx, listingKey(id), data, s.ttl)
	}
	return l, nil
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateContent(ctx context.Context, c *model.Content) error {
	if err := s.primary.CreateContent(ctx, c); err != nil {
		return err
	}
	s.cacheContent(ctx, c)
	return nil
}

func (s *CachedStore) UpdateContentShares(ctx context.Context, id string, available int64, price decimal.Decimal) error {
	if err := s.primary.UpdateContentShares(ctx, id, available, price); err != nil {
		return err
	}
	// Invalidate; next read will re-populate.
	s.rdb.Del(ctx, contentKey(id))
	return nil
}

func (s *CachedStore) UpsertHolding(ctx context.Context, h *model.Holding) error {
	if err := s.primary.UpsertHolding(ctx, h); err != nil {
		return err
	}
	s.cacheHolding(ctx, h)
	return nil
}

func (s *CachedStore) SaveWallet(ctx context.Context, w *model.Wallet) error {
	if err := s.primary.SaveWallet(ctx, w); err != nil {
		return err
	}
	// Invalidate; next read will re-populate.
	s.rdb.Del(ctx, walletKey(w.UserID))
	return nil
}

func (s *CachedStore) UpdateListingStatus(ctx context.Context, id, status string, remaining int64) error {
	if err := s.primary.UpdateListingStatus(ctx, id, status, remaining); err != nil {
		return err
	}
	s.rdb.Del(ctx, listingKey(id))
	return nil
}

func (s *CachedStore) CreateListing(ctx context.Context, l *model.Listing) error {
	if err := s.primary.CreateListing(ctx, l); err != nil {
		return err
	}
	if data, err := json.Marshal(l); err == nil {
		s.rdb.Set(ctx, listingKey(l.ID), data, s.ttl)
	}
	return nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListContent(ctx context.Context) ([]model.Content, error) {
	return s.primary.ListContent(ctx)
}

func (s *CachedStore) ListHoldingsByUser(ctx context.Context, userID string) ([]model.Holding, error) {
	return s.primary.ListHoldingsByUser(ctx, userID)
}

func (s *CachedStore) ListListingsByContent(ctx context.Context, contentID string) ([]model.Listing, error) {
	return s.primary.ListListingsByContent(ctx, contentID)
}

func (s *CachedStore) CreateOffer(ctx context.Context, o *model.Offer) error {
	return s.primary.CreateOffer(ctx, o)
}

func (s *CachedStore) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	return s.primary.GetOffer(ctx, id)
}

func (s *CachedStore) UpdateOfferStatus(ctx context.Context, id, status string) error {
	return s.primary.UpdateOfferStatus(ctx, id, status)
}

func (s *CachedStore) InsertMoveEntry(ctx context.Context, e *model.MoveEntry) error {
	return s.primary.InsertMoveEntry(ctx, e)
}

func (s *CachedStore) ListMoveEntriesByUser(ctx context.Context, userID string) ([]model.MoveEntry, error) {
	return s.primary.ListMoveEntriesByUser(ctx, userID)
}

// --- Cache helpers ---

func (s *CachedStore) cacheContent(ctx context.Context, c *model.Content) {
	if data, err := json.Marshal(c); err == nil {
		s.rdb.Set(ctx, contentKey(c.ID), data, s.ttl)
	}
}

func (s *CachedStore) cacheHolding(ctx context.Context, h *model.Holding) {
	if data, err := json.Marshal(h); err == nil {
		s.rdb.Set(ctx, holdingCacheKey(h.UserID, h.ContentID), data, s.ttl)
	}
}

func contentKey(id string) string { return fmt.Sprintf("content:%s", id) }

func holdingCacheKey(userID, contentID string) string {
	return fmt.Sprintf("holding:%s:%s", userID, contentID)
}
func walletKey(userID string) string { return fmt.Sprintf("wallet:%s", userID) }
func listingKey(id string) string    { return fmt.Sprintf("listing:%s", id) }
