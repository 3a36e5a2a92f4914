// Package store defines the persistence interface for the marketplace
// engine. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing).
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/promorang/marketplace-engine/internal/model"
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Content ---

	// CreateContent persists a new piece of shareable content.
	CreateContent(ctx context.Context, c *model.Content) error

	// GetContent retrieves content by ID.
	GetContent(ctx context.Context, id string) (*model.Content, error)

	// ListContent returns all content.
	ListContent(ctx context.Context) ([]model.Content, error)

	// UpdateContentShares updates inventory and price after a purchase.
	UpdateContentShares(ctx context.Context, id string, available int64, price decimal.Decimal) error

	// --- Holdings ---

	// GetHolding retrieves one user's position in one piece of content.
	GetHolding(ctx context.Context, userID, contentID string) (*model.Holding, error)

	// ListHoldingsByUser returns all of a user's positions.
	ListHoldingsByUser(ctx context.Context, userID string) ([]model.Holding, error)

	// UpsertHolding creates or replaces a holding row.
	UpsertHolding(ctx context.Context, h *model.Holding) error

	// --- Listings ---

	// CreateListing persists a new resale listing.
	CreateListing(ctx context.Context, l *model.Listing) error

	// GetListing retrieves a listing by ID.
	GetListing(ctx context.Context, id string) (*model.Listing, error)

	// ListListingsByContent returns all listings for a piece of content.
	ListListingsByContent(ctx context.Context, contentID string) ([]model.Listing, error)

	// UpdateListingStatus updates a listing's status and remaining quantity.
	UpdateListingStatus(ctx context.Context, id, status string, remaining int64) error

	// --- Offers ---

	// CreateOffer persists a new share offer.
	CreateOffer(ctx context.Context, o *model.Offer) error

	// GetOffer retrieves an offer by ID.
	GetOffer(ctx context.Context, id string) (*model.Offer, error)

	// UpdateOfferStatus transitions an offer's status.
	UpdateOfferStatus(ctx context.Context, id, status string) error

	// --- Wallets ---

	// GetWallet returns a user's balances. A user with no wallet row gets
	// a zero-balance wallet, not an error.
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)

	// SaveWallet creates or replaces a wallet row.
	SaveWallet(ctx context.Context, w *model.Wallet) error

	// --- Immutable move ledger ---

	// InsertMoveEntry appends an immutable reward record.
	InsertMoveEntry(ctx context.Context, e *model.MoveEntry) error

	// ListMoveEntriesByUser returns all rewarded moves for a user.
	ListMoveEntriesByUser(ctx context.Context, userID string) ([]model.MoveEntry, error)
}
