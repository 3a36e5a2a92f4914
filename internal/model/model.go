// Package model defines the core domain types shared across the marketplace
// engine. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing statuses.
const (
	ListingActive    = "active"
	ListingFilled    = "filled"
	ListingCancelled = "cancelled"
)

// Offer statuses.
const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferDeclined = "declined"
	OfferExpired  = "expired"
)

// Content is a piece of creator content whose shares trade on the primary
// market. AvailableShares of -1 means no fixed inventory cap is known and
// only the buyer's wallet constrains a purchase.
type Content struct {
	ID              string          `json:"id" db:"id"`
	CreatorID       string          `json:"creator_id" db:"creator_id"`
	Title           string          `json:"title" db:"title"`
	Thumbnail       string          `json:"thumbnail,omitempty" db:"thumbnail"`
	SharePrice      decimal.Decimal `json:"share_price" db:"share_price"`
	TotalShares     int64           `json:"total_shares" db:"total_shares"`
	AvailableShares int64           `json:"available_shares" db:"available_shares"`
	Status          string          `json:"status" db:"status"` // active, closed
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// Holding represents a user's fractional share position in one piece of
// creator content. The server is authoritative; clients only mirror this.
// Invariant: AvailableToSell <= OwnedShares.
type Holding struct {
	UserID          string          `json:"user_id" db:"user_id"`
	ContentID       string          `json:"content_id" db:"content_id"`
	OwnedShares     int64           `json:"owned_shares" db:"owned_shares"`
	AvailableToSell int64           `json:"available_to_sell" db:"available_to_sell"`
	CurrentPrice    decimal.Decimal `json:"current_price" db:"current_price"`
	AvgCost         decimal.Decimal `json:"avg_cost" db:"avg_cost"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Listing is a resale listing on the secondary share marketplace.
type Listing struct {
	ID                string          `json:"id" db:"id"`
	SellerID          string          `json:"seller_id" db:"seller_id"`
	ContentID         string          `json:"content_id" db:"content_id"`
	ContentTitle      string          `json:"content_title" db:"content_title"`
	ContentThumbnail  string          `json:"content_thumbnail,omitempty" db:"content_thumbnail"`
	Quantity          int64           `json:"quantity" db:"quantity"`
	RemainingQuantity int64           `json:"remaining_quantity" db:"remaining_quantity"`
	AskPrice          decimal.Decimal `json:"ask_price" db:"ask_price"`
	Gross             decimal.Decimal `json:"gross" db:"gross"` // quantity * ask_price
	Fee               decimal.Decimal `json:"fee" db:"fee"`     // platform fee at listing time
	Net               decimal.Decimal `json:"net" db:"net"`     // seller proceeds if fully filled
	Status            string          `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// Offer is a direct bid for shares held by another user.
type Offer struct {
	ID        string          `json:"id" db:"id"`
	BuyerID   string          `json:"buyer_id" db:"buyer_id"`
	SellerID  string          `json:"seller_id,omitempty" db:"seller_id"`
	ContentID string          `json:"content_id" db:"content_id"`
	Quantity  int64           `json:"quantity" db:"quantity"`
	BidPrice  decimal.Decimal `json:"bid_price" db:"bid_price"`
	Message   string          `json:"message,omitempty" db:"message"`
	Status    string          `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Wallet holds a user's virtual currency balances plus the legacy USD
// balance. Point-like balances are non-negative integers; mutations happen
// only through store credit/debit operations.
type Wallet struct {
	UserID        string          `json:"user_id" db:"user_id"`
	PointsBalance int64           `json:"points_balance" db:"points_balance"`
	KeysBalance   int64           `json:"keys_balance" db:"keys_balance"`
	GemsBalance   int64           `json:"gems_balance" db:"gems_balance"`
	GoldCollected int64           `json:"gold_collected" db:"gold_collected"`
	USDBalance    decimal.Decimal `json:"usd_balance" db:"usd_balance"`
}

// MoveEntry is an immutable record of a rewarded social action.
// Once created, these are never modified or deleted.
type MoveEntry struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ContentID string    `json:"content_id" db:"content_id"`
	Action    string    `json:"action" db:"action"`     // like, comment, save, share, repost
	External  bool      `json:"external" db:"external"` // external platform move vs in-app
	Points    int64     `json:"points" db:"points"`
	Keys      int64     `json:"keys" db:"keys"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Portfolio aggregates a user's holdings with mark-to-market totals.
type Portfolio struct {
	UserID        string          `json:"user_id"`
	Holdings      []Holding       `json:"holdings"`
	TotalValue    decimal.Decimal `json:"total_value"`    // Σ owned * current_price
	TotalCost     decimal.Decimal `json:"total_cost"`     // Σ owned * avg_cost
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"` // totalValue - totalCost
}

// --- Advertiser-service DTOs ---
//
// These mirror the upstream advertiser service's responses. The normalizers
// in internal/advertiser guarantee the slice fields are never nil.

// SubscriptionPlan is one advertiser subscription tier.
type SubscriptionPlan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Tier         string          `json:"tier"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	Features     []string        `json:"features"`
}

// SubscriptionState is an advertiser's current plan membership.
type SubscriptionState struct {
	CurrentTier string             `json:"current_tier"`
	Plans       []SubscriptionPlan `json:"plans"`
}

// CouponAssignment links a coupon to a recipient user.
type CouponAssignment struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	AssignedAt time.Time  `json:"assigned_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

// Coupon is an advertiser-issued discount code.
type Coupon struct {
	ID            string             `json:"id"`
	Code          string             `json:"code"`
	DiscountType  string             `json:"discount_type"` // percent, fixed
	DiscountValue decimal.Decimal    `json:"discount_value"`
	MaxUses       int64              `json:"max_uses"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	Assignments   []CouponAssignment `json:"assignments"`
}

// Redemption records one coupon use.
type Redemption struct {
	ID         string    `json:"id"`
	CouponID   string    `json:"coupon_id"`
	UserID     string    `json:"user_id"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// CouponBook is the advertiser's coupon inventory plus redemption history.
type CouponBook struct {
	Coupons     []Coupon     `json:"coupons"`
	Redemptions []Redemption `json:"redemptions"`
}

// Campaign is an advertiser content campaign with a funding balance.
type Campaign struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Status     string          `json:"status"`
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	ContentIDs []string        `json:"content_ids"`
	CreatedAt  time.Time       `json:"created_at"`
}
