// Package pricing implements the share-marketplace purchase and resale
// calculators: quantity clamping, affordability gating, and the platform
// fee quote for resale listings.
//
// Everything here is stateless and deterministic — quantities, prices, and
// balances are passed as arguments, never stored. All monetary values use
// shopspring/decimal — never float64 for money.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when a quote is requested for a
	// non-positive share quantity.
	ErrInvalidQuantity = errors.New("pricing: quantity must be positive")

	// ErrInvalidPrice is returned when a quote is requested for a
	// non-positive ask price.
	ErrInvalidPrice = errors.New("pricing: ask price must be positive")

	// PlatformFeeRate is the resale platform fee taken from gross proceeds.
	// Product policy, fixed at 2.5%; not configurable in this layer.
	PlatformFeeRate = decimal.NewFromFloat(0.025)
)

// Clamp forces a requested quantity into the legal range [1, max].
// A nil max means no upper bound applies (e.g. the wallet-limited case
// where no fixed inventory cap exists), so only the floor of 1 is enforced.
func Clamp(current int64, max *int64) int64 {
	if current < 1 {
		current = 1
	}
	if max != nil && current > *max {
		return *max
	}
	return current
}

// PurchaseLimit is the legal purchase range for one buyer against one
// piece of content. When Eligible is false the purchase action must be
// disabled outright — Max is not meaningful.
type PurchaseLimit struct {
	Max      int64
	Bounded  bool
	Eligible bool
}

// ComputePurchaseLimit derives the maximum purchasable quantity from the
// available inventory and the buyer's wallet.
//
//	max = floor(min(availableInventory, walletBalance / unitPrice))
//
// A negative available count means the inventory cap is unknown and only
// the wallet constrains the purchase. A zero unit price disables the
// wallet constraint entirely (guards the divide-by-zero). A resulting
// max <= 0 collapses to ineligible, never to "unbounded".
func ComputePurchaseLimit(available int64, unitPrice, balance decimal.Decimal) PurchaseLimit {
	walletBounded := unitPrice.IsPositive()

	var walletMax int64
	if walletBounded {
		walletMax = balance.Div(unitPrice).IntPart() // floor for non-negative operands
		if walletMax < 0 {
			walletMax = 0
		}
	}

	inventoryBounded := available >= 0

	switch {
	case inventoryBounded && walletBounded:
		max := available
		if walletMax < max {
			max = walletMax
		}
		return PurchaseLimit{Max: max, Bounded: true, Eligible: max > 0}
	case inventoryBounded:
		return PurchaseLimit{Max: available, Bounded: true, Eligible: available > 0}
	case walletBounded:
		return PurchaseLimit{Max: walletMax, Bounded: true, Eligible: walletMax > 0}
	default:
		// No inventory cap and no usable price: nothing to clamp against,
		// but a purchase with an unknown price can never be eligible.
		return PurchaseLimit{Bounded: false, Eligible: false}
	}
}

// ClampPurchase applies Clamp against a computed purchase limit.
func ClampPurchase(requested int64, limit PurchaseLimit) int64 {
	if !limit.Bounded {
		return Clamp(requested, nil)
	}
	max := limit.Max
	return Clamp(requested, &max)
}

// CanAfford reports whether a purchase can proceed: the content must be
// eligible for purchase and the balance must cover the total cost. The two
// failure cases are distinct user-facing states; callers decide which one
// applies by checking eligibility separately.
func CanAfford(totalCost, balance decimal.Decimal, eligible bool) bool {
	return eligible && balance.GreaterThanOrEqual(totalCost)
}

// Quote is the proceeds breakdown for a resale listing.
// Invariant: Fee + Net == Gross exactly.
type Quote struct {
	Gross decimal.Decimal `json:"gross"`
	Fee   decimal.Decimal `json:"fee"`
	Net   decimal.Decimal `json:"net"`
}

// NewQuote computes gross proceeds, platform fee, and net payout for
// selling quantity shares at askPrice each. Values are kept at full
// precision; rounding happens only at display time.
func NewQuote(quantity int64, askPrice decimal.Decimal) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, ErrInvalidQuantity
	}
	if !askPrice.IsPositive() {
		return Quote{}, ErrInvalidPrice
	}

	gross := askPrice.Mul(decimal.NewFromInt(quantity))
	fee := gross.Mul(PlatformFeeRate)
	net := gross.Sub(fee)

	return Quote{Gross: gross, Fee: fee, Net: net}, nil
}

// DefaultOfferQuantity suggests an opening bid size of a quarter of the
// holder's position, rounded up, clamped to [1, owned]. Returns 0 when the
// holder owns nothing (no offer can be made).
func DefaultOfferQuantity(owned int64) int64 {
	if owned <= 0 {
		return 0
	}
	qty := (owned + 3) / 4 // ceil(owned * 0.25)
	return Clamp(qty, &owned)
}
