// Package rewards implements the tier-adjusted reward calculator for social
// actions ("moves"), content shares, and gem tips.
//
// Base values and ratios here are product policy, not incidental code:
// external-platform moves pay 10x more than the same in-app action, and one
// key is earned per 20 points on external moves. All functions are pure and
// deterministic.
package rewards

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Supported move actions.
const (
	ActionLike    = "like"
	ActionComment = "comment"
	ActionSave    = "save"
	ActionShare   = "share"
	ActionRepost  = "repost"
)

// User tiers.
const (
	TierFree    = "free"
	TierPremium = "premium"
	TierSuper   = "super"
)

const (
	// PointsPerKey is the external-move conversion rate: one key per 20
	// points, rounded up.
	PointsPerKey = 20

	// ExternalBoost is the ratio between external-platform and in-app base
	// values for the same action.
	ExternalBoost = 10
)

// ErrUnknownAction is returned for an action outside the supported set.
var ErrUnknownAction = errors.New("rewards: unknown action")

// externalBase holds base points for moves performed on external platforms.
// In-app moves use these values divided by ExternalBoost.
var externalBase = map[string]int64{
	ActionLike:    10,
	ActionComment: 30,
	ActionSave:    50,
	ActionShare:   100,
	ActionRepost:  120,
}

// Multiplier returns the reward multiplier for a user tier. Unrecognized
// tiers fall back to the free multiplier — never an error.
func Multiplier(tier string) decimal.Decimal {
	switch tier {
	case TierPremium:
		return decimal.NewFromFloat(1.5)
	case TierSuper:
		return decimal.NewFromInt(2)
	default:
		return decimal.NewFromInt(1)
	}
}

// Reward is the points/keys payout for one action.
type Reward struct {
	Points int64 `json:"points"`
	Keys   int64 `json:"keys"`
}

// Move computes the reward for a social action. External moves use the full
// base table and earn keys; in-app moves use the 10x-smaller base and earn
// none.
func Move(action, tier string, external bool) (Reward, error) {
	base, ok := externalBase[action]
	if !ok {
		return Reward{}, ErrUnknownAction
	}
	if !external {
		base /= ExternalBoost
	}

	points := decimal.NewFromInt(base).Mul(Multiplier(tier)).Floor().IntPart()

	var keys int64
	if external {
		keys = (points + PointsPerKey - 1) / PointsPerKey
	}
	return Reward{Points: points, Keys: keys}, nil
}

// ShareContent computes the reward for sharing content in-app:
// floor(10 * multiplier) points, no keys.
func ShareContent(tier string) Reward {
	points := decimal.NewFromInt(10).Mul(Multiplier(tier)).Floor().IntPart()
	return Reward{Points: points}
}

// gemUSDRate converts tipped gems to a USD-equivalent display value.
var gemUSDRate = decimal.NewFromFloat(0.01)

// TipCreatorValue returns the USD-equivalent display estimate of a gem tip
// received by a creator. This is cosmetic — no ledger entry is derived
// from it.
func TipCreatorValue(gems int64) decimal.Decimal {
	return decimal.NewFromInt(gems).Mul(gemUSDRate)
}
