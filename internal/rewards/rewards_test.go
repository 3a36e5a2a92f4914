package rewards

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMultiplier_KnownTiers(t *testing.T) {
	cases := []struct {
		tier string
		want float64
	}{
		{TierFree, 1.0},
		{TierPremium, 1.5},
		{TierSuper, 2.0},
	}
	for _, tt := range cases {
		if got := Multiplier(tt.tier); !got.Equal(decimal.NewFromFloat(tt.want)) {
			t.Errorf("Multiplier(%s) = %s, want %.1f", tt.tier, got, tt.want)
		}
	}
}

func TestMultiplier_UnknownTierFallsBackToFree(t *testing.T) {
	for _, tier := range []string{"", "gold", "unknown-tier", "PREMIUM"} {
		if got := Multiplier(tier); !got.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Multiplier(%q) = %s, want 1", tier, got)
		}
	}
}

func TestMove_ExternalLikeSuper(t *testing.T) {
	// floor(10 * 2.0) = 20 points, ceil(20/20) = 1 key.
	r, err := Move(ActionLike, TierSuper, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Points != 20 {
		t.Errorf("expected 20 points, got %d", r.Points)
	}
	if r.Keys != 1 {
		t.Errorf("expected 1 key, got %d", r.Keys)
	}
}

func TestMove_ExternalBaseTable(t *testing.T) {
	cases := []struct {
		action string
		points int64
		keys   int64
	}{
		{ActionLike, 10, 1},
		{ActionComment, 30, 2},
		{ActionSave, 50, 3},
		{ActionShare, 100, 5},
		{ActionRepost, 120, 6},
	}
	for _, tt := range cases {
		r, err := Move(tt.action, TierFree, true)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.action, err)
		}
		if r.Points != tt.points {
			t.Errorf("%s: expected %d points, got %d", tt.action, tt.points, r.Points)
		}
		if r.Keys != tt.keys {
			t.Errorf("%s: expected %d keys, got %d", tt.action, tt.keys, r.Keys)
		}
	}
}

func TestMove_InAppIsTenthOfExternal(t *testing.T) {
	for action := range externalBase {
		ext, _ := Move(action, TierFree, true)
		inApp, _ := Move(action, TierFree, false)
		if inApp.Points*ExternalBoost != ext.Points {
			t.Errorf("%s: in-app %d * %d != external %d",
				action, inApp.Points, ExternalBoost, ext.Points)
		}
		if inApp.Keys != 0 {
			t.Errorf("%s: in-app moves must earn no keys, got %d", action, inApp.Keys)
		}
	}
}

func TestMove_PremiumFloorsPoints(t *testing.T) {
	// In-app like: base 1, premium 1.5 → floor(1.5) = 1.
	r, err := Move(ActionLike, TierPremium, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Points != 1 {
		t.Errorf("expected floor(1.5)=1 point, got %d", r.Points)
	}
}

func TestMove_UnknownAction(t *testing.T) {
	if _, err := Move("poke", TierFree, true); err != ErrUnknownAction {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestShareContent(t *testing.T) {
	cases := []struct {
		tier   string
		points int64
	}{
		{TierFree, 10},
		{TierPremium, 15},
		{TierSuper, 20},
		{"unknown-tier", 10},
	}
	for _, tt := range cases {
		r := ShareContent(tt.tier)
		if r.Points != tt.points {
			t.Errorf("ShareContent(%s) = %d points, want %d", tt.tier, r.Points, tt.points)
		}
		if r.Keys != 0 {
			t.Errorf("ShareContent(%s) must earn no keys, got %d", tt.tier, r.Keys)
		}
	}
}

func TestTipCreatorValue(t *testing.T) {
	if got := TipCreatorValue(250); !got.Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("expected 2.5, got %s", got)
	}
	if got := TipCreatorValue(0); !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}
}
