package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func ptr(v int64) *int64 { return &v }

// --- Clamp tests ---

func TestClamp_WithinRange(t *testing.T) {
	if got := Clamp(5, ptr(10)); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}

func TestClamp_AboveMax(t *testing.T) {
	if got := Clamp(15, ptr(10)); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}

func TestClamp_FloorIsOne(t *testing.T) {
	for _, current := range []int64{0, -1, -100} {
		if got := Clamp(current, ptr(10)); got != 1 {
			t.Errorf("Clamp(%d, 10) = %d, expected 1", current, got)
		}
		if got := Clamp(current, nil); got != 1 {
			t.Errorf("Clamp(%d, nil) = %d, expected 1", current, got)
		}
	}
}

func TestClamp_Unbounded(t *testing.T) {
	if got := Clamp(9999, nil); got != 9999 {
		t.Errorf("expected 9999, got %d", got)
	}
}

func TestClamp_Bounds(t *testing.T) {
	// For all inputs: result >= 1, and <= max when max is non-nil.
	for current := int64(-5); current <= 20; current++ {
		for max := int64(1); max <= 12; max++ {
			got := Clamp(current, &max)
			if got < 1 {
				t.Fatalf("Clamp(%d, %d) = %d, below floor", current, max, got)
			}
			if got > max {
				t.Fatalf("Clamp(%d, %d) = %d, above max", current, max, got)
			}
		}
	}
}

// --- Purchase limit tests ---

func TestComputePurchaseLimit_WalletAndInventory(t *testing.T) {
	// Wallet $37, price $5.00, inventory 10 → walletMax = 7, max = min(10,7) = 7.
	limit := ComputePurchaseLimit(10, d(5), d(37))
	if !limit.Eligible {
		t.Fatal("expected eligible")
	}
	if limit.Max != 7 {
		t.Errorf("expected max=7, got %d", limit.Max)
	}

	// Requesting 9 silently clamps to 7.
	if got := ClampPurchase(9, limit); got != 7 {
		t.Errorf("expected clamp to 7, got %d", got)
	}
}

func TestComputePurchaseLimit_InventoryBinds(t *testing.T) {
	limit := ComputePurchaseLimit(3, d(1), d(100))
	if limit.Max != 3 {
		t.Errorf("expected max=3, got %d", limit.Max)
	}
}

func TestComputePurchaseLimit_ZeroPrice(t *testing.T) {
	// Zero unit price: wallet constraint is infinite, inventory alone binds.
	limit := ComputePurchaseLimit(10, decimal.Zero, decimal.Zero)
	if !limit.Eligible {
		t.Fatal("expected eligible with free shares and inventory")
	}
	if limit.Max != 10 {
		t.Errorf("expected max=10, got %d", limit.Max)
	}
}

func TestComputePurchaseLimit_UnknownInventory(t *testing.T) {
	// Negative inventory means no hard cap; wallet alone constrains.
	limit := ComputePurchaseLimit(-1, d(2), d(11))
	if limit.Max != 5 {
		t.Errorf("expected max=5, got %d", limit.Max)
	}
}

func TestComputePurchaseLimit_EmptyWallet(t *testing.T) {
	limit := ComputePurchaseLimit(10, d(5), decimal.Zero)
	if limit.Eligible {
		t.Error("expected ineligible with empty wallet")
	}
	if limit.Max != 0 {
		t.Errorf("expected max=0, got %d", limit.Max)
	}
}

func TestComputePurchaseLimit_SoldOut(t *testing.T) {
	limit := ComputePurchaseLimit(0, d(5), d(100))
	if limit.Eligible {
		t.Error("expected ineligible with zero inventory")
	}
}

func TestComputePurchaseLimit_NoConstraints(t *testing.T) {
	// Unknown inventory + zero price: never eligible, never unbounded-buy.
	limit := ComputePurchaseLimit(-1, decimal.Zero, d(100))
	if limit.Eligible {
		t.Error("expected ineligible with no usable constraints")
	}
}

// --- Affordability tests ---

func TestCanAfford_ExactBalance(t *testing.T) {
	if !CanAfford(d(25), d(25), true) {
		t.Error("balance equal to cost should afford")
	}
}

func TestCanAfford_Insufficient(t *testing.T) {
	if CanAfford(d(25), d(24.99), true) {
		t.Error("balance below cost should not afford")
	}
}

func TestCanAfford_Ineligible(t *testing.T) {
	if CanAfford(d(1), d(1000), false) {
		t.Error("ineligible purchase should never afford")
	}
}

func TestCanAfford_MonotoneInBalance(t *testing.T) {
	cost := d(42.5)
	affordedBelow := false
	for balance := 0.0; balance <= 100; balance += 0.5 {
		ok := CanAfford(cost, d(balance), true)
		if affordedBelow && !ok {
			t.Fatalf("affordability regressed at balance %.2f", balance)
		}
		if ok {
			affordedBelow = true
		}
	}
	if !affordedBelow {
		t.Fatal("expected affordability above cost")
	}
}

// --- Quote tests ---

func TestNewQuote_ListShares(t *testing.T) {
	// Holding 40 @ 2.50, selling 10: gross $25.00, fee $0.625, net $24.375.
	q, err := NewQuote(10, d(2.50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Gross.Equal(d(25)) {
		t.Errorf("expected gross=25, got %s", q.Gross)
	}
	if !q.Fee.Equal(d(0.625)) {
		t.Errorf("expected fee=0.625, got %s", q.Fee)
	}
	if !q.Net.Equal(d(24.375)) {
		t.Errorf("expected net=24.375, got %s", q.Net)
	}
}

func TestNewQuote_FeeAdditivity(t *testing.T) {
	cases := []struct {
		qty   int64
		price float64
	}{
		{1, 0.01},
		{10, 2.50},
		{7, 3.33},
		{1000, 0.99},
		{3, 19.995},
	}
	for _, tt := range cases {
		q, err := NewQuote(tt.qty, d(tt.price))
		if err != nil {
			t.Fatalf("unexpected error for (%d, %.3f): %v", tt.qty, tt.price, err)
		}
		if !q.Fee.Add(q.Net).Equal(q.Gross) {
			t.Errorf("fee+net != gross for (%d, %.3f): %s + %s != %s",
				tt.qty, tt.price, q.Fee, q.Net, q.Gross)
		}
		if !q.Fee.Equal(q.Gross.Mul(PlatformFeeRate)) {
			t.Errorf("fee != gross*rate for (%d, %.3f)", tt.qty, tt.price)
		}
	}
}

func TestNewQuote_RejectsZeroQuantity(t *testing.T) {
	if _, err := NewQuote(0, d(2.50)); err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestNewQuote_RejectsNegativePrice(t *testing.T) {
	if _, err := NewQuote(10, d(-1)); err != ErrInvalidPrice {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := NewQuote(10, decimal.Zero); err != ErrInvalidPrice {
		t.Errorf("expected ErrInvalidPrice for zero price, got %v", err)
	}
}

// --- Default offer quantity tests ---

func TestDefaultOfferQuantity(t *testing.T) {
	cases := []struct {
		owned, want int64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{4, 1},
		{5, 2},
		{40, 10},
		{41, 11},
	}
	for _, tt := range cases {
		if got := DefaultOfferQuantity(tt.owned); got != tt.want {
			t.Errorf("DefaultOfferQuantity(%d) = %d, want %d", tt.owned, got, tt.want)
		}
	}
}
