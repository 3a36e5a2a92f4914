// Package advertiser is the HTTP client for the upstream advertiser service:
// subscription plans, coupon management, and campaign administration.
//
// Every response is expected in the {status, data, message} envelope and is
// decoded exactly once at the boundary (internal/envelope). Per-endpoint
// normalizers guarantee shape even when the upstream omits fields, so
// callers never see nil slices or an empty tier. Read-heavy endpoints sit
// behind a TTL cache that any mutating call to the same resource family
// invalidates in full.
package advertiser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/promorang/marketplace-engine/internal/envelope"
	"github.com/promorang/marketplace-engine/internal/model"
	"github.com/promorang/marketplace-engine/internal/rewards"
)

// Cache resource families.
const (
	familySubscription = "subscription"
	familyCoupons      = "coupons"
)

// Default TTLs for the read-heavy endpoints.
const (
	DefaultPlanTTL   = 60 * time.Second
	DefaultCouponTTL = 30 * time.Second
)

// Config configures a Client. Zero values take defaults.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	PlanTTL    time.Duration
	CouponTTL  time.Duration
	Now        func() time.Time // injectable clock for cache expiry
}

// Client talks to the advertiser service.
type Client struct {
	baseURL   string
	httpc     *http.Client
	cache     *ttlCache
	planTTL   time.Duration
	couponTTL time.Duration
}

// NewClient creates an advertiser client.
func NewClient(cfg Config) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	planTTL := cfg.PlanTTL
	if planTTL == 0 {
		planTTL = DefaultPlanTTL
	}
	couponTTL := cfg.CouponTTL
	if couponTTL == 0 {
		couponTTL = DefaultCouponTTL
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		httpc:     httpc,
		cache:     newTTLCache(cfg.Now),
		planTTL:   planTTL,
		couponTTL: couponTTL,
	}
}

// do issues one request and decodes the envelope into T. The context is
// wired through, so cancelling the caller aborts the in-flight request.
func do[T any](ctx context.Context, c *Client, method, path, op string, body any) (T, error) {
	var zero T

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("%s: read response: %w", op, err)
	}

	return envelope.Decode[T](op, resp.StatusCode, data)
}

// --- Subscription ---

// ListPlans returns the advertiser's subscription state. Cached for the
// plan TTL; concurrent cache misses share one upstream request. The shared
// fetch is detached from the triggering caller's cancellation so one caller
// bailing out cannot fail everyone deduplicated behind it; the HTTP client
// timeout still bounds the request.
func (c *Client) ListPlans(ctx context.Context) (model.SubscriptionState, error) {
	fetchCtx := context.WithoutCancel(ctx)
	v, err := c.cache.fetch(familySubscription+"/plans", c.planTTL, func() (any, error) {
		state, err := do[model.SubscriptionState](fetchCtx, c, http.MethodGet,
			"/api/advertisers/subscription/plans", "load plans", nil)
		if err != nil {
			return nil, err
		}
		return normalizeSubscription(state), nil
	})
	if err != nil {
		return model.SubscriptionState{}, err
	}
	return v.(model.SubscriptionState), nil
}

// Upgrade moves the advertiser to a new plan and invalidates the
// subscription cache family.
func (c *Client) Upgrade(ctx context.Context, planID string) error {
	_, err := do[struct{}](ctx, c, http.MethodPost,
		"/api/advertisers/subscription/upgrade", "upgrade plan",
		map[string]string{"planId": planID})
	if err != nil {
		return err
	}
	c.cache.invalidate(familySubscription)
	return nil
}

// --- Coupons ---

// CreateCouponRequest is the body for coupon creation.
type CreateCouponRequest struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MaxUses       int64           `json:"max_uses"`
}

// ListCoupons returns the coupon book. Cached for the coupon TTL. As with
// ListPlans, the shared fetch survives the triggering caller's cancellation.
func (c *Client) ListCoupons(ctx context.Context) (model.CouponBook, error) {
	fetchCtx := context.WithoutCancel(ctx)
	v, err := c.cache.fetch(familyCoupons+"/list", c.couponTTL, func() (any, error) {
		book, err := do[model.CouponBook](fetchCtx, c, http.MethodGet,
			"/api/advertisers/coupons", "load coupons", nil)
		if err != nil {
			return nil, err
		}
		return normalizeCouponBook(book), nil
	})
	if err != nil {
		return model.CouponBook{}, err
	}
	return v.(model.CouponBook), nil
}

// CreateCoupon creates a coupon and invalidates the coupon cache family.
func (c *Client) CreateCoupon(ctx context.Context, req CreateCouponRequest) (model.Coupon, error) {
	coupon, err := do[model.Coupon](ctx, c, http.MethodPost,
		"/api/advertisers/coupons", "create coupon", req)
	if err != nil {
		return model.Coupon{}, err
	}
	c.cache.invalidate(familyCoupons)
	return normalizeCoupon(coupon), nil
}

// AssignCoupon assigns a coupon to a user and invalidates the coupon family.
func (c *Client) AssignCoupon(ctx context.Context, couponID, userID string) error {
	_, err := do[struct{}](ctx, c, http.MethodPost,
		"/api/advertisers/coupons/"+couponID+"/assign", "assign coupon",
		map[string]string{"user_id": userID})
	if err != nil {
		return err
	}
	c.cache.invalidate(familyCoupons)
	return nil
}

// RedeemCoupon redeems a coupon for a user and invalidates the coupon family.
func (c *Client) RedeemCoupon(ctx context.Context, couponID, userID string) error {
	_, err := do[struct{}](ctx, c, http.MethodPost,
		"/api/advertisers/coupons/"+couponID+"/redeem", "redeem coupon",
		map[string]string{"user_id": userID})
	if err != nil {
		return err
	}
	c.cache.invalidate(familyCoupons)
	return nil
}

// --- Campaigns (not cached) ---

// ListCampaigns returns all of the advertiser's campaigns.
func (c *Client) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	campaigns, err := do[[]model.Campaign](ctx, c, http.MethodGet,
		"/api/advertisers/campaigns", "load campaigns", nil)
	if err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	for i := range campaigns {
		campaigns[i] = normalizeCampaign(campaigns[i])
	}
	return campaigns, nil
}

// UpdateCampaign patches campaign fields.
func (c *Client) UpdateCampaign(ctx context.Context, id string, fields map[string]any) (model.Campaign, error) {
	campaign, err := do[model.Campaign](ctx, c, http.MethodPatch,
		"/api/advertisers/campaigns/"+id, "update campaign", fields)
	if err != nil {
		return model.Campaign{}, err
	}
	return normalizeCampaign(campaign), nil
}

// DeleteCampaign removes a campaign.
func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	_, err := do[struct{}](ctx, c, http.MethodDelete,
		"/api/advertisers/campaigns/"+id, "delete campaign", nil)
	return err
}

// AddFunds tops up a campaign's budget.
func (c *Client) AddFunds(ctx context.Context, id string, amount decimal.Decimal) (model.Campaign, error) {
	campaign, err := do[model.Campaign](ctx, c, http.MethodPost,
		"/api/advertisers/campaigns/"+id+"/funds", "fund campaign",
		map[string]string{"amount": amount.String()})
	if err != nil {
		return model.Campaign{}, err
	}
	return normalizeCampaign(campaign), nil
}

// AttachContent links a piece of content to a campaign.
func (c *Client) AttachContent(ctx context.Context, id, contentID string) (model.Campaign, error) {
	campaign, err := do[model.Campaign](ctx, c, http.MethodPost,
		"/api/advertisers/campaigns/"+id+"/content", "attach content",
		map[string]string{"content_id": contentID})
	if err != nil {
		return model.Campaign{}, err
	}
	return normalizeCampaign(campaign), nil
}

// --- Normalizers ---
//
// The upstream omits empty collections and optional fields; these fill in
// safe defaults so downstream code never nil-checks.

func normalizeSubscription(s model.SubscriptionState) model.SubscriptionState {
	if s.CurrentTier == "" {
		s.CurrentTier = rewards.TierFree
	}
	if s.Plans == nil {
		s.Plans = []model.SubscriptionPlan{}
	}
	for i := range s.Plans {
		if s.Plans[i].Features == nil {
			s.Plans[i].Features = []string{}
		}
	}
	return s
}

func normalizeCouponBook(b model.CouponBook) model.CouponBook {
	if b.Coupons == nil {
		b.Coupons = []model.Coupon{}
	}
	for i := range b.Coupons {
		b.Coupons[i] = normalizeCoupon(b.Coupons[i])
	}
	if b.Redemptions == nil {
		b.Redemptions = []model.Redemption{}
	}
	return b
}

func normalizeCoupon(c model.Coupon) model.Coupon {
	if c.Assignments == nil {
		c.Assignments = []model.CouponAssignment{}
	}
	return c
}

func normalizeCampaign(c model.Campaign) model.Campaign {
	if c.ContentIDs == nil {
		c.ContentIDs = []string{}
	}
	return c
}
