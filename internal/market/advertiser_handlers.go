package market

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/promorang/marketplace-engine/internal/advertiser"
	"github.com/promorang/marketplace-engine/internal/envelope"
)

// AdvertiserHandlers exposes the upstream advertiser service through this
// API. Business-rule rejections from upstream are surfaced verbatim;
// transport failures become a 502 with a generic message (the original
// error goes to the log, never the user).
type AdvertiserHandlers struct {
	client *advertiser.Client
}

// NewAdvertiserHandlers wraps an advertiser client.
func NewAdvertiserHandlers(c *advertiser.Client) *AdvertiserHandlers {
	return &AdvertiserHandlers{client: c}
}

// writeUpstreamError maps an advertiser client error to a response.
func writeUpstreamError(w http.ResponseWriter, op string, err error) {
	var remote *envelope.RemoteError
	if errors.As(err, &remote) {
		code := http.StatusBadGateway
		if remote.StatusCode == 0 || remote.Message != "" {
			// Business rejection with a user-safe message.
			code = http.StatusConflict
		}
		envelope.WriteError(w, remote.Error(), code)
		return
	}
	slog.Error("advertiser upstream failed", "op", op, "err", err)
	envelope.WriteError(w, "advertiser service unavailable", http.StatusBadGateway)
}

// ListPlans handles GET /api/v1/advertisers/subscription/plans
func (h *AdvertiserHandlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	state, err := h.client.ListPlans(r.Context())
	if err != nil {
		writeUpstreamError(w, "load plans", err)
		return
	}
	envelope.Write(w, http.StatusOK, state)
}

// Upgrade handles POST /api/v1/advertisers/subscription/upgrade
func (h *AdvertiserHandlers) Upgrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID string `json:"planId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		envelope.WriteError(w, "planId is required", http.StatusBadRequest)
		return
	}
	if err := h.client.Upgrade(r.Context(), req.PlanID); err != nil {
		writeUpstreamError(w, "upgrade plan", err)
		return
	}
	envelope.Write(w, http.StatusOK, map[string]string{"plan_id": req.PlanID})
}

// ListCoupons handles GET /api/v1/advertisers/coupons
func (h *AdvertiserHandlers) ListCoupons(w http.ResponseWriter, r *http.Request) {
	book, err := h.client.ListCoupons(r.Context())
	if err != nil {
		writeUpstreamError(w, "load coupons", err)
		return
	}
	envelope.Write(w, http.StatusOK, book)
}

// CreateCoupon handles POST /api/v1/advertisers/coupons
func (h *AdvertiserHandlers) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req advertiser.CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		envelope.WriteError(w, "code is required", http.StatusBadRequest)
		return
	}
	coupon, err := h.client.CreateCoupon(r.Context(), req)
	if err != nil {
		writeUpstreamError(w, "create coupon", err)
		return
	}
	envelope.Write(w, http.StatusCreated, coupon)
}

// AssignCoupon handles POST /api/v1/advertisers/coupons/{couponID}/assign
func (h *AdvertiserHandlers) AssignCoupon(w http.ResponseWriter, r *http.Request) {
	couponID := chi.URLParam(r, "couponID")
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		envelope.WriteError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if err := h.client.AssignCoupon(r.Context(), couponID, req.UserID); err != nil {
		writeUpstreamError(w, "assign coupon", err)
		return
	}
	envelope.Write(w, http.StatusOK, map[string]string{"coupon_id": couponID, "user_id": req.UserID})
}

// RedeemCoupon handles POST /api/v1/advertisers/coupons/{couponID}/redeem
func (h *AdvertiserHandlers) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	couponID := chi.URLParam(r, "couponID")
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		envelope.WriteError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if err := h.client.RedeemCoupon(r.Context(), couponID, req.UserID); err != nil {
		writeUpstreamError(w, "redeem coupon", err)
		return
	}
	envelope.Write(w, http.StatusOK, map[string]string{"coupon_id": couponID, "user_id": req.UserID})
}

// ListCampaigns handles GET /api/v1/advertisers/campaigns
func (h *AdvertiserHandlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.client.ListCampaigns(r.Context())
	if err != nil {
		writeUpstreamError(w, "load campaigns", err)
		return
	}
	envelope.Write(w, http.StatusOK, campaigns)
}

// UpdateCampaign handles PATCH /api/v1/advertisers/campaigns/{campaignID}
func (h *AdvertiserHandlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	campaign, err := h.client.UpdateCampaign(r.Context(), campaignID, fields)
	if err != nil {
		writeUpstreamError(w, "update campaign", err)
		return
	}
	envelope.Write(w, http.StatusOK, campaign)
}

// DeleteCampaign handles DELETE /api/v1/advertisers/campaigns/{campaignID}
func (h *AdvertiserHandlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	if err := h.client.DeleteCampaign(r.Context(), campaignID); err != nil {
		writeUpstreamError(w, "delete campaign", err)
		return
	}
	envelope.Write(w, http.StatusOK, map[string]string{"campaign_id": campaignID})
}

// AddFunds handles POST /api/v1/advertisers/campaigns/{campaignID}/funds
func (h *AdvertiserHandlers) AddFunds(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Amount.IsPositive() {
		envelope.WriteError(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	campaign, err := h.client.AddFunds(r.Context(), campaignID, req.Amount)
	if err != nil {
		writeUpstreamError(w, "fund campaign", err)
		return
	}
	envelope.Write(w, http.StatusOK, campaign)
}

// AttachContent handles POST /api/v1/advertisers/campaigns/{campaignID}/content
func (h *AdvertiserHandlers) AttachContent(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	var req struct {
		ContentID string `json:"content_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentID == "" {
		envelope.WriteError(w, "content_id is required", http.StatusBadRequest)
		return
	}
	campaign, err := h.client.AttachContent(r.Context(), campaignID, req.ContentID)
	if err != nil {
		writeUpstreamError(w, "attach content", err)
		return
	}
	envelope.Write(w, http.StatusOK, campaign)
}
