// Package market provides the HTTP handlers and business logic for buying
// content shares, listing and bidding on the secondary marketplace, and
// crediting wallets for rewarded social moves and tips.
//
// All monetary values use shopspring/decimal — never float64 for money.
package market

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/promorang/marketplace-engine/internal/envelope"
	"github.com/promorang/marketplace-engine/internal/metrics"
	"github.com/promorang/marketplace-engine/internal/model"
	"github.com/promorang/marketplace-engine/internal/pricing"
	"github.com/promorang/marketplace-engine/internal/rewards"
	"github.com/promorang/marketplace-engine/internal/store"
)

// User-facing rejection messages. "unavailable" and "insufficient balance"
// are distinct states sharing the same gate: the first means the content
// cannot be bought at all, the second that this buyer cannot cover it.
const (
	msgUnavailable         = "unavailable for purchase"
	msgInsufficientBalance = "insufficient balance"
)

// Service handles marketplace operations. Uses a mutex for serialized
// balance-affecting execution (single-instance). For horizontal scaling,
// replace with distributed locking or database-level optimistic concurrency.
type Service struct {
	store store.Store
	mu    sync.Mutex
	wsHub *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new marketplace service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, hub *WSHub) *Service {
	return &Service{
		store: st,
		wsHub: hub,
	}
}

// --- Request/Response types ---

// CreateContentRequest is the JSON body for content registration.
type CreateContentRequest struct {
	CreatorID       string          `json:"creator_id"`
	Title           string          `json:"title"`
	Thumbnail       string          `json:"thumbnail"`
	SharePrice      decimal.Decimal `json:"share_price"`
	TotalShares     int64           `json:"total_shares"`
	AvailableShares int64           `json:"available_shares"` // 0 → all of total
}

// BuySharesRequest is the JSON body for POST /content/buy-shares.
type BuySharesRequest struct {
	UserID      string `json:"user_id"`
	ContentID   string `json:"content_id"`
	SharesCount int64  `json:"shares_count"`
}

// BuySharesResponse is returned from POST /content/buy-shares.
// SharesCount reflects the clamped quantity actually purchased.
type BuySharesResponse struct {
	ContentID   string          `json:"content_id"`
	SharesCount int64           `json:"shares_count"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Holding     model.Holding   `json:"holding"`
}

// CreateListingRequest is the JSON body for POST /marketplace/share-listings.
type CreateListingRequest struct {
	SellerID         string          `json:"seller_id"`
	ContentID        string          `json:"content_id"`
	ContentTitle     string          `json:"content_title"`
	ContentThumbnail string          `json:"content_thumbnail"`
	Quantity         int64           `json:"quantity"`
	AskPrice         decimal.Decimal `json:"ask_price"`
}

// CreateOfferRequest is the JSON body for POST /marketplace/share-offers.
// Quantity 0 requests the default bid size for the seller's position.
type CreateOfferRequest struct {
	BuyerID   string          `json:"buyer_id"`
	SellerID  string          `json:"seller_id"`
	ContentID string          `json:"content_id"`
	Quantity  int64           `json:"quantity"`
	BidPrice  decimal.Decimal `json:"bid_price"`
	Message   string          `json:"message"`
}

// MoveRequest is the JSON body for POST /moves.
type MoveRequest struct {
	UserID    string `json:"user_id"`
	ContentID string `json:"content_id"`
	Action    string `json:"action"`
	External  bool   `json:"external"`
	Tier      string `json:"tier"`
}

// MoveResponse is returned from POST /moves.
type MoveResponse struct {
	MoveID string         `json:"move_id"`
	Reward rewards.Reward `json:"reward"`
	Wallet model.Wallet   `json:"wallet"`
}

// TipRequest is the JSON body for POST /tips.
type TipRequest struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	ContentID  string `json:"content_id"`
	Gems       int64  `json:"gems"`
}

// TipResponse is returned from POST /tips. CreatorValueUSD is a display
// estimate only, never a ledger entry.
type TipResponse struct {
	Gems            int64           `json:"gems"`
	CreatorValueUSD decimal.Decimal `json:"creator_value_usd"`
}

// --- HTTP Handlers ---

// CreateContent handles POST /api/v1/content
func (s *Service) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CreatorID == "" || req.Title == "" {
		envelope.WriteError(w, "creator_id and title are required", http.StatusBadRequest)
		return
	}
	if req.SharePrice.IsNegative() {
		envelope.WriteError(w, "share_price must not be negative", http.StatusBadRequest)
		return
	}

	available := req.AvailableShares
	if available == 0 {
		available = req.TotalShares
	}

	content := &model.Content{
		ID:              uuid.New().String(),
		CreatorID:       req.CreatorID,
		Title:           req.Title,
		Thumbnail:       req.Thumbnail,
		SharePrice:      req.SharePrice,
		TotalShares:     req.TotalShares,
		AvailableShares: available,
		Status:          "active",
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.CreateContent(r.Context(), content); err != nil {
		envelope.WriteError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("content created",
		"id", content.ID,
		"creator", content.CreatorID,
		"price", content.SharePrice.String(),
		"available", content.AvailableShares,
	)

	envelope.Write(w, http.StatusCreated, content)
}

// GetContent handles GET /api/v1/content/{contentID}
func (s *Service) GetContent(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")

	content, err := s.store.GetContent(r.Context(), contentID)
	if err != nil {
		envelope.WriteError(w, "content not found", http.StatusNotFound)
		return
	}

	envelope.Write(w, http.StatusOK, content)
}

// ListContent handles GET /api/v1/content
func (s *Service) ListContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.store.ListContent(r.Context())
	if err != nil {
		envelope.WriteError(w, "failed to list content", http.StatusInternalServerError)
		return
	}
	if content == nil {
		content = []model.Content{}
	}

	envelope.Write(w, http.StatusOK, content)
}

// BuyShares handles POST /api/v1/content/buy-shares
// The requested quantity is silently clamped to the legal purchase range;
// ineligible content and an uncovered cost are two distinct rejections.
func (s *Service) BuyShares(w http.ResponseWriter, r *http.Request) {
	var req BuySharesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ContentID == "" {
		envelope.WriteError(w, "user_id and content_id are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Serialize balance-affecting execution.
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.store.GetContent(ctx, req.ContentID)
	if err != nil {
		envelope.WriteError(w, "content not found", http.StatusNotFound)
		return
	}

	if content.Status != "active" || !content.SharePrice.IsPositive() || content.AvailableShares == 0 {
		metrics.PurchaseRejections.WithLabelValues("unavailable").Inc()
		envelope.WriteError(w, msgUnavailable, http.StatusConflict)
		return
	}

	wallet, err := s.store.GetWallet(ctx, req.UserID)
	if err != nil {
		envelope.WriteError(w, "failed to load wallet", http.StatusInternalServerError)
		return
	}

	limit := pricing.ComputePurchaseLimit(content.AvailableShares, content.SharePrice, wallet.USDBalance)
	qty := pricing.ClampPurchase(req.SharesCount, limit)
	totalCost := content.SharePrice.Mul(decimal.NewFromInt(qty))

	if !pricing.CanAfford(totalCost, wallet.USDBalance, limit.Eligible) {
		metrics.PurchaseRejections.WithLabelValues("balance").Inc()
		envelope.WriteError(w, msgInsufficientBalance, http.StatusConflict)
		return
	}

	// Debit the buyer.
	wallet.USDBalance = wallet.USDBalance.Sub(totalCost)
	if err := s.store.SaveWallet(ctx, wallet); err != nil {
		envelope.WriteError(w, "failed to update wallet", http.StatusInternalServerError)
		return
	}

	// Decrement inventory unless the cap is unknown.
	if content.AvailableShares > 0 {
		if err := s.store.UpdateContentShares(ctx, content.ID, content.AvailableShares-qty, content.SharePrice); err != nil {
			envelope.WriteError(w, "failed to update inventory", http.StatusInternalServerError)
			return
		}
	}

	holding := s.applyPurchase(ctx, req.UserID, content, qty, content.SharePrice)
	if holding == nil {
		envelope.WriteError(w, "failed to update holding", http.StatusInternalServerError)
		return
	}

	metrics.SharePurchasesTotal.Inc()
	slog.Info("shares purchased",
		"user", req.UserID,
		"content", content.ID,
		"qty", qty,
		"cost", totalCost.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "shares_purchased",
			ContentID: content.ID,
			UserID:    req.UserID,
			Price:     content.SharePrice.String(),
			Quantity:  decimal.NewFromInt(qty).String(),
		})
	}

	envelope.Write(w, http.StatusOK, BuySharesResponse{
		ContentID:   content.ID,
		SharesCount: qty,
		UnitPrice:   content.SharePrice,
		TotalCost:   totalCost,
		Holding:     *holding,
	})
}

// applyPurchase merges qty shares at unitPrice into the buyer's holding,
// recomputing the weighted average cost. Returns nil on store failure.
func (s *Service) applyPurchase(ctx context.Context, userID string, content *model.Content, qty int64, unitPrice decimal.Decimal) *model.Holding {
	qtyDec := decimal.NewFromInt(qty)

	holding, err := s.store.GetHolding(ctx, userID, content.ID)
	if err != nil {
		holding = &model.Holding{
			UserID:    userID,
			ContentID: content.ID,
			AvgCost:   unitPrice,
		}
	}

	ownedDec := decimal.NewFromInt(holding.OwnedShares)
	newOwned := holding.OwnedShares + qty
	// Weighted average: (owned*avg + qty*price) / (owned+qty)
	holding.AvgCost = ownedDec.Mul(holding.AvgCost).Add(qtyDec.Mul(unitPrice)).
		Div(decimal.NewFromInt(newOwned))
	holding.OwnedShares = newOwned
	holding.AvailableToSell += qty
	holding.CurrentPrice = unitPrice
	holding.UpdatedAt = time.Now().UTC()

	if err := s.store.UpsertHolding(ctx, holding); err != nil {
		return nil
	}
	return holding
}

// CreateListing handles POST /api/v1/marketplace/share-listings
// A zero quantity lists everything available to sell; a zero ask price
// defaults to the holding's current price. Explicit values are clamped to
// [1, available_to_sell].
func (s *Service) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SellerID == "" || req.ContentID == "" {
		envelope.WriteError(w, "seller_id and content_id are required", http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 {
		envelope.WriteError(w, "quantity must not be negative", http.StatusBadRequest)
		return
	}
	if req.AskPrice.IsNegative() {
		envelope.WriteError(w, "ask_price must not be negative", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	holding, err := s.store.GetHolding(ctx, req.SellerID, req.ContentID)
	if err != nil {
		envelope.WriteError(w, "no holding for this content", http.StatusNotFound)
		return
	}
	if holding.AvailableToSell <= 0 {
		envelope.WriteError(w, "no shares available to sell", http.StatusConflict)
		return
	}

	qty := req.Quantity
	if qty == 0 {
		qty = holding.AvailableToSell
	} else {
		qty = pricing.Clamp(qty, &holding.AvailableToSell)
	}

	ask := req.AskPrice
	if ask.IsZero() {
		ask = holding.CurrentPrice
	}

	quote, err := pricing.NewQuote(qty, ask)
	if err != nil {
		envelope.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	listing := &model.Listing{
		ID:                uuid.New().String(),
		SellerID:          req.SellerID,
		ContentID:         req.ContentID,
		ContentTitle:      req.ContentTitle,
		ContentThumbnail:  req.ContentThumbnail,
		Quantity:          qty,
		RemainingQuantity: qty,
		AskPrice:          ask,
		Gross:             quote.Gross,
		Fee:               quote.Fee,
		Net:               quote.Net,
		Status:            model.ListingActive,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.store.CreateListing(ctx, listing); err != nil {
		envelope.WriteError(w, "failed to create listing", http.StatusInternalServerError)
		return
	}

	// Reserve the listed shares.
	holding.AvailableToSell -= qty
	holding.UpdatedAt = time.Now().UTC()
	if err := s.store.UpsertHolding(ctx, holding); err != nil {
		envelope.WriteError(w, "failed to reserve shares", http.StatusInternalServerError)
		return
	}

	metrics.ListingsTotal.WithLabelValues("created").Inc()
	slog.Info("listing created",
		"id", listing.ID,
		"seller", req.SellerID,
		"content", req.ContentID,
		"qty", qty,
		"ask", ask.String(),
		"net", quote.Net.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "listing_created",
			ContentID: req.ContentID,
			ListingID: listing.ID,
			Price:     ask.String(),
			Quantity:  decimal.NewFromInt(qty).String(),
		})
	}

	envelope.Write(w, http.StatusCreated, listing)
}

// ListListings handles GET /api/v1/marketplace/share-listings?content_id=<id>
func (s *Service) ListListings(w http.ResponseWriter, r *http.Request) {
	contentID := r.URL.Query().Get("content_id")
	if contentID == "" {
		envelope.WriteError(w, "content_id is required", http.StatusBadRequest)
		return
	}

	listings, err := s.store.ListListingsByContent(r.Context(), contentID)
	if err != nil {
		envelope.WriteError(w, "failed to list listings", http.StatusInternalServerError)
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}

	envelope.Write(w, http.StatusOK, listings)
}

// BuyListingRequest is the JSON body for purchasing from a listing.
// Quantity 0 takes everything remaining.
type BuyListingRequest struct {
	BuyerID  string `json:"buyer_id"`
	Quantity int64  `json:"quantity"`
}

// BuyListing handles POST /api/v1/marketplace/share-listings/{listingID}/purchase
// Fills a listing partially or fully at the ask price. The buyer pays gross;
// the seller is credited net of the platform fee. The listing flips to filled
// when nothing remains.
func (s *Service) BuyListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")

	var req BuyListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.BuyerID == "" {
		envelope.WriteError(w, "buyer_id is required", http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 {
		envelope.WriteError(w, "quantity must not be negative", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		envelope.WriteError(w, "listing not found", http.StatusNotFound)
		return
	}
	if listing.Status != model.ListingActive {
		envelope.WriteError(w, "listing is not active", http.StatusConflict)
		return
	}
	if req.BuyerID == listing.SellerID {
		envelope.WriteError(w, "cannot buy your own listing", http.StatusConflict)
		return
	}

	qty := req.Quantity
	if qty == 0 {
		qty = listing.RemainingQuantity
	} else {
		qty = pricing.Clamp(qty, &listing.RemainingQuantity)
	}

	quote, err := pricing.NewQuote(qty, listing.AskPrice)
	if err != nil {
		envelope.WriteError(w, err.Error(), http.StatusConflict)
		return
	}

	buyerWallet, err := s.store.GetWallet(ctx, req.BuyerID)
	if err != nil {
		envelope.WriteError(w, "failed to load buyer wallet", http.StatusInternalServerError)
		return
	}
	if !pricing.CanAfford(quote.Gross, buyerWallet.USDBalance, true) {
		envelope.WriteError(w, msgInsufficientBalance, http.StatusConflict)
		return
	}

	buyerWallet.USDBalance = buyerWallet.USDBalance.Sub(quote.Gross)
	if err := s.store.SaveWallet(ctx, buyerWallet); err != nil {
		envelope.WriteError(w, "failed to debit buyer", http.StatusInternalServerError)
		return
	}

	sellerWallet, err := s.store.GetWallet(ctx, listing.SellerID)
	if err != nil {
		envelope.WriteError(w, "failed to load seller wallet", http.StatusInternalServerError)
		return
	}
	sellerWallet.USDBalance = sellerWallet.USDBalance.Add(quote.Net)
	if err := s.store.SaveWallet(ctx, sellerWallet); err != nil {
		envelope.WriteError(w, "failed to credit seller", http.StatusInternalServerError)
		return
	}

	// The listed shares were reserved at listing time, so only the seller's
	// owned count moves here.
	sellerHolding, err := s.store.GetHolding(ctx, listing.SellerID, listing.ContentID)
	if err != nil {
		envelope.WriteError(w, "seller holding missing", http.StatusInternalServerError)
		return
	}
	sellerHolding.OwnedShares -= qty
	sellerHolding.UpdatedAt = time.Now().UTC()
	if err := s.store.UpsertHolding(ctx, sellerHolding); err != nil {
		envelope.WriteError(w, "failed to update seller holding", http.StatusInternalServerError)
		return
	}

	content := &model.Content{ID: listing.ContentID}
	if c, err := s.store.GetContent(ctx, listing.ContentID); err == nil {
		content = c
	}
	if h := s.applyPurchase(ctx, req.BuyerID, content, qty, listing.AskPrice); h == nil {
		envelope.WriteError(w, "failed to update buyer holding", http.StatusInternalServerError)
		return
	}

	listing.RemainingQuantity -= qty
	if listing.RemainingQuantity == 0 {
		listing.Status = model.ListingFilled
		metrics.ListingsTotal.WithLabelValues("filled").Inc()
	}
	if err := s.store.UpdateListingStatus(ctx, listing.ID, listing.Status, listing.RemainingQuantity); err != nil {
		envelope.WriteError(w, "failed to update listing", http.StatusInternalServerError)
		return
	}

	slog.Info("listing purchased",
		"id", listing.ID,
		"buyer", req.BuyerID,
		"seller", listing.SellerID,
		"qty", qty,
		"gross", quote.Gross.String(),
		"net", quote.Net.String(),
		"remaining", listing.RemainingQuantity,
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "listing_purchased",
			ContentID: listing.ContentID,
			ListingID: listing.ID,
			UserID:    req.BuyerID,
			Price:     listing.AskPrice.String(),
			Quantity:  decimal.NewFromInt(qty).String(),
		})
	}

	envelope.Write(w, http.StatusOK, listing)
}

// CancelListing handles POST /api/v1/marketplace/share-listings/{listingID}/cancel
// Only the seller may cancel; the unsold reserved shares return to their
// sellable balance.
func (s *Service) CancelListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")

	var req struct {
		SellerID string `json:"seller_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SellerID == "" {
		envelope.WriteError(w, "seller_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		envelope.WriteError(w, "listing not found", http.StatusNotFound)
		return
	}
	if listing.SellerID != req.SellerID {
		envelope.WriteError(w, "only the seller can cancel a listing", http.StatusForbidden)
		return
	}
	if listing.Status != model.ListingActive {
		envelope.WriteError(w, "listing is not active", http.StatusConflict)
		return
	}

	if listing.RemainingQuantity > 0 {
		holding, err := s.store.GetHolding(ctx, listing.SellerID, listing.ContentID)
		if err != nil {
			envelope.WriteError(w, "seller holding missing", http.StatusInternalServerError)
			return
		}
		holding.AvailableToSell += listing.RemainingQuantity
		holding.UpdatedAt = time.Now().UTC()
		if err := s.store.UpsertHolding(ctx, holding); err != nil {
			envelope.WriteError(w, "failed to release shares", http.StatusInternalServerError)
			return
		}
	}

	listing.Status = model.ListingCancelled
	if err := s.store.UpdateListingStatus(ctx, listing.ID, listing.Status, listing.RemainingQuantity); err != nil {
		envelope.WriteError(w, "failed to update listing", http.StatusInternalServerError)
		return
	}

	metrics.ListingsTotal.WithLabelValues("cancelled").Inc()
	slog.Info("listing cancelled",
		"id", listing.ID,
		"seller", listing.SellerID,
		"returned", listing.RemainingQuantity,
	)

	envelope.Write(w, http.StatusOK, listing)
}

// CreateOffer handles POST /api/v1/marketplace/share-offers
// A zero quantity requests the default bid size: a quarter of the seller's
// position, rounded up, clamped to what they own.
func (s *Service) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.BuyerID == "" || req.ContentID == "" {
		envelope.WriteError(w, "buyer_id and content_id are required", http.StatusBadRequest)
		return
	}
	if !req.BidPrice.IsPositive() {
		envelope.WriteError(w, "bid_price must be positive", http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 {
		envelope.WriteError(w, "quantity must not be negative", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	qty := req.Quantity

	if req.SellerID != "" {
		holding, err := s.store.GetHolding(ctx, req.SellerID, req.ContentID)
		if err != nil {
			envelope.WriteError(w, "seller has no holding for this content", http.StatusNotFound)
			return
		}
		if qty == 0 {
			qty = pricing.DefaultOfferQuantity(holding.OwnedShares)
		} else {
			qty = pricing.Clamp(qty, &holding.OwnedShares)
		}
		if qty == 0 {
			envelope.WriteError(w, "seller owns no shares", http.StatusConflict)
			return
		}
	} else if qty == 0 {
		qty = 1
	}

	offer := &model.Offer{
		ID:        uuid.New().String(),
		BuyerID:   req.BuyerID,
		SellerID:  req.SellerID,
		ContentID: req.ContentID,
		Quantity:  qty,
		BidPrice:  req.BidPrice,
		Message:   req.Message,
		Status:    model.OfferPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateOffer(ctx, offer); err != nil {
		envelope.WriteError(w, "failed to create offer", http.StatusInternalServerError)
		return
	}

	metrics.OffersTotal.WithLabelValues("created").Inc()
	slog.Info("offer created",
		"id", offer.ID,
		"buyer", req.BuyerID,
		"content", req.ContentID,
		"qty", qty,
		"bid", req.BidPrice.String(),
	)

	envelope.Write(w, http.StatusCreated, offer)
}

// AcceptOffer handles POST /api/v1/marketplace/share-offers/{offerID}/accept
// Transfers shares from seller to buyer; the buyer pays gross and the seller
// receives proceeds net of the platform fee.
func (s *Service) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	offerID := chi.URLParam(r, "offerID")
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		envelope.WriteError(w, "offer not found", http.StatusNotFound)
		return
	}
	if offer.Status != model.OfferPending {
		envelope.WriteError(w, "offer is not pending", http.StatusConflict)
		return
	}

	sellerID := offer.SellerID
	if sellerID == "" {
		// Open offers carry the accepting seller in the body.
		var body struct {
			SellerID string `json:"seller_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SellerID == "" {
			envelope.WriteError(w, "seller_id is required", http.StatusBadRequest)
			return
		}
		sellerID = body.SellerID
	}

	sellerHolding, err := s.store.GetHolding(ctx, sellerID, offer.ContentID)
	if err != nil || sellerHolding.AvailableToSell < offer.Quantity {
		envelope.WriteError(w, "seller has insufficient shares", http.StatusConflict)
		return
	}

	quote, err := pricing.NewQuote(offer.Quantity, offer.BidPrice)
	if err != nil {
		envelope.WriteError(w, err.Error(), http.StatusConflict)
		return
	}

	buyerWallet, err := s.store.GetWallet(ctx, offer.BuyerID)
	if err != nil {
		envelope.WriteError(w, "failed to load buyer wallet", http.StatusInternalServerError)
		return
	}
	if !pricing.CanAfford(quote.Gross, buyerWallet.USDBalance, true) {
		envelope.WriteError(w, msgInsufficientBalance, http.StatusConflict)
		return
	}

	// Move funds: buyer pays gross, seller receives net.
	buyerWallet.USDBalance = buyerWallet.USDBalance.Sub(quote.Gross)
	if err := s.store.SaveWallet(ctx, buyerWallet); err != nil {
		envelope.WriteError(w, "failed to debit buyer", http.StatusInternalServerError)
		return
	}

	sellerWallet, err := s.store.GetWallet(ctx, sellerID)
	if err != nil {
		envelope.WriteError(w, "failed to load seller wallet", http.StatusInternalServerError)
		return
	}
	sellerWallet.USDBalance = sellerWallet.USDBalance.Add(quote.Net)
	if err := s.store.SaveWallet(ctx, sellerWallet); err != nil {
		envelope.WriteError(w, "failed to credit seller", http.StatusInternalServerError)
		return
	}

	// Move shares.
	sellerHolding.OwnedShares -= offer.Quantity
	sellerHolding.AvailableToSell -= offer.Quantity
	sellerHolding.UpdatedAt = time.Now().UTC()
	if err := s.store.UpsertHolding(ctx, sellerHolding); err != nil {
		envelope.WriteError(w, "failed to update seller holding", http.StatusInternalServerError)
		return
	}

	content := &model.Content{ID: offer.ContentID}
	if c, err := s.store.GetContent(ctx, offer.ContentID); err == nil {
		content = c
	}
	if h := s.applyPurchase(ctx, offer.BuyerID, content, offer.Quantity, offer.BidPrice); h == nil {
		envelope.WriteError(w, "failed to update buyer holding", http.StatusInternalServerError)
		return
	}

	if err := s.store.UpdateOfferStatus(ctx, offer.ID, model.OfferAccepted); err != nil {
		envelope.WriteError(w, "failed to update offer", http.StatusInternalServerError)
		return
	}
	offer.Status = model.OfferAccepted

	metrics.OffersTotal.WithLabelValues("accepted").Inc()
	slog.Info("offer accepted",
		"id", offer.ID,
		"seller", sellerID,
		"buyer", offer.BuyerID,
		"qty", offer.Quantity,
		"gross", quote.Gross.String(),
		"net", quote.Net.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "offer_accepted",
			ContentID: offer.ContentID,
			OfferID:   offer.ID,
			Price:     offer.BidPrice.String(),
			Quantity:  decimal.NewFromInt(offer.Quantity).String(),
		})
	}

	envelope.Write(w, http.StatusOK, offer)
}

// DeclineOffer handles POST /api/v1/marketplace/share-offers/{offerID}/decline
func (s *Service) DeclineOffer(w http.ResponseWriter, r *http.Request) {
	offerID := chi.URLParam(r, "offerID")
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		envelope.WriteError(w, "offer not found", http.StatusNotFound)
		return
	}
	if offer.Status != model.OfferPending {
		envelope.WriteError(w, "offer is not pending", http.StatusConflict)
		return
	}

	if err := s.store.UpdateOfferStatus(ctx, offer.ID, model.OfferDeclined); err != nil {
		envelope.WriteError(w, "failed to update offer", http.StatusInternalServerError)
		return
	}
	offer.Status = model.OfferDeclined

	metrics.OffersTotal.WithLabelValues("declined").Inc()
	slog.Info("offer declined", "id", offer.ID, "buyer", offer.BuyerID)

	envelope.Write(w, http.StatusOK, offer)
}

// GetPortfolio handles GET /api/v1/portfolio/{userID}
// Returns holdings with mark-to-market value against average cost.
func (s *Service) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	holdings, err := s.store.ListHoldingsByUser(r.Context(), userID)
	if err != nil {
		envelope.WriteError(w, "failed to load holdings", http.StatusInternalServerError)
		return
	}
	if holdings == nil {
		holdings = []model.Holding{}
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for _, h := range holdings {
		owned := decimal.NewFromInt(h.OwnedShares)
		totalValue = totalValue.Add(owned.Mul(h.CurrentPrice))
		totalCost = totalCost.Add(owned.Mul(h.AvgCost))
	}

	envelope.Write(w, http.StatusOK, model.Portfolio{
		UserID:        userID,
		Holdings:      holdings,
		TotalValue:    totalValue,
		TotalCost:     totalCost,
		UnrealizedPnL: totalValue.Sub(totalCost),
	})
}

// GetWallet handles GET /api/v1/wallet/{userID}
func (s *Service) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	wallet, err := s.store.GetWallet(r.Context(), userID)
	if err != nil {
		envelope.WriteError(w, "failed to load wallet", http.StatusInternalServerError)
		return
	}

	envelope.Write(w, http.StatusOK, wallet)
}

// RecordMove handles POST /api/v1/moves
// Computes the tier-adjusted reward for a social action and credits the
// user's wallet.
func (s *Service) RecordMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ContentID == "" {
		envelope.WriteError(w, "user_id and content_id are required", http.StatusBadRequest)
		return
	}

	reward, err := rewards.Move(req.Action, req.Tier, req.External)
	if err != nil {
		envelope.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, err := s.store.GetWallet(ctx, req.UserID)
	if err != nil {
		envelope.WriteError(w, "failed to load wallet", http.StatusInternalServerError)
		return
	}
	wallet.PointsBalance += reward.Points
	wallet.KeysBalance += reward.Keys
	if err := s.store.SaveWallet(ctx, wallet); err != nil {
		envelope.WriteError(w, "failed to credit wallet", http.StatusInternalServerError)
		return
	}

	entry := &model.MoveEntry{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		ContentID: req.ContentID,
		Action:    req.Action,
		External:  req.External,
		Points:    reward.Points,
		Keys:      reward.Keys,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.InsertMoveEntry(ctx, entry); err != nil {
		envelope.WriteError(w, "failed to record move", http.StatusInternalServerError)
		return
	}

	metrics.MovesRewardedTotal.WithLabelValues(req.Action).Inc()
	slog.Info("move rewarded",
		"id", entry.ID,
		"user", req.UserID,
		"action", req.Action,
		"external", req.External,
		"points", reward.Points,
		"keys", reward.Keys,
	)

	envelope.Write(w, http.StatusOK, MoveResponse{
		MoveID: entry.ID,
		Reward: reward,
		Wallet: *wallet,
	})
}

// ListMoves handles GET /api/v1/moves/{userID}
func (s *Service) ListMoves(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	entries, err := s.store.ListMoveEntriesByUser(r.Context(), userID)
	if err != nil {
		envelope.WriteError(w, "failed to load moves", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.MoveEntry{}
	}

	envelope.Write(w, http.StatusOK, entries)
}

// ShareContent handles POST /api/v1/content/{contentID}/share
// The in-app share button: a fixed small reward scaled by tier, no keys,
// recorded in the move ledger like any other action.
func (s *Service) ShareContent(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")

	var req struct {
		UserID string `json:"user_id"`
		Tier   string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		envelope.WriteError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	reward := rewards.ShareContent(req.Tier)

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, err := s.store.GetWallet(ctx, req.UserID)
	if err != nil {
		envelope.WriteError(w, "failed to load wallet", http.StatusInternalServerError)
		return
	}
	wallet.PointsBalance += reward.Points
	if err := s.store.SaveWallet(ctx, wallet); err != nil {
		envelope.WriteError(w, "failed to credit wallet", http.StatusInternalServerError)
		return
	}

	entry := &model.MoveEntry{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		ContentID: contentID,
		Action:    rewards.ActionShare,
		External:  false,
		Points:    reward.Points,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.InsertMoveEntry(ctx, entry); err != nil {
		envelope.WriteError(w, "failed to record move", http.StatusInternalServerError)
		return
	}

	metrics.MovesRewardedTotal.WithLabelValues(rewards.ActionShare).Inc()

	envelope.Write(w, http.StatusOK, MoveResponse{
		MoveID: entry.ID,
		Reward: reward,
		Wallet: *wallet,
	})
}

// Tip handles POST /api/v1/tips
// Moves gems from tipper to creator and reports the USD-equivalent display
// value of what the creator received.
func (s *Service) Tip(w http.ResponseWriter, r *http.Request) {
	var req TipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FromUserID == "" || req.ToUserID == "" {
		envelope.WriteError(w, "from_user_id and to_user_id are required", http.StatusBadRequest)
		return
	}
	if req.Gems <= 0 {
		envelope.WriteError(w, "gems must be positive", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	tipper, err := s.store.GetWallet(ctx, req.FromUserID)
	if err != nil {
		envelope.WriteError(w, "failed to load wallet", http.StatusInternalServerError)
		return
	}
	if tipper.GemsBalance < req.Gems {
		envelope.WriteError(w, "insufficient gems", http.StatusConflict)
		return
	}

	tipper.GemsBalance -= req.Gems
	if err := s.store.SaveWallet(ctx, tipper); err != nil {
		envelope.WriteError(w, "failed to debit tipper", http.StatusInternalServerError)
		return
	}

	creator, err := s.store.GetWallet(ctx, req.ToUserID)
	if err != nil {
		envelope.WriteError(w, "failed to load creator wallet", http.StatusInternalServerError)
		return
	}
	creator.GemsBalance += req.Gems
	if err := s.store.SaveWallet(ctx, creator); err != nil {
		envelope.WriteError(w, "failed to credit creator", http.StatusInternalServerError)
		return
	}

	slog.Info("tip sent",
		"from", req.FromUserID,
		"to", req.ToUserID,
		"gems", req.Gems,
	)

	envelope.Write(w, http.StatusOK, TipResponse{
		Gems:            req.Gems,
		CreatorValueUSD: rewards.TipCreatorValue(req.Gems),
	})
}
