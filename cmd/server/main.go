package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/promorang/marketplace-engine/internal/advertiser"
	"github.com/promorang/marketplace-engine/internal/config"
	"github.com/promorang/marketplace-engine/internal/market"
	"github.com/promorang/marketplace-engine/internal/metrics"
	"github.com/promorang/marketplace-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.StoreCacheTTL)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Advertiser service client ---
	var adv *advertiser.Client
	if cfg.AdvertiserURL != "" {
		adv = advertiser.NewClient(advertiser.Config{
			BaseURL:   cfg.AdvertiserURL,
			PlanTTL:   cfg.PlanCacheTTL,
			CouponTTL: cfg.CouponCacheTTL,
		})
		slog.Info("advertiser client configured", "url", cfg.AdvertiserURL)
	}

	// --- WebSocket hub ---
	wsHub := market.NewWSHub()
	go wsHub.Run()

	// --- Marketplace service ---
	marketSvc := market.NewService(st, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"marketplace-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time marketplace updates.
		r.Get("/ws", wsHub.HandleWS)

		// Content and primary-market purchases.
		r.Get("/content", marketSvc.ListContent)
		r.Post("/content", marketSvc.CreateContent)
		r.Get("/content/{contentID}", marketSvc.GetContent)
		r.Post("/content/buy-shares", marketSvc.BuyShares)
		r.Post("/content/{contentID}/share", marketSvc.ShareContent)

		// Secondary marketplace.
		r.Get("/marketplace/share-listings", marketSvc.ListListings)
		r.Post("/marketplace/share-listings", marketSvc.CreateListing)
		r.Post("/marketplace/share-listings/{listingID}/purchase", marketSvc.BuyListing)
		r.Post("/marketplace/share-listings/{listingID}/cancel", marketSvc.CancelListing)
		r.Post("/marketplace/share-offers", marketSvc.CreateOffer)
		r.Post("/marketplace/share-offers/{offerID}/accept", marketSvc.AcceptOffer)
		r.Post("/marketplace/share-offers/{offerID}/decline", marketSvc.DeclineOffer)

		// Portfolio, wallet, moves, tips.
		r.Get("/portfolio/{userID}", marketSvc.GetPortfolio)
		r.Get("/wallet/{userID}", marketSvc.GetWallet)
		r.Post("/moves", marketSvc.RecordMove)
		r.Get("/moves/{userID}", marketSvc.ListMoves)
		r.Post("/tips", marketSvc.Tip)

		// Advertiser passthrough, enabled when an upstream is configured.
		if adv != nil {
			h := market.NewAdvertiserHandlers(adv)
			r.Get("/advertisers/subscription/plans", h.ListPlans)
			r.Post("/advertisers/subscription/upgrade", h.Upgrade)
			r.Get("/advertisers/coupons", h.ListCoupons)
			r.Post("/advertisers/coupons", h.CreateCoupon)
			r.Post("/advertisers/coupons/{couponID}/assign", h.AssignCoupon)
			r.Post("/advertisers/coupons/{couponID}/redeem", h.RedeemCoupon)
			r.Get("/advertisers/campaigns", h.ListCampaigns)
			r.Patch("/advertisers/campaigns/{campaignID}", h.UpdateCampaign)
			r.Delete("/advertisers/campaigns/{campaignID}", h.DeleteCampaign)
			r.Post("/advertisers/campaigns/{campaignID}/funds", h.AddFunds)
			r.Post("/advertisers/campaigns/{campaignID}/content", h.AttachContent)
		}
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("marketplace-engine listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down marketplace-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("marketplace-engine stopped")
}
