package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/promorang/marketplace-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateContent(ctx context.Context, c *model.Content) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO content (id, creator_id, title, thumbnail, share_price, total_shares, available_shares, status, created_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6, $7, $8, $9)`,
		c.ID, c.CreatorID, c.Title, c.Thumbnail,
		c.SharePrice.String(), c.TotalShares, c.AvailableShares,
		c.Status, c.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetContent(ctx context.Context, id string) (*model.Content, error) {
	var c model.Content
	var price string

	err := s.pool.QueryRow(ctx,
		`SELECT id, creator_id, title, thumbnail, share_price::TEXT,
		        total_shares, available_shares, status, created_at
		 FROM content WHERE id = $1`, id).
		Scan(&c.ID, &c.CreatorID, &c.Title, &c.Thumbnail, &price,
			&c.TotalShares, &c.AvailableShares, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get content %s: %w", id, err)
	}

	c.SharePrice, _ = decimal.NewFromString(price)
	return &c, nil
}

func (s *PostgresStore) ListContent(ctx context.Context) ([]model.Content, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, creator_id, title, thumbnail, share_price::TEXT,
		        total_shares, available_shares, status, created_at
		 FROM content ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var content []model.Content
	for rows.Next() {
		var c model.Content
		var price string
		if err := rows.Scan(&c.ID, &c.CreatorID, &c.Title, &c.Thumbnail, &price,
			&c.TotalShares, &c.AvailableShares, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.SharePrice, _ = decimal.NewFromString(price)
		content = append(content, c)
	}
	return content, rows.Err()
}

func (s *PostgresStore) UpdateContentShares(ctx context.Context, id string, available int64, price decimal.Decimal) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE content SET available_shares = $2, share_price = $3::NUMERIC WHERE id = $1`,
		id, available, price.String(),
	)
	return err
}

func (s *PostgresStore) GetHolding(ctx context.Context, userID, contentID string) (*model.Holding, error) {
	var h model.Holding
	var price, cost string

	err := s.pool.QueryRow(ctx,
		`SELECT user_id, content_id, owned_shares, available_to_sell,
		        current_price::TEXT, avg_cost::TEXT, updated_at
		 FROM holdings WHERE user_id = $1 AND content_id = $2`, userID, contentID).
		Scan(&h.UserID, &h.ContentID, &h.OwnedShares, &h.AvailableToSell,
			&price, &cost, &h.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get holding %s/%s: %w", userID, contentID, err)
	}

	h.CurrentPrice, _ = decimal.NewFromString(price)
	h.AvgCost, _ = decimal.NewFromString(cost)
	return &h, nil
}

func (s *PostgresStore) ListHoldingsByUser(ctx context.Context, userID string) ([]model.Holding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, content_id, owned_shares, available_to_sell,
		        current_price::TEXT, avg_cost::TEXT, updated_at
		 FROM holdings WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []model.Holding
	for rows.Next() {
		var h model.Holding
		var price, cost string
		if err := rows.Scan(&h.UserID, &h.ContentID, &h.OwnedShares, &h.AvailableToSell,
			&price, &cost, &h.UpdatedAt); err != nil {
			return nil, err
		}
		h.CurrentPrice, _ = decimal.NewFromString(price)
		h.AvgCost, _ = decimal.NewFromString(cost)
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (s *PostgresStore) UpsertHolding(ctx context.Context, h *model.Holding) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO holdings (user_id, content_id, owned_shares, available_to_sell, current_price, avg_cost, updated_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7)
		 ON CONFLICT (user_id, content_id) DO UPDATE SET
		   owned_shares = EXCLUDED.owned_shares,
		   available_to_sell = EXCLUDED.available_to_sell,
		   current_price = EXCLUDED.current_price,
		   avg_cost = EXCLUDED.avg_cost,
		   updated_at = EXCLUDED.updated_at`,
		h.UserID, h.ContentID, h.OwnedShares, h.AvailableToSell,
		h.CurrentPrice.String(), h.AvgCost.String(), h.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) CreateListing(ctx context.Context, l *model.Listing) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO listings (id, seller_id, content_id, content_title, content_thumbnail,
		                       quantity, remaining_quantity, ask_price, gross, fee, net, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::NUMERIC, $9::NUMERIC, $10::NUMERIC, $11::NUMERIC, $12, $13)`,
		l.ID, l.SellerID, l.ContentID, l.ContentTitle, l.ContentThumbnail,
		l.Quantity, l.RemainingQuantity,
		l.AskPrice.String(), l.Gross.String(), l.Fee.String(), l.Net.String(),
		l.Status, l.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	var ask, gross, fee, net string

	err := s.pool.QueryRow(ctx,
		`SELECT id, seller_id, content_id, content_title, content_thumbnail,
		        quantity, remaining_quantity,
		        ask_price::TEXT, gross::TEXT, fee::TEXT, net::TEXT,
		        status, created_at
		 FROM listings WHERE id = $1`, id).
		Scan(&l.ID, &l.SellerID, &l.ContentID, &l.ContentTitle, &l.ContentThumbnail,
			&l.Quantity, &l.RemainingQuantity,
			&ask, &gross, &fee, &net,
			&l.Status, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}

	l.AskPrice, _ = decimal.NewFromString(ask)
	l.Gross, _ = decimal.NewFromString(gross)
	l.Fee, _ = decimal.NewFromString(fee)
	l.Net, _ = decimal.NewFromString(net)
	return &l, nil
}

func (s *PostgresStore) ListListingsByContent(ctx context.Context, contentID string) ([]model.Listing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, seller_id, content_id, content_title, content_thumbnail,
		        quantity, remaining_quantity,
		        ask_price::TEXT, gross::TEXT, fee::TEXT, net::TEXT,
		        status, created_at
		 FROM listings WHERE content_id = $1 ORDER BY created_at DESC`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		var ask, gross, fee, net string
		if err := rows.Scan(&l.ID, &l.SellerID, &l.ContentID, &l.ContentTitle, &l.ContentThumbnail,
			&l.Quantity, &l.RemainingQuantity,
			&ask, &gross, &fee, &net,
			&l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.AskPrice, _ = decimal.NewFromString(ask)
		l.Gross, _ = decimal.NewFromString(gross)
		l.Fee, _ = decimal.NewFromString(fee)
		l.Net, _ = decimal.NewFromString(net)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *PostgresStore) UpdateListingStatus(ctx context.Context, id, status string, remaining int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE listings SET status = $2, remaining_quantity = $3 WHERE id = $1`,
		id, status, remaining,
	)
	return err
}

func (s *PostgresStore) CreateOffer(ctx context.Context, o *model.Offer) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO offers (id, buyer_id, seller_id, content_id, quantity, bid_price, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7, $8, $9)`,
		o.ID, o.BuyerID, o.SellerID, o.ContentID, o.Quantity,
		o.BidPrice.String(), o.Message, o.Status, o.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	var o model.Offer
	var bid string

	err := s.pool.QueryRow(ctx,
		`SELECT id, buyer_id, seller_id, content_id, quantity, bid_price::TEXT, message, status, created_at
		 FROM offers WHERE id = $1`, id).
		Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.ContentID, &o.Quantity,
			&bid, &o.Message, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get offer %s: %w", id, err)
	}

	o.BidPrice, _ = decimal.NewFromString(bid)
	return &o, nil
}

func (s *PostgresStore) UpdateOfferStatus(ctx context.Context, id, status string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE offers SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (s *PostgresStore) GetWallet(ctx context.Context, userID string) (*model.Wallet, error) {
	var w model.Wallet
	var usd string

	err := s.pool.QueryRow(ctx,
		`SELECT user_id, points_balance, keys_balance, gems_balance, gold_collected, usd_balance::TEXT
		 FROM wallets WHERE user_id = $1`, userID).
		Scan(&w.UserID, &w.PointsBalance, &w.KeysBalance, &w.GemsBalance, &w.GoldCollected, &usd)
	if err != nil {
		// Missing wallet row reads as zero balances, matching MemoryStore.
		return &model.Wallet{UserID: userID, USDBalance: decimal.Zero}, nil
	}

	w.USDBalance, _ = decimal.NewFromString(usd)
	return &w, nil
}

func (s *PostgresStore) SaveWallet(ctx context.Context, w *model.Wallet) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO wallets (user_id, points_balance, keys_balance, gems_balance, gold_collected, usd_balance)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC)
		 ON CONFLICT (user_id) DO UPDATE SET
		   points_balance = EXCLUDED.points_balance,
		   keys_balance = EXCLUDED.keys_balance,
		   gems_balance = EXCLUDED.gems_balance,
		   gold_collected = EXCLUDED.gold_collected,
		   usd_balance = EXCLUDED.usd_balance`,
		w.UserID, w.PointsBalance, w.KeysBalance, w.GemsBalance, w.GoldCollected,
		w.USDBalance.String(),
	)
	return err
}

func (s *PostgresStore) InsertMoveEntry(ctx context.Context, e *model.MoveEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO move_entries (id, user_id, content_id, action, external, points, keys, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.ContentID, e.Action, e.External, e.Points, e.Keys, e.Timestamp,
	)
	return err
}

func (s *PostgresStore) ListMoveEntriesByUser(ctx context.Context, userID string) ([]model.MoveEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, content_id, action, external, points, keys, timestamp
		 FROM move_entries WHERE user_id = $1 ORDER BY timestamp`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.MoveEntry
	for rows.Next() {
		var e model.MoveEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ContentID, &e.Action, &e.External,
			&e.Points, &e.Keys, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
