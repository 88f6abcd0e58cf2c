package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"orderbridge/fanout-svc/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Store gates fan-out on the restaurant registry and publishes events on
// per-restaurant Redis channels. There is no unfiltered channel; every
// subscriber binds to exactly one restaurant UID.
type Store struct {
	db  *sql.DB
	rdb *redis.Client
}

func NewStore(db *sql.DB, rdb *redis.Client) *Store {
	return &Store{db: db, rdb: rdb}
}

func (s *Store) RestaurantActive(ctx context.Context, uid string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM registered_restaurants
			WHERE app_restaurant_uid = $1 AND is_active = TRUE
		)
	`, uid).Scan(&active)
	if err != nil {
		return false, err
	}
	return active, nil
}

func ChannelFor(uid string) string {
	return "restaurant:" + uid + ":orders"
}

func (s *Store) Publish(ctx context.Context, event domain.OrderEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, ChannelFor(event.RestaurantUID), raw).Err()
}
