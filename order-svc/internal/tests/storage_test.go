package tests

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"orderbridge/order-svc/internal/domain"
	"orderbridge/order-svc/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupTestRepo(t *testing.T) (*storage.PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return storage.NewPostgresRepository(mockDB), mock
}

func setupTestCache(t *testing.T, ttl time.Duration) *storage.RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return storage.NewRedisCache(client, ttl)
}

func TestPostgresRepository_RestaurantActive(t *testing.T) {
	repo, mock := setupTestRepo(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("rest-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := repo.RestaurantActive("rest-1")
	assert.NoError(t, err)
	assert.True(t, active)
}

func TestPostgresRepository_FindOrderIDByNumber_NotFound(t *testing.T) {
	repo, mock := setupTestRepo(t)

	mock.ExpectQuery("SELECT id FROM orders").
		WithArgs("1042").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindOrderIDByNumber("1042")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPostgresRepository_UpdateOrderStatus(t *testing.T) {
	t.Run("advances_when_precondition_holds", func(t *testing.T) {
		repo, mock := setupTestRepo(t)
		mock.ExpectExec("UPDATE orders SET status").
			WithArgs("approved", "ord-1", "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateOrderStatus("ord-1", "approved", "pending")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("stale_writer_affects_zero_rows", func(t *testing.T) {
		repo, mock := setupTestRepo(t)
		mock.ExpectExec("UPDATE orders SET status").
			WithArgs("approved", "ord-1", "pending").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UpdateOrderStatus("ord-1", "approved", "pending")
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPostgresRepository_ExpireHandshake_GuardsTerminalStates(t *testing.T) {
	repo, mock := setupTestRepo(t)

	mock.ExpectExec("UPDATE handshake_requests SET status").
		WithArgs(domain.HandshakeExpired, "hs-1", domain.HandshakePending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	expired, err := repo.ExpireHandshake("hs-1")
	assert.NoError(t, err)
	assert.False(t, expired)
}

func TestPostgresRepository_CompleteHandshake(t *testing.T) {
	t.Run("stores_response_in_transaction", func(t *testing.T) {
		repo, mock := setupTestRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE handshake_requests").
			WithArgs(domain.HandshakeCompleted, "rest-1", "hs-1", domain.HandshakePending, domain.HandshakeProcessing).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO handshake_responses").
			WithArgs("hs-1", "rest-1", "Front Counter", "2.3.1", "android", "orders,status_updates").
			WillReturnRows(sqlmock.NewRows([]string{"response_timestamp"}).AddRow(time.Now()))
		mock.ExpectCommit()

		completed, err := repo.CompleteHandshake(&domain.HandshakeResponse{
			HandshakeRequestID: "hs-1",
			RestaurantUID:      "rest-1",
			DeviceLabel:        "Front Counter",
			AppVersion:         "2.3.1",
			Platform:           "android",
			Capabilities:       []string{"orders", "status_updates"},
		})
		assert.NoError(t, err)
		assert.True(t, completed)
	})

	t.Run("terminal_request_is_not_overwritten", func(t *testing.T) {
		repo, mock := setupTestRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE handshake_requests").
			WithArgs(domain.HandshakeCompleted, "rest-1", "hs-1", domain.HandshakePending, domain.HandshakeProcessing).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		completed, err := repo.CompleteHandshake(&domain.HandshakeResponse{
			HandshakeRequestID: "hs-1",
			RestaurantUID:      "rest-1",
		})
		assert.NoError(t, err)
		assert.False(t, completed)
	})
}

func TestPostgresRepository_CreateOrder_DuplicateNumber(t *testing.T) {
	repo, mock := setupTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateOrder(&domain.Order{
		ID:          "ord-1",
		OrderNumber: "1042",
		Customer:    map[string]any{"name": "Dana"},
	})
	assert.True(t, storage.IsUniqueViolation(err))
}

func orderColumns() []string {
	return []string{"id", "order_number", "restaurant_uid", "website_restaurant_id", "amount",
		"currency", "status", "customer", "callback_url", "idempotency_key",
		"payment_method", "notes", "test_order", "created_at", "updated_at"}
}

func orderRow(rows *sqlmock.Rows, id, uid string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "1042", uid, "site-1", 23.50,
		"USD", "pending", `{"name":"Dana"}`, "https://shop.example.com/cb", "idem-abc",
		"", "", false, now, now)
}

func TestPostgresRepository_ListOrders(t *testing.T) {
	t.Run("filters_by_restaurant_uid", func(t *testing.T) {
		repo, mock := setupTestRepo(t)

		rows := sqlmock.NewRows(orderColumns())
		orderRow(rows, "ord-1", "rest-1")
		orderRow(rows, "ord-2", "rest-1")
		mock.ExpectQuery(`FROM orders\s+WHERE restaurant_uid = \$1`).
			WithArgs("rest-1").
			WillReturnRows(rows)

		orders, err := repo.ListOrders("rest-1")
		assert.NoError(t, err)
		assert.Len(t, orders, 2)
		for _, order := range orders {
			assert.Equal(t, "rest-1", order.RestaurantUID)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt_row_surfaces_error", func(t *testing.T) {
		repo, mock := setupTestRepo(t)

		rows := sqlmock.NewRows(orderColumns())
		orderRow(rows, "ord-1", "rest-1")
		rows.AddRow("ord-2", "1043", "rest-1", "site-1", "not-a-number",
			"USD", "pending", `{}`, "", "", "", "", false, time.Now(), time.Now())
		mock.ExpectQuery(`FROM orders\s+WHERE restaurant_uid = \$1`).
			WithArgs("rest-1").
			WillReturnRows(rows)

		orders, err := repo.ListOrders("rest-1")
		assert.Error(t, err)
		assert.Nil(t, orders)
	})

	t.Run("iteration_error_is_returned", func(t *testing.T) {
		repo, mock := setupTestRepo(t)

		rows := sqlmock.NewRows(orderColumns())
		orderRow(rows, "ord-1", "rest-1")
		rows.RowError(0, sql.ErrConnDone)
		mock.ExpectQuery(`FROM orders\s+WHERE restaurant_uid = \$1`).
			WithArgs("rest-1").
			WillReturnRows(rows)

		_, err := repo.ListOrders("rest-1")
		assert.Error(t, err)
	})
}

func TestPostgresRepository_ListPendingHandshakes_CorruptRow(t *testing.T) {
	repo, mock := setupTestRepo(t)

	rows := sqlmock.NewRows([]string{"id", "website_restaurant_id", "callback_url", "website_domain",
		"status", "expires_at", "created_at", "updated_at"}).
		AddRow("hs-1", "site-1", "https://shop.example.com/cb", "shop.example.com",
			"pending", "not-a-timestamp", time.Now(), time.Now())
	mock.ExpectQuery("FROM handshake_requests").
		WithArgs("rest-1", domain.HandshakePending).
		WillReturnRows(rows)

	requests, err := repo.ListPendingHandshakes("rest-1")
	assert.Error(t, err)
	assert.Nil(t, requests)
}

func TestRedisCache_ReplayMarkers(t *testing.T) {
	cache := setupTestCache(t, time.Hour)
	ctx := context.Background()

	key := cache.ReplayMarkerKey("rest-1", "idem-abc")
	assert.Equal(t, "idem:rest-1:idem-abc", key)

	stored, err := cache.GetReplayMarker(ctx, key)
	assert.NoError(t, err)
	assert.Empty(t, stored)

	assert.NoError(t, cache.SetReplayMarker(ctx, key, "1042"))

	stored, err = cache.GetReplayMarker(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, "1042", stored)
}

func TestRedisCache_OrderNumberFormat(t *testing.T) {
	cache := setupTestCache(t, time.Hour)
	ctx := context.Background()

	format, err := cache.GetOrderNumberFormat(ctx, "shop.example.com")
	assert.NoError(t, err)
	assert.Empty(t, format)

	assert.NoError(t, cache.SetOrderNumberFormat(ctx, "shop.example.com", "bare"))

	format, err = cache.GetOrderNumberFormat(ctx, "shop.example.com")
	assert.NoError(t, err)
	assert.Equal(t, "bare", format)
}

func TestRedisCache_IncrementCaller(t *testing.T) {
	cache := setupTestCache(t, time.Hour)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, err := cache.IncrementCaller(ctx, "shop.example.com", time.Minute)
		assert.NoError(t, err)
		assert.Equal(t, want, count)
	}
}
