package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"orderbridge/order-svc/internal/domain"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// EnsureSchema creates the tables the service depends on. The UNIQUE
// constraints on orders.order_number and the mapping composite key are the
// only concurrency control between stateless handler instances.
func (r *PostgresRepository) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS registered_restaurants (
			app_restaurant_uid TEXT PRIMARY KEY,
			website_restaurant_id TEXT NOT NULL,
			restaurant_name TEXT NOT NULL DEFAULT '',
			callback_url TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_seen TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS website_restaurant_mappings (
			id SERIAL PRIMARY KEY,
			website_restaurant_id TEXT NOT NULL,
			app_restaurant_uid TEXT NOT NULL REFERENCES registered_restaurants(app_restaurant_uid),
			website_domain TEXT NOT NULL DEFAULT '',
			callback_url TEXT NOT NULL DEFAULT '',
			handshake_request_id TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_handshake TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (website_restaurant_id, app_restaurant_uid)
		)`,
		`CREATE TABLE IF NOT EXISTS handshake_requests (
			id TEXT PRIMARY KEY,
			website_restaurant_id TEXT NOT NULL,
			callback_url TEXT NOT NULL,
			website_domain TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			target_restaurant_uid TEXT,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS handshake_responses (
			handshake_request_id TEXT PRIMARY KEY REFERENCES handshake_requests(id),
			restaurant_uid TEXT NOT NULL,
			device_label TEXT NOT NULL DEFAULT '',
			app_version TEXT NOT NULL DEFAULT '',
			platform TEXT NOT NULL DEFAULT '',
			capabilities TEXT NOT NULL DEFAULT '',
			response_timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			order_number TEXT NOT NULL UNIQUE,
			restaurant_uid TEXT NOT NULL,
			website_restaurant_id TEXT NOT NULL DEFAULT '',
			amount NUMERIC(12,2) NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'pending',
			customer TEXT NOT NULL DEFAULT '{}',
			callback_url TEXT NOT NULL DEFAULT '',
			idempotency_key TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			test_order BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			name TEXT NOT NULL,
			quantity INT NOT NULL,
			unit_price NUMERIC(12,2) NOT NULL,
			customizations TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.DB.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *PostgresRepository) GetRestaurant(uid, websiteRestaurantID string) (*domain.RegisteredRestaurant, error) {
	var rest domain.RegisteredRestaurant
	var lastSeen sql.NullTime
	err := r.DB.QueryRow(`
		SELECT app_restaurant_uid, website_restaurant_id, restaurant_name, callback_url, is_active, last_seen, created_at
		FROM registered_restaurants
		WHERE app_restaurant_uid = $1 AND website_restaurant_id = $2`, uid, websiteRestaurantID).
		Scan(&rest.AppRestaurantUID, &rest.WebsiteRestaurantID, &rest.RestaurantName, &rest.CallbackURL,
			&rest.IsActive, &lastSeen, &rest.CreatedAt)
	if err != nil {
		return nil, err
	}
	rest.LastSeen = lastSeen.Time
	return &rest, nil
}

func (r *PostgresRepository) RestaurantActive(uid string) (bool, error) {
	var active bool
	err := r.DB.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM registered_restaurants
			WHERE app_restaurant_uid = $1 AND is_active = TRUE
		)`, uid).Scan(&active)
	return active, err
}

func (r *PostgresRepository) TouchRestaurant(uid string) error {
	_, err := r.DB.Exec(`
		UPDATE registered_restaurants SET last_seen = now()
		WHERE app_restaurant_uid = $1`, uid)
	return err
}

func (r *PostgresRepository) GetActiveMapping(websiteRestaurantID, uid string) (*domain.WebsiteRestaurantMapping, error) {
	var m domain.WebsiteRestaurantMapping
	var handshakeID sql.NullString
	var lastHandshake sql.NullTime
	err := r.DB.QueryRow(`
		SELECT id, website_restaurant_id, app_restaurant_uid, website_domain, callback_url,
		       handshake_request_id, is_active, last_handshake, created_at
		FROM website_restaurant_mappings
		WHERE website_restaurant_id = $1 AND app_restaurant_uid = $2 AND is_active = TRUE`,
		websiteRestaurantID, uid).
		Scan(&m.ID, &m.WebsiteRestaurantID, &m.AppRestaurantUID, &m.WebsiteDomain, &m.CallbackURL,
			&handshakeID, &m.IsActive, &lastHandshake, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.HandshakeRequestID = handshakeID.String
	m.LastHandshake = lastHandshake.Time
	return &m, nil
}

func (r *PostgresRepository) CreateMapping(m *domain.WebsiteRestaurantMapping) error {
	var handshakeID any
	if m.HandshakeRequestID != "" {
		handshakeID = m.HandshakeRequestID
	}
	return r.DB.QueryRow(`
		INSERT INTO website_restaurant_mappings
			(website_restaurant_id, app_restaurant_uid, website_domain, callback_url, handshake_request_id, last_handshake)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_at`,
		m.WebsiteRestaurantID, m.AppRestaurantUID, m.WebsiteDomain, m.CallbackURL, handshakeID).
		Scan(&m.ID, &m.CreatedAt)
}

func (r *PostgresRepository) CreateHandshakeRequest(req *domain.HandshakeRequest) error {
	return r.DB.QueryRow(`
		INSERT INTO handshake_requests (id, website_restaurant_id, callback_url, website_domain, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		req.ID, req.WebsiteRestaurantID, req.CallbackURL, req.WebsiteDomain, req.Status, req.ExpiresAt).
		Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *PostgresRepository) GetHandshakeRequest(id string) (*domain.HandshakeRequest, error) {
	var req domain.HandshakeRequest
	var targetUID sql.NullString
	err := r.DB.QueryRow(`
		SELECT id, website_restaurant_id, callback_url, website_domain, status, target_restaurant_uid,
		       expires_at, created_at, updated_at
		FROM handshake_requests
		WHERE id = $1`, id).
		Scan(&req.ID, &req.WebsiteRestaurantID, &req.CallbackURL, &req.WebsiteDomain, &req.Status,
			&targetUID, &req.ExpiresAt, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	req.TargetRestaurantUID = targetUID.String
	return &req, nil
}

// ExpireHandshake flips a still-pending request to expired. The status guard
// keeps a late sweep from clobbering a completed request.
func (r *PostgresRepository) ExpireHandshake(id string) (bool, error) {
	result, err := r.DB.Exec(`
		UPDATE handshake_requests SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		domain.HandshakeExpired, id, domain.HandshakePending)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// CompleteHandshake stores the device response and flips the request to
// completed in one transaction. Returns false when the request was already
// terminal, so a double-completion never overwrites the first response.
func (r *PostgresRepository) CompleteHandshake(resp *domain.HandshakeResponse) (bool, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE handshake_requests
		SET status = $1, target_restaurant_uid = $2, updated_at = now()
		WHERE id = $3 AND status IN ($4, $5)`,
		domain.HandshakeCompleted, resp.RestaurantUID, resp.HandshakeRequestID,
		domain.HandshakePending, domain.HandshakeProcessing)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	if err := tx.QueryRow(`
		INSERT INTO handshake_responses
			(handshake_request_id, restaurant_uid, device_label, app_version, platform, capabilities)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING response_timestamp`,
		resp.HandshakeRequestID, resp.RestaurantUID, resp.DeviceLabel, resp.AppVersion,
		resp.Platform, strings.Join(resp.Capabilities, ",")).
		Scan(&resp.ResponseTimestamp); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *PostgresRepository) GetHandshakeResponse(requestID string) (*domain.HandshakeResponse, error) {
	var resp domain.HandshakeResponse
	var capabilities string
	err := r.DB.QueryRow(`
		SELECT handshake_request_id, restaurant_uid, device_label, app_version, platform, capabilities, response_timestamp
		FROM handshake_responses
		WHERE handshake_request_id = $1`, requestID).
		Scan(&resp.HandshakeRequestID, &resp.RestaurantUID, &resp.DeviceLabel, &resp.AppVersion,
			&resp.Platform, &capabilities, &resp.ResponseTimestamp)
	if err != nil {
		return nil, err
	}
	if capabilities != "" {
		resp.Capabilities = strings.Split(capabilities, ",")
	}
	return &resp, nil
}

// ListPendingHandshakes returns live pending requests addressed to the
// restaurant behind uid, matched through the registry's website-side id.
func (r *PostgresRepository) ListPendingHandshakes(uid string) ([]domain.HandshakeRequest, error) {
	rows, err := r.DB.Query(`
		SELECT hr.id, hr.website_restaurant_id, hr.callback_url, hr.website_domain, hr.status,
		       hr.expires_at, hr.created_at, hr.updated_at
		FROM handshake_requests hr
		JOIN registered_restaurants rr ON rr.website_restaurant_id = hr.website_restaurant_id
		WHERE rr.app_restaurant_uid = $1 AND hr.status = $2 AND hr.expires_at > now()
		ORDER BY hr.created_at DESC`, uid, domain.HandshakePending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.HandshakeRequest
	for rows.Next() {
		var req domain.HandshakeRequest
		if err := rows.Scan(&req.ID, &req.WebsiteRestaurantID, &req.CallbackURL, &req.WebsiteDomain,
			&req.Status, &req.ExpiresAt, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *PostgresRepository) FindOrderIDByNumber(orderNumber string) (string, error) {
	var id string
	err := r.DB.QueryRow(`SELECT id FROM orders WHERE order_number = $1`, orderNumber).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRepository) CreateOrder(order *domain.Order) error {
	customerJSON, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("encode customer snapshot: %w", err)
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRow(`
		INSERT INTO orders
			(id, order_number, restaurant_uid, website_restaurant_id, amount, currency, status,
			 customer, callback_url, idempotency_key, payment_method, notes, test_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		order.ID, order.OrderNumber, order.RestaurantUID, order.WebsiteRestaurantID,
		order.Amount, order.Currency, order.Status, string(customerJSON),
		order.CallbackURL, order.IdempotencyKey, order.PaymentMethod, order.Notes, order.TestOrder).
		Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return err
	}

	for _, item := range order.Items {
		if _, err := tx.Exec(`
			INSERT INTO order_items (order_id, name, quantity, unit_price, customizations)
			VALUES ($1, $2, $3, $4, $5)`,
			order.ID, item.Name, item.Quantity, item.UnitPrice, item.Customizations); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetOrder(id string) (*domain.Order, error) {
	order, err := r.scanOrder(r.DB.QueryRow(`
		SELECT id, order_number, restaurant_uid, website_restaurant_id, amount, currency, status,
		       customer, callback_url, idempotency_key, payment_method, notes, test_order, created_at, updated_at
		FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(`
		SELECT id, name, quantity, unit_price, customizations
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, id)
	if err != nil {
		return order, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Customizations); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

// ListOrders is always tenant-scoped. There is deliberately no variant
// without the restaurant_uid filter.
func (r *PostgresRepository) ListOrders(restaurantUID string) ([]domain.Order, error) {
	rows, err := r.DB.Query(`
		SELECT id, order_number, restaurant_uid, website_restaurant_id, amount, currency, status,
		       customer, callback_url, idempotency_key, payment_method, notes, test_order, created_at, updated_at
		FROM orders
		WHERE restaurant_uid = $1
		ORDER BY created_at DESC`, restaurantUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus advances an order's status only when the stored status
// still matches expectedPrevious, so a stale writer loses instead of
// clobbering a newer transition.
func (r *PostgresRepository) UpdateOrderStatus(id, newStatus, expectedPrevious string) (bool, error) {
	result, err := r.DB.Exec(`
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		newStatus, id, expectedPrevious)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var customerJSON string
	if err := row.Scan(&order.ID, &order.OrderNumber, &order.RestaurantUID, &order.WebsiteRestaurantID,
		&order.Amount, &order.Currency, &order.Status, &customerJSON, &order.CallbackURL,
		&order.IdempotencyKey, &order.PaymentMethod, &order.Notes, &order.TestOrder,
		&order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	if customerJSON != "" {
		_ = json.Unmarshal([]byte(customerJSON), &order.Customer)
	}
	return &order, nil
}
