package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"orderbridge/order-svc/internal/domain"

	"github.com/google/uuid"
)

// HandshakeTTL is how long a website has to collect a response before the
// request expires server-side. Callers poll on their own schedule; expiry
// here is authoritative.
const HandshakeTTL = 10 * time.Minute

const defaultWebsiteDomain = "unknown"

type PollResult struct {
	Status   string
	Message  string
	Request  *domain.HandshakeRequest
	Response *domain.HandshakeResponse
}

type HandshakeService struct {
	repo Repository
	qr   QRGenerator
	now  func() time.Time
}

func NewHandshakeService(repo Repository, qr QRGenerator) *HandshakeService {
	return &HandshakeService{repo: repo, qr: qr, now: time.Now}
}

func (s *HandshakeService) Initiate(ctx context.Context, websiteRestaurantID, callbackURL, websiteDomain string) (*domain.HandshakeRequest, error) {
	if websiteRestaurantID == "" {
		return nil, &MissingFieldError{Field: "website_restaurant_id"}
	}
	if callbackURL == "" {
		return nil, &MissingFieldError{Field: "callback_url"}
	}
	if websiteDomain == "" {
		websiteDomain = hostOf(callbackURL)
	}

	req := &domain.HandshakeRequest{
		ID:                  uuid.NewString(),
		WebsiteRestaurantID: websiteRestaurantID,
		CallbackURL:         callbackURL,
		WebsiteDomain:       websiteDomain,
		Status:              domain.HandshakePending,
		ExpiresAt:           s.now().Add(HandshakeTTL),
	}
	if err := s.repo.CreateHandshakeRequest(req); err != nil {
		return nil, fmt.Errorf("create handshake request: %w", err)
	}
	return req, nil
}

// Poll is a read with one side effect: a pending request past its deadline is
// flipped to expired. There is no background sweeper; staleness only matters
// when someone is checking.
func (s *HandshakeService) Poll(ctx context.Context, id string) (*PollResult, error) {
	req, err := s.repo.GetHandshakeRequest(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHandshakeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load handshake request: %w", err)
	}

	if req.Status == domain.HandshakePending && s.now().After(req.ExpiresAt) {
		if _, err := s.repo.ExpireHandshake(id); err != nil {
			return nil, fmt.Errorf("expire handshake request: %w", err)
		}
		req.Status = domain.HandshakeExpired
	}

	switch req.Status {
	case domain.HandshakeCompleted:
		resp, err := s.repo.GetHandshakeResponse(id)
		if errors.Is(err, sql.ErrNoRows) {
			// State says completed but the response row is missing. Surface
			// it; waiting would hide a backend bug.
			return nil, ErrHandshakeIncomplete
		}
		if err != nil {
			return nil, fmt.Errorf("load handshake response: %w", err)
		}
		s.ensureMapping(req, resp)
		return &PollResult{
			Status:   req.Status,
			Message:  "handshake completed",
			Request:  req,
			Response: resp,
		}, nil
	case domain.HandshakeExpired:
		return &PollResult{
			Status:  req.Status,
			Message: "handshake request expired before the restaurant responded",
			Request: req,
		}, nil
	case domain.HandshakeFailed:
		return &PollResult{
			Status:  req.Status,
			Message: "handshake failed, initiate a new request",
			Request: req,
		}, nil
	default:
		return &PollResult{
			Status:  req.Status,
			Message: "handshake accepted, awaiting restaurant response",
			Request: req,
		}, nil
	}
}

// ensureMapping lazily creates the website<->restaurant mapping once a
// handshake resolved. Best-effort: a mapping failure must not break polling,
// intake auto-creates it again on first order.
func (s *HandshakeService) ensureMapping(req *domain.HandshakeRequest, resp *domain.HandshakeResponse) {
	_, err := s.repo.GetActiveMapping(req.WebsiteRestaurantID, resp.RestaurantUID)
	if err == nil {
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("[order-svc] warning: mapping lookup for handshake %s failed: %v", req.ID, err)
		return
	}
	mapping := &domain.WebsiteRestaurantMapping{
		WebsiteRestaurantID: req.WebsiteRestaurantID,
		AppRestaurantUID:    resp.RestaurantUID,
		WebsiteDomain:       req.WebsiteDomain,
		CallbackURL:         req.CallbackURL,
		HandshakeRequestID:  req.ID,
	}
	if err := s.repo.CreateMapping(mapping); err != nil {
		log.Printf("[order-svc] warning: mapping auto-create for handshake %s failed: %v", req.ID, err)
	}
}

// Respond records the restaurant device's answer and completes the request.
// A request that already reached a terminal state never completes again, and
// a late answer to an expired request is rejected.
func (s *HandshakeService) Respond(ctx context.Context, resp *domain.HandshakeResponse) error {
	if resp.RestaurantUID == "" {
		return &MissingFieldError{Field: "restaurant_uid"}
	}

	req, err := s.repo.GetHandshakeRequest(resp.HandshakeRequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrHandshakeNotFound
	}
	if err != nil {
		return fmt.Errorf("load handshake request: %w", err)
	}

	if req.Status == domain.HandshakePending && s.now().After(req.ExpiresAt) {
		if _, err := s.repo.ExpireHandshake(req.ID); err != nil {
			return fmt.Errorf("expire handshake request: %w", err)
		}
		return ErrHandshakeExpired
	}
	switch req.Status {
	case domain.HandshakeExpired:
		return ErrHandshakeExpired
	case domain.HandshakeCompleted, domain.HandshakeFailed:
		return ErrHandshakeTerminal
	}

	completed, err := s.repo.CompleteHandshake(resp)
	if err != nil {
		return fmt.Errorf("complete handshake: %w", err)
	}
	if !completed {
		return ErrHandshakeTerminal
	}

	if err := s.repo.TouchRestaurant(resp.RestaurantUID); err != nil {
		log.Printf("[order-svc] warning: failed to refresh last_seen for %s: %v", resp.RestaurantUID, err)
	}
	return nil
}

func (s *HandshakeService) Pending(ctx context.Context, restaurantUID string) ([]domain.HandshakeRequest, error) {
	return s.repo.ListPendingHandshakes(restaurantUID)
}

func (s *HandshakeService) PairingQR(handshakeRequestID string) ([]byte, error) {
	return s.qr.Generate(handshakeRequestID)
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return defaultWebsiteDomain
	}
	return parsed.Host
}
