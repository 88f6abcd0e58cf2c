package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"orderbridge/order-svc/internal/domain"
)

// Order-number forms a callback destination may expect. The winning form is
// cached per host so the guess happens at most once per destination.
const (
	FormatHash = "hash"
	FormatBare = "bare"
)

const (
	defaultMaxAttempts    = 3
	defaultBackoffBase    = 2 * time.Second
	defaultAttemptTimeout = 10 * time.Second
)

// DeliveryResult reports how a callback delivery went. Attempts counts the
// retry loop's rounds; the extra in-round send used for format negotiation is
// not counted separately.
type DeliveryResult struct {
	Delivered  bool
	Attempts   int
	StatusCode int
	FormatUsed string
}

// CallbackDispatcher delivers status updates to website callback URLs with
// bounded retries. Client errors are terminal, with one carve-out: an "order
// not found" rejection triggers a single in-round resend with the alternate
// order-number form.
type CallbackDispatcher struct {
	Client    HTTPClient
	Cache     Cache
	AuthToken string

	MaxAttempts    int
	BackoffBase    time.Duration
	AttemptTimeout time.Duration
	Sleep          func(time.Duration)
}

func NewCallbackDispatcher(client HTTPClient, cache Cache, authToken string) *CallbackDispatcher {
	return &CallbackDispatcher{
		Client:         client,
		Cache:          cache,
		AuthToken:      authToken,
		MaxAttempts:    defaultMaxAttempts,
		BackoffBase:    defaultBackoffBase,
		AttemptTimeout: defaultAttemptTimeout,
		Sleep:          time.Sleep,
	}
}

func (d *CallbackDispatcher) Notify(ctx context.Context, order *domain.Order, payload domain.CallbackPayload) (*DeliveryResult, error) {
	host := hostOf(order.CallbackURL)
	format := d.preferredFormat(ctx, host)
	alternateTried := false

	result := &DeliveryResult{}
	backoff := d.BackoffBase
	var lastErr error

	for attempt := 1; attempt <= d.MaxAttempts; attempt++ {
		if attempt > 1 {
			d.Sleep(backoff)
			backoff *= 2
		}
		result.Attempts = attempt

		status, body, err := d.send(ctx, order, payload, format, attempt)
		if err != nil {
			lastErr = err
			continue
		}
		result.StatusCode = status

		if status >= 200 && status < 300 {
			result.Delivered = true
			result.FormatUsed = format
			d.rememberFormat(ctx, host, format, alternateTried)
			return result, nil
		}

		if status >= 400 && status < 500 {
			if !alternateTried && isOrderNotFound(status, body) {
				// The destination likely expects the other order-number
				// form. One immediate resend, same round.
				alternateTried = true
				format = alternate(format)
				status, body, err = d.send(ctx, order, payload, format, attempt)
				if err == nil && status >= 200 && status < 300 {
					result.StatusCode = status
					result.Delivered = true
					result.FormatUsed = format
					d.rememberFormat(ctx, host, format, alternateTried)
					return result, nil
				}
				if err != nil {
					lastErr = err
					continue
				}
				result.StatusCode = status
				if status >= 500 {
					lastErr = fmt.Errorf("callback returned %d", status)
					continue
				}
			}
			return result, fmt.Errorf("callback rejected with %d: %s", status, strings.TrimSpace(body))
		}

		lastErr = fmt.Errorf("callback returned %d", status)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("callback returned %d", result.StatusCode)
	}
	return result, fmt.Errorf("delivery failed after %d attempts: %w", result.Attempts, lastErr)
}

func (d *CallbackDispatcher) send(ctx context.Context, order *domain.Order, payload domain.CallbackPayload, format string, attempt int) (int, string, error) {
	payload.OrderNumber = applyFormat(order.OrderNumber, format)

	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("marshal callback payload: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, d.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, order.CallbackURL, bytes.NewReader(raw))
	if err != nil {
		return 0, "", fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.AuthToken)
	req.Header.Set("X-Status-Update-Attempt", strconv.Itoa(attempt))
	req.Header.Set("X-Update-Type", "order_status")

	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(body), nil
}

func (d *CallbackDispatcher) preferredFormat(ctx context.Context, host string) string {
	cached, err := d.Cache.GetOrderNumberFormat(ctx, host)
	if err != nil {
		log.Printf("[order-svc] warning: format cache lookup for %s failed: %v", host, err)
		return FormatHash
	}
	if cached == FormatBare {
		return FormatBare
	}
	return FormatHash
}

// rememberFormat persists the winning form, but only when it was actually
// negotiated. Re-writing the default on every delivery would be noise.
func (d *CallbackDispatcher) rememberFormat(ctx context.Context, host, format string, negotiated bool) {
	if !negotiated {
		return
	}
	if err := d.Cache.SetOrderNumberFormat(ctx, host, format); err != nil {
		log.Printf("[order-svc] warning: failed to cache format for %s: %v", host, err)
	}
}

func applyFormat(orderNumber, format string) string {
	bare := strings.TrimPrefix(orderNumber, "#")
	if format == FormatBare {
		return bare
	}
	return "#" + bare
}

func alternate(format string) string {
	if format == FormatHash {
		return FormatBare
	}
	return FormatHash
}

// isOrderNotFound detects the rejection shape that signals an order-number
// format mismatch rather than a genuinely bad payload.
func isOrderNotFound(status int, body string) bool {
	if status == http.StatusNotFound {
		return true
	}
	return strings.Contains(strings.ToLower(body), "order not found")
}
