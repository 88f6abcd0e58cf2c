package tests

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"orderbridge/order-svc/internal/domain"
	"orderbridge/order-svc/internal/mocks"
	"orderbridge/order-svc/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestDispatcher(client *mocks.HTTPClient, cache *mocks.Cache) *service.CallbackDispatcher {
	dispatcher := service.NewCallbackDispatcher(client, cache, "svc-token")
	dispatcher.Sleep = func(time.Duration) {}
	return dispatcher
}

func callbackOrder() *domain.Order {
	return &domain.Order{
		ID:          "ord-1",
		OrderNumber: "1042",
		CallbackURL: "https://shop.example.com/callback",
		Status:      domain.StatusPending,
	}
}

func httpResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDispatcher_DeliversFirstAttempt(t *testing.T) {
	client := mocks.NewHTTPClient(t)
	cache := mocks.NewCache(t)
	ctx := context.Background()

	cache.On("GetOrderNumberFormat", ctx, "shop.example.com").Return("", nil).Once()

	var sentBody string
	client.On("Do", mock.Anything).Run(func(args mock.Arguments) {
		req := args.Get(0).(*http.Request)
		raw, _ := io.ReadAll(req.Body)
		sentBody = string(raw)
		assert.Equal(t, "Bearer svc-token", req.Header.Get("Authorization"))
		assert.Equal(t, "1", req.Header.Get("X-Status-Update-Attempt"))
		assert.Equal(t, "order_status", req.Header.Get("X-Update-Type"))
	}).Return(httpResponse(200, `{}`), nil).Once()

	result, err := newTestDispatcher(client, cache).Notify(ctx, callbackOrder(), domain.CallbackPayload{
		OrderID: "ord-1", Status: domain.StatusApproved,
	})

	assert.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, service.FormatHash, result.FormatUsed)
	// Canonical form carries the leading marker.
	assert.Contains(t, sentBody, `"orderNumber":"#1042"`)
}

func TestDispatcher_NegotiatesBareFormat(t *testing.T) {
	client := mocks.NewHTTPClient(t)
	cache := mocks.NewCache(t)
	ctx := context.Background()

	cache.On("GetOrderNumberFormat", ctx, "shop.example.com").Return("", nil).Once()

	var bodies []string
	capture := func(args mock.Arguments) {
		req := args.Get(0).(*http.Request)
		raw, _ := io.ReadAll(req.Body)
		bodies = append(bodies, string(raw))
	}
	client.On("Do", mock.Anything).Run(capture).
		Return(httpResponse(404, `{"error":"order not found"}`), nil).Once()
	client.On("Do", mock.Anything).Run(capture).
		Return(httpResponse(200, `{}`), nil).Once()

	cache.On("SetOrderNumberFormat", ctx, "shop.example.com", service.FormatBare).Return(nil).Once()

	result, err := newTestDispatcher(client, cache).Notify(ctx, callbackOrder(), domain.CallbackPayload{})

	assert.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, service.FormatBare, result.FormatUsed)
	assert.Contains(t, bodies[0], `"orderNumber":"#1042"`)
	assert.Contains(t, bodies[1], `"orderNumber":"1042"`)
}

func TestDispatcher_UsesCachedFormat(t *testing.T) {
	client := mocks.NewHTTPClient(t)
	cache := mocks.NewCache(t)
	ctx := context.Background()

	cache.On("GetOrderNumberFormat", ctx, "shop.example.com").Return(service.FormatBare, nil).Once()

	var sentBody string
	client.On("Do", mock.Anything).Run(func(args mock.Arguments) {
		req := args.Get(0).(*http.Request)
		raw, _ := io.ReadAll(req.Body)
		sentBody = string(raw)
	}).Return(httpResponse(200, `{}`), nil).Once()

	result, err := newTestDispatcher(client, cache).Notify(ctx, callbackOrder(), domain.CallbackPayload{})

	assert.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.Contains(t, sentBody, `"orderNumber":"1042"`)
}

func TestDispatcher_ClientErrorIsTerminal(t *testing.T) {
	client := mocks.NewHTTPClient(t)
	cache := mocks.NewCache(t)
	ctx := context.Background()

	cache.On("GetOrderNumberFormat", ctx, "shop.example.com").Return("", nil).Once()
	client.On("Do", mock.Anything).
		Return(httpResponse(400, `{"error":"bad payload"}`), nil).Once()

	result, err := newTestDispatcher(client, cache).Notify(ctx, callbackOrder(), domain.CallbackPayload{})

	assert.Error(t, err)
	assert.False(t, result.Delivered)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 400, result.StatusCode)
}

func TestDispatcher_RetriesServerErrors(t *testing.T) {
	client := mocks.NewHTTPClient(t)
	cache := mocks.NewCache(t)
	ctx := context.Background()

	cache.On("GetOrderNumberFormat", ctx, "shop.example.com").Return("", nil).Once()
	client.On("Do", mock.Anything).Return(httpResponse(500, ``), nil).Times(3)

	var slept []time.Duration
	dispatcher := service.NewCallbackDispatcher(client, cache, "svc-token")
	dispatcher.Sleep = func(d time.Duration) { slept = append(slept, d) }

	result, err := dispatcher.Notify(ctx, callbackOrder(), domain.CallbackPayload{})

	assert.Error(t, err)
	assert.False(t, result.Delivered)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, slept)
}

func TestDispatcher_RetriesNetworkErrorThenSucceeds(t *testing.T) {
	client := mocks.NewHTTPClient(t)
	cache := mocks.NewCache(t)
	ctx := context.Background()

	cache.On("GetOrderNumberFormat", ctx, "shop.example.com").Return("", nil).Once()
	client.On("Do", mock.Anything).Return(nil, errors.New("connection refused")).Once()
	client.On("Do", mock.Anything).Return(httpResponse(200, `{}`), nil).Once()

	result, err := newTestDispatcher(client, cache).Notify(ctx, callbackOrder(), domain.CallbackPayload{})

	assert.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.Equal(t, 2, result.Attempts)
}
