package mocks

import (
	"context"
	"net/http"
	"testing"

	"orderbridge/order-svc/internal/domain"
	"orderbridge/order-svc/internal/service"

	"github.com/stretchr/testify/mock"
)

type EventPublisher struct {
	mock.Mock
}

func NewEventPublisher(t *testing.T) *EventPublisher {
	m := &EventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EventPublisher) PublishOrderEvent(ctx context.Context, msg domain.KafkaMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type HTTPClient struct {
	mock.Mock
}

func NewHTTPClient(t *testing.T) *HTTPClient {
	m := &HTTPClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

type Dispatcher struct {
	mock.Mock
}

func NewDispatcher(t *testing.T) *Dispatcher {
	m := &Dispatcher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Dispatcher) Notify(ctx context.Context, order *domain.Order, payload domain.CallbackPayload) (*service.DeliveryResult, error) {
	args := m.Called(ctx, order, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeliveryResult), args.Error(1)
}

type QRGenerator struct {
	mock.Mock
}

func NewQRGenerator(t *testing.T) *QRGenerator {
	m := &QRGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *QRGenerator) Generate(handshakeRequestID string) ([]byte, error) {
	args := m.Called(handshakeRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
