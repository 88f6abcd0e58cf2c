package mocks

import (
	"context"
	"testing"

	"orderbridge/order-svc/internal/domain"
	"orderbridge/order-svc/internal/service"

	"github.com/stretchr/testify/mock"
)

type HandshakeService struct {
	mock.Mock
}

func NewHandshakeService(t *testing.T) *HandshakeService {
	m := &HandshakeService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *HandshakeService) Initiate(ctx context.Context, websiteRestaurantID, callbackURL, websiteDomain string) (*domain.HandshakeRequest, error) {
	args := m.Called(ctx, websiteRestaurantID, callbackURL, websiteDomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HandshakeRequest), args.Error(1)
}

func (m *HandshakeService) Poll(ctx context.Context, id string) (*service.PollResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PollResult), args.Error(1)
}

func (m *HandshakeService) Respond(ctx context.Context, resp *domain.HandshakeResponse) error {
	return m.Called(ctx, resp).Error(0)
}

func (m *HandshakeService) Pending(ctx context.Context, restaurantUID string) ([]domain.HandshakeRequest, error) {
	args := m.Called(ctx, restaurantUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HandshakeRequest), args.Error(1)
}

func (m *HandshakeService) PairingQR(handshakeRequestID string) ([]byte, error) {
	args := m.Called(handshakeRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type IntakeService struct {
	mock.Mock
}

func NewIntakeService(t *testing.T) *IntakeService {
	m := &IntakeService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *IntakeService) Receive(ctx context.Context, sub *domain.OrderSubmission) (*domain.Order, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *IntakeService) ReceiveLocal(ctx context.Context, headerUID, headerWebsiteID, headerIdemKey string, sub *domain.OrderSubmission) (*domain.Order, error) {
	args := m.Called(ctx, headerUID, headerWebsiteID, headerIdemKey, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *IntakeService) Get(id string) (*domain.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *IntakeService) List(restaurantUID string) ([]domain.Order, error) {
	args := m.Called(restaurantUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

type StatusService struct {
	mock.Mock
}

func NewStatusService(t *testing.T) *StatusService {
	m := &StatusService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *StatusService) UpdateStatus(ctx context.Context, orderID, newStatus, updatedBy, notes string) (*service.DeliveryResult, error) {
	args := m.Called(ctx, orderID, newStatus, updatedBy, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeliveryResult), args.Error(1)
}
