package mocks

import (
	"testing"

	"orderbridge/order-svc/internal/domain"

	"github.com/stretchr/testify/mock"
)

type Repository struct {
	mock.Mock
}

func NewRepository(t *testing.T) *Repository {
	m := &Repository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Repository) GetRestaurant(uid, websiteRestaurantID string) (*domain.RegisteredRestaurant, error) {
	args := m.Called(uid, websiteRestaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegisteredRestaurant), args.Error(1)
}

func (m *Repository) RestaurantActive(uid string) (bool, error) {
	args := m.Called(uid)
	return args.Bool(0), args.Error(1)
}

func (m *Repository) TouchRestaurant(uid string) error {
	return m.Called(uid).Error(0)
}

func (m *Repository) GetActiveMapping(websiteRestaurantID, uid string) (*domain.WebsiteRestaurantMapping, error) {
	args := m.Called(websiteRestaurantID, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebsiteRestaurantMapping), args.Error(1)
}

func (m *Repository) CreateMapping(mapping *domain.WebsiteRestaurantMapping) error {
	return m.Called(mapping).Error(0)
}

func (m *Repository) CreateHandshakeRequest(req *domain.HandshakeRequest) error {
	return m.Called(req).Error(0)
}

func (m *Repository) GetHandshakeRequest(id string) (*domain.HandshakeRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HandshakeRequest), args.Error(1)
}

func (m *Repository) ExpireHandshake(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *Repository) CompleteHandshake(resp *domain.HandshakeResponse) (bool, error) {
	args := m.Called(resp)
	return args.Bool(0), args.Error(1)
}

func (m *Repository) GetHandshakeResponse(requestID string) (*domain.HandshakeResponse, error) {
	args := m.Called(requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HandshakeResponse), args.Error(1)
}

func (m *Repository) ListPendingHandshakes(uid string) ([]domain.HandshakeRequest, error) {
	args := m.Called(uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HandshakeRequest), args.Error(1)
}

func (m *Repository) FindOrderIDByNumber(orderNumber string) (string, error) {
	args := m.Called(orderNumber)
	return args.String(0), args.Error(1)
}

func (m *Repository) CreateOrder(order *domain.Order) error {
	return m.Called(order).Error(0)
}

func (m *Repository) GetOrder(id string) (*domain.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *Repository) ListOrders(restaurantUID string) ([]domain.Order, error) {
	args := m.Called(restaurantUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *Repository) UpdateOrderStatus(id, newStatus, expectedPrevious string) (bool, error) {
	args := m.Called(id, newStatus, expectedPrevious)
	return args.Bool(0), args.Error(1)
}
