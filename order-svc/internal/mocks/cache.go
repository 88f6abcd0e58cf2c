package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
)

type Cache struct {
	mock.Mock
}

func NewCache(t *testing.T) *Cache {
	m := &Cache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Cache) ReplayMarkerKey(restaurantUID, idempotencyKey string) string {
	return m.Called(restaurantUID, idempotencyKey).String(0)
}

func (m *Cache) GetReplayMarker(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *Cache) SetReplayMarker(ctx context.Context, key, orderNumber string) error {
	return m.Called(ctx, key, orderNumber).Error(0)
}

func (m *Cache) GetOrderNumberFormat(ctx context.Context, host string) (string, error) {
	args := m.Called(ctx, host)
	return args.String(0), args.Error(1)
}

func (m *Cache) SetOrderNumberFormat(ctx context.Context, host, format string) error {
	return m.Called(ctx, host, format).Error(0)
}
