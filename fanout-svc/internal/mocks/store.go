package mocks

import (
	"context"
	"testing"

	"orderbridge/fanout-svc/internal/domain"

	"github.com/stretchr/testify/mock"
)

type StoreInterface struct {
	mock.Mock
}

func NewStoreInterface(t *testing.T) *StoreInterface {
	m := &StoreInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *StoreInterface) RestaurantActive(ctx context.Context, uid string) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

func (m *StoreInterface) Publish(ctx context.Context, event domain.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}
