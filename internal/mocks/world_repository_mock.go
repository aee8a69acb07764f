package mocks

import (
	"context"

	"worldforge/internal/domain"
	"worldforge/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockWorldRepository is a mock type for the WorldRepository type
type MockWorldRepository struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, id
func (_m *MockWorldRepository) Get(ctx context.Context, id domain.WorldID) (*domain.World, error) {
	ret := _m.Called(ctx, id)

	var r0 *domain.World
	if rf, ok := ret.Get(0).(func(context.Context, domain.WorldID) *domain.World); ok {
		r0 = rf(ctx, id)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*domain.World)
		}
	}

	return r0, ret.Error(1)
}

// Save provides a mock function with given fields: ctx, world
func (_m *MockWorldRepository) Save(ctx context.Context, world *domain.World) error {
	ret := _m.Called(ctx, world)
	if rf, ok := ret.Get(0).(func(context.Context, *domain.World) error); ok {
		return rf(ctx, world)
	}
	return ret.Error(0)
}

// Delete provides a mock function with given fields: ctx, id
func (_m *MockWorldRepository) Delete(ctx context.Context, id domain.WorldID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// List provides a mock function with given fields: ctx
func (_m *MockWorldRepository) List(ctx context.Context) ([]*domain.World, error) {
	ret := _m.Called(ctx)

	var r0 []*domain.World
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*domain.World)
	}

	return r0, ret.Error(1)
}

// NewMockWorldRepository creates a new instance of MockWorldRepository.
func NewMockWorldRepository(t interface {
	mock.TestingT
	Helper()
}) *MockWorldRepository {
	m := &MockWorldRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.WorldRepository = (*MockWorldRepository)(nil)
