package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"LoveStory/server/internal/interfaces"
)

// MockCompletionProvider is a mock type for the CompletionProvider type
type MockCompletionProvider struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockCompletionProvider) Name() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.String(0)
	}

	return r0
}

// Complete provides a mock function with given fields: ctx, req
func (_m *MockCompletionProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.Completion, error) {
	ret := _m.Called(ctx, req)

	var r0 *interfaces.Completion
	if rf, ok := ret.Get(0).(func(context.Context, *interfaces.CompletionRequest) *interfaces.Completion); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*interfaces.Completion)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *interfaces.CompletionRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockCompletionProvider creates a new instance of MockCompletionProvider. It also registers a testing interface on the mock.
// The first argument is typically a *testing.T value.
func NewMockCompletionProvider(t interface {
	mock.TestingT
	Helper()
}) *MockCompletionProvider {
	m := &MockCompletionProvider{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.CompletionProvider = (*MockCompletionProvider)(nil)
