package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"LoveStory/server/internal/interfaces"
	"LoveStory/server/internal/models"
)

// MockTurnRecorder is a mock type for the TurnRecorder type
type MockTurnRecorder struct {
	mock.Mock
}

// Record provides a mock function with given fields: ctx, record
func (_m *MockTurnRecorder) Record(ctx context.Context, record *models.TurnRecord) error {
	ret := _m.Called(ctx, record)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *models.TurnRecord) error); ok {
		r0 = rf(ctx, record)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockTurnRecorder creates a new instance of MockTurnRecorder.
func NewMockTurnRecorder(t interface {
	mock.TestingT
	Helper()
}) *MockTurnRecorder {
	m := &MockTurnRecorder{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.TurnRecorder = (*MockTurnRecorder)(nil)
