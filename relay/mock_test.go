package relay

import (
	"Relay/storage"
	"context"

	"github.com/stretchr/testify/mock"
)

type MockQuotaStorage struct {
	mock.Mock
}

func (m *MockQuotaStorage) GetUser(ctx context.Context, userId int64) (*storage.UserRecord, error) {
	args := m.Called(ctx, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UserRecord), args.Error(1)
}

func (m *MockQuotaStorage) UpsertUser(ctx context.Context, user *storage.UserRecord) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockQuotaStorage) IncrementRequests(ctx context.Context, userId int64) error {
	return m.Called(ctx, userId).Error(0)
}

func (m *MockQuotaStorage) ResetDaily(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuotaStorage) Close() error {
	return m.Called().Error(0)
}
