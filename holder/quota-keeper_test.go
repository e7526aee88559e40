package holder

import (
	"Relay/core"
	"Relay/storage"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var profile = core.Profile{UserId: 7, Username: "sara", FirstName: "سارا"}

func TestEnsureUserCreatesOnFirstContact(t *testing.T) {
	ctx := context.Background()
	keeper := NewQuotaKeeper(storage.NewMemoryStorage(), discardLogger())

	user, outcome := keeper.EnsureUser(ctx, profile)
	assert.Equal(t, core.OutcomeOK, outcome)
	assert.Equal(t, 0, user.DailyRequests)
	assert.Equal(t, "سارا", user.FirstName)

	assert.Equal(t, core.OutcomeOK, keeper.Increment(ctx, 7))

	again, outcome := keeper.EnsureUser(ctx, profile)
	assert.Equal(t, core.OutcomeOK, outcome)
	assert.Equal(t, 1, again.DailyRequests)
}

func TestEnsureUserSoftFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockQuotaStorage)
	store.On("GetUser", mock.Anything, int64(7)).Return(nil, errors.New("disk full"))

	keeper := NewQuotaKeeper(store, discardLogger())
	user, outcome := keeper.EnsureUser(ctx, profile)

	assert.Equal(t, core.OutcomeFailed, outcome)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.UserId)
	assert.Equal(t, 0, user.DailyRequests)
	store.AssertNotCalled(t, "UpsertUser", mock.Anything, mock.Anything)
}

func TestEnsureUserUpsertFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockQuotaStorage)
	store.On("GetUser", mock.Anything, int64(7)).Return(nil, nil)
	store.On("UpsertUser", mock.Anything, mock.Anything).Return(errors.New("locked"))

	keeper := NewQuotaKeeper(store, discardLogger())
	user, outcome := keeper.EnsureUser(ctx, profile)

	assert.Equal(t, core.OutcomeFailed, outcome)
	assert.NotNil(t, user)
	store.AssertExpectations(t)
}

func TestRegisterKeepsCounters(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	keeper := NewQuotaKeeper(store, discardLogger())

	_, _ = keeper.EnsureUser(ctx, profile)
	keeper.Increment(ctx, 7)
	keeper.Increment(ctx, 7)

	renamed := profile
	renamed.FirstName = "Sara"
	user, outcome := keeper.Register(ctx, renamed)
	assert.Equal(t, core.OutcomeOK, outcome)
	assert.Equal(t, 2, user.DailyRequests)
	assert.Equal(t, 2, user.TotalRequests)

	stored, err := store.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Sara", stored.FirstName)
	assert.Equal(t, 2, stored.DailyRequests)
}

func TestIncrementFailureIsSoft(t *testing.T) {
	store := new(MockQuotaStorage)
	store.On("IncrementRequests", mock.Anything, int64(7)).Return(storage.ErrUserNotFound)

	keeper := NewQuotaKeeper(store, discardLogger())
	assert.Equal(t, core.OutcomeFailed, keeper.Increment(context.Background(), 7))
}

func TestResetDaily(t *testing.T) {
	ctx := context.Background()
	keeper := NewQuotaKeeper(storage.NewMemoryStorage(), discardLogger())
	for _, id := range []int64{1, 2, 3} {
		_, _ = keeper.EnsureUser(ctx, core.Profile{UserId: id})
		keeper.Increment(ctx, id)
	}

	n, outcome := keeper.ResetDaily(ctx)
	assert.Equal(t, core.OutcomeOK, outcome)
	assert.Equal(t, int64(3), n)

	for _, id := range []int64{1, 2, 3} {
		user, _ := keeper.Lookup(ctx, id)
		assert.Equal(t, 0, user.DailyRequests)
		assert.Equal(t, 1, user.TotalRequests)
	}
}

func TestLockSerializesPerUser(t *testing.T) {
	keeper := NewQuotaKeeper(storage.NewMemoryStorage(), discardLogger())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := keeper.Lock(7)
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLockDifferentUsersIndependent(t *testing.T) {
	keeper := NewQuotaKeeper(storage.NewMemoryStorage(), discardLogger())
	unlockA := keeper.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := keeper.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}
}
