package holder

import (
	"Relay/core"
	"Relay/lib/sl"
	"Relay/storage"
	"context"
	"log/slog"
	"sync"
)

// QuotaKeeper is the only way the rest of the bot touches user records.
// Storage errors are logged here and reported as outcomes; they never abort a request.
type QuotaKeeper struct {
	storage storage.QuotaStorage
	log     *slog.Logger
	locks   sync.Map // map[int64]*sync.Mutex
}

func NewQuotaKeeper(store storage.QuotaStorage, log *slog.Logger) *QuotaKeeper {
	return &QuotaKeeper{
		storage: store,
		log:     log.With(sl.Module("quota")),
	}
}

// Lock serializes work for one user id and returns the unlock function.
func (k *QuotaKeeper) Lock(userId int64) func() {
	m, _ := k.locks.LoadOrStore(userId, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Lookup returns nil when the user is unknown or storage failed.
func (k *QuotaKeeper) Lookup(ctx context.Context, userId int64) (*storage.UserRecord, core.Outcome) {
	user, err := k.storage.GetUser(ctx, userId)
	if err != nil {
		k.log.With(sl.User(userId)).Error("getting user", sl.Err(err))
		return nil, core.OutcomeFailed
	}
	return user, core.OutcomeOK
}

// EnsureUser returns the stored record, creating it with zero counters on first contact.
// When storage fails the returned record is a fresh in-memory one so the caller can go on.
func (k *QuotaKeeper) EnsureUser(ctx context.Context, profile core.Profile) (*storage.UserRecord, core.Outcome) {
	user, outcome := k.Lookup(ctx, profile.UserId)
	if user != nil {
		return user, outcome
	}

	user = newRecord(profile)
	if outcome == core.OutcomeFailed {
		return user, core.OutcomeFailed
	}
	if err := k.storage.UpsertUser(ctx, user); err != nil {
		k.log.With(sl.User(profile.UserId)).Error("creating user", sl.Err(err))
		return user, core.OutcomeFailed
	}
	k.log.With(sl.User(profile.UserId)).Info("user created")
	return user, core.OutcomeOK
}

// Register creates the user or refreshes the profile fields of an existing one.
// Counters of an existing user are kept.
func (k *QuotaKeeper) Register(ctx context.Context, profile core.Profile) (*storage.UserRecord, core.Outcome) {
	user, outcome := k.Lookup(ctx, profile.UserId)
	if outcome == core.OutcomeFailed {
		return newRecord(profile), core.OutcomeFailed
	}

	record := newRecord(profile)
	if user != nil {
		record.DailyRequests = user.DailyRequests
		record.TotalRequests = user.TotalRequests
		record.CreatedAt = user.CreatedAt
	}
	if err := k.storage.UpsertUser(ctx, record); err != nil {
		k.log.With(sl.User(profile.UserId)).Error("registering user", sl.Err(err))
		return record, core.OutcomeFailed
	}
	return record, core.OutcomeOK
}

func (k *QuotaKeeper) Increment(ctx context.Context, userId int64) core.Outcome {
	if err := k.storage.IncrementRequests(ctx, userId); err != nil {
		k.log.With(sl.User(userId)).Error("incrementing requests", sl.Err(err))
		return core.OutcomeFailed
	}
	return core.OutcomeOK
}

func (k *QuotaKeeper) ResetDaily(ctx context.Context) (int64, core.Outcome) {
	n, err := k.storage.ResetDaily(ctx)
	if err != nil {
		k.log.Error("resetting daily limits", sl.Err(err))
		return 0, core.OutcomeFailed
	}
	k.log.Info("daily limits reset", slog.Int64("users", n))
	return n, core.OutcomeOK
}

func (k *QuotaKeeper) Close() error {
	return k.storage.Close()
}

func newRecord(profile core.Profile) *storage.UserRecord {
	return &storage.UserRecord{
		UserId:    profile.UserId,
		Username:  profile.Username,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
}
