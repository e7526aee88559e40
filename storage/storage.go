package storage

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// UserRecord holds the request counters of one chat user.
// DailyRequests never exceeds TotalRequests.
type UserRecord struct {
	UserId        int64     `bson:"user_id"`
	Username      string    `bson:"username"`
	FirstName     string    `bson:"first_name"`
	LastName      string    `bson:"last_name"`
	DailyRequests int       `bson:"daily_requests"`
	TotalRequests int       `bson:"total_requests"`
	CreatedAt     time.Time `bson:"created_at"`
	LastActiveAt  time.Time `bson:"last_active_at"`
}

// QuotaStorage persists one UserRecord per user id.
type QuotaStorage interface {
	// GetUser returns nil without error when the user is unknown
	GetUser(ctx context.Context, userId int64) (*UserRecord, error)
	// UpsertUser inserts or replaces the record, keeping CreatedAt of an existing one
	UpsertUser(ctx context.Context, user *UserRecord) error
	// IncrementRequests adds one to both counters; ErrUserNotFound if the user is unknown
	IncrementRequests(ctx context.Context, userId int64) error
	// ResetDaily zeroes every daily counter and reports how many records it touched
	ResetDaily(ctx context.Context) (int64, error)
	Close() error
}
