package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const usersSetKey = "quota_users"

// both counters move together or not at all
var incrementScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HINCRBY", KEYS[1], "daily_requests", 1)
redis.call("HINCRBY", KEYS[1], "total_requests", 1)
redis.call("HSET", KEYS[1], "last_active_at", ARGV[1])
return 1
`)

type RedisStorage struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisStorage(addr, password string, db int, log *slog.Logger) (*RedisStorage, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis %s: %w", addr, err)
	}

	return &RedisStorage{
		rdb: rdb,
		log: log,
	}, nil
}

func (r *RedisStorage) GetUser(ctx context.Context, userId int64) (*UserRecord, error) {
	fields, err := r.rdb.HGetAll(ctx, getUserKey(userId)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", userId, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	user, err := decodeUser(userId, fields)
	if err != nil {
		return nil, fmt.Errorf("decoding user %d: %w", userId, err)
	}
	return user, nil
}

func (r *RedisStorage) UpsertUser(ctx context.Context, user *UserRecord) error {
	key := getUserKey(user.UserId)
	now := time.Now().UTC()

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	var created *redis.BoolCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.HSetNX(ctx, key, "created_at", formatTime(createdAt))
		pipe.HSet(ctx, key, map[string]interface{}{
			"username":       user.Username,
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"daily_requests": user.DailyRequests,
			"total_requests": user.TotalRequests,
			"last_active_at": formatTime(now),
		})
		pipe.SAdd(ctx, usersSetKey, user.UserId)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upserting user %d: %w", user.UserId, err)
	}

	if !created.Val() {
		stored, err := r.rdb.HGet(ctx, key, "created_at").Result()
		if err != nil {
			return fmt.Errorf("reading created_at of user %d: %w", user.UserId, err)
		}
		if createdAt, err = parseTime(stored); err != nil {
			return err
		}
	}
	user.CreatedAt = createdAt
	user.LastActiveAt = now
	return nil
}

func (r *RedisStorage) IncrementRequests(ctx context.Context, userId int64) error {
	n, err := incrementScript.Run(ctx, r.rdb, []string{getUserKey(userId)}, formatTime(time.Now().UTC())).Int()
	if err != nil {
		return fmt.Errorf("incrementing requests of user %d: %w", userId, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *RedisStorage) ResetDaily(ctx context.Context) (int64, error) {
	members, err := r.rdb.SMembers(ctx, usersSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, member := range members {
			pipe.HSet(ctx, "quota_user_"+member, "daily_requests", 0)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("resetting daily requests: %w", err)
	}
	return int64(len(members)), nil
}

func (r *RedisStorage) Close() error {
	return r.rdb.Close()
}

func decodeUser(userId int64, fields map[string]string) (*UserRecord, error) {
	user := &UserRecord{
		UserId:    userId,
		Username:  fields["username"],
		FirstName: fields["first_name"],
		LastName:  fields["last_name"],
	}

	var err error
	if user.DailyRequests, err = atoi(fields["daily_requests"]); err != nil {
		return nil, err
	}
	if user.TotalRequests, err = atoi(fields["total_requests"]); err != nil {
		return nil, err
	}
	if v, ok := fields["created_at"]; ok {
		if user.CreatedAt, err = parseTime(v); err != nil {
			return nil, err
		}
	}
	if v, ok := fields["last_active_at"]; ok {
		if user.LastActiveAt, err = parseTime(v); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func atoi(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("counter is not a number: " + s)
	}
	return n, nil
}

func getUserKey(userId int64) string {
	return fmt.Sprintf("quota_user_%d", userId)
}
