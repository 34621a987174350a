package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps Redis I/O failures.
var ErrRedisUnavailable = errors.New("session redis unavailable")

// ErrCorruptList is returned when a stored session list fails to parse.
var ErrCorruptList = errors.New("session list corrupt")

// Row is one active session in a user's list. Token is immutable once
// issued and unique within the list; CreatedAt and LastAccessAt are epoch
// milliseconds.
type Row struct {
	Token        string `json:"token"`
	DeviceName   string `json:"deviceName"`
	CreatedAt    int64  `json:"createdAt"`
	LastAccessAt int64  `json:"lastAccessAt"`
}

// Registry is the Redis-backed session store, keyed by user id.
type Registry struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRegistry creates a [Registry] on the given client. prefix sets the
// Redis key namespace.
func NewRegistry(rdb redis.UniversalClient, prefix string) *Registry {
	if prefix == "" {
		prefix = "asr"
	}
	return &Registry{redis: rdb, prefix: prefix}
}

func (r *Registry) key(userID string) string {
	return r.prefix + ":" + userID
}

func (r *Registry) load(ctx context.Context, userID string) ([]Row, error) {
	data, err := r.redis.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptList, err)
	}
	return rows, nil
}

// store replaces the whole list. An empty list deletes the key instead of
// storing a dead entry.
func (r *Registry) store(ctx context.Context, userID string, rows []Row) error {
	if len(rows) == 0 {
		if err := r.redis.Del(ctx, r.key(userID)).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, r.key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Add registers a freshly issued token for the user, creating the list
// lazily on first sign-in. If the exact token is already present — only
// possible under deterministic encryption, so effectively never — the row is
// touched instead of duplicated.
func (r *Registry) Add(ctx context.Context, userID, token, deviceName string, now time.Time) error {
	rows, err := r.load(ctx, userID)
	if err != nil {
		return err
	}

	ms := now.UnixMilli()
	for i := range rows {
		if rows[i].Token == token {
			rows[i].LastAccessAt = ms
			return r.store(ctx, userID, rows)
		}
	}

	rows = append(rows, Row{
		Token:        token,
		DeviceName:   deviceName,
		CreatedAt:    ms,
		LastAccessAt: ms,
	})
	return r.store(ctx, userID, rows)
}

// Touch reports whether the token is a member of the user's list and, when
// it is, advances its LastAccessAt.
func (r *Registry) Touch(ctx context.Context, userID, token string, now time.Time) (bool, error) {
	rows, err := r.load(ctx, userID)
	if err != nil {
		return false, err
	}

	for i := range rows {
		if rows[i].Token == token {
			rows[i].LastAccessAt = now.UnixMilli()
			if err := r.store(ctx, userID, rows); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// List returns the user's active sessions in insertion order. A user with no
// sessions gets an empty result, not an error.
func (r *Registry) List(ctx context.Context, userID string) ([]Row, error) {
	return r.load(ctx, userID)
}

// Remove drops the row holding the given token. Removing the last row
// deletes the key.
func (r *Registry) Remove(ctx context.Context, userID, token string) error {
	rows, err := r.load(ctx, userID)
	if err != nil {
		return err
	}

	kept := rows[:0]
	for _, row := range rows {
		if row.Token != token {
			kept = append(kept, row)
		}
	}
	return r.store(ctx, userID, kept)
}

// RemoveAll deletes the user's entire session list, signing the user out
// everywhere.
func (r *Registry) RemoveAll(ctx context.Context, userID string) error {
	if err := r.redis.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
