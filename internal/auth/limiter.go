package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginLimit     = 5
	loginWindow    = 15 * time.Minute
	loginKeyPrefix = "login_attempts"
)

// LoginLimiter bounds login attempts per identifier with a Redis sorted set
// used as a sliding window: one member per attempt, scored by timestamp.
type LoginLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLoginLimiter(client *redis.Client) *LoginLimiter {
	return &LoginLimiter{
		client: client,
		limit:  loginLimit,
		window: loginWindow,
		now:    time.Now,
	}
}

// Allow records an attempt and reports whether it is within the limit. When
// denied, retryAt is when the oldest counted attempt leaves the window.
func (l *LoginLimiter) Allow(ctx context.Context, identifier string) (ok bool, retryAt time.Time, err error) {
	key := loginKeyPrefix + ":" + identifier
	now := l.now()
	threshold := now.Add(-l.window).UnixNano()

	if err := l.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(threshold, 10)).Err(); err != nil {
		return false, time.Time{}, fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	count, err := l.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, time.Time{}, fmt.Errorf("redis zcard: %w", err)
	}
	if int(count) >= l.limit {
		oldest, err := l.client.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err != nil {
			return false, time.Time{}, fmt.Errorf("redis zrange: %w", err)
		}
		retryAt := now.Add(l.window)
		if len(oldest) > 0 {
			retryAt = time.Unix(0, int64(oldest[0].Score)).Add(l.window)
		}
		return false, retryAt, nil
	}

	member := redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()}
	if err := l.client.ZAdd(ctx, key, member).Err(); err != nil {
		return false, time.Time{}, fmt.Errorf("redis zadd: %w", err)
	}
	if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
		return false, time.Time{}, fmt.Errorf("redis expire: %w", err)
	}
	return true, time.Time{}, nil
}

// Reset clears the attempt window, called after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	return l.client.Del(ctx, loginKeyPrefix+":"+identifier).Err()
}

const revokedKeyPrefix = "revoked_token"

// Denylist tracks revoked refresh tokens by token id until they expire on
// their own.
type Denylist struct {
	client *redis.Client
	now    func() time.Time
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client, now: time.Now}
}

// Revoke marks the token id unusable until its natural expiry.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, revokedKeyPrefix+":"+tokenID, 1, ttl).Err()
}

// Revoked reports whether the token id has been revoked.
func (d *Denylist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, revokedKeyPrefix+":"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
