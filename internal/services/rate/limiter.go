package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const uploadsMinuteWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter caps analysis uploads per user over a fixed window. Every upload
// fans out into vision API calls, so this is the outer quota guard.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
	}
}

func (l *Limiter) AllowUpload(ctx context.Context, userID string) (int64, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}
	if l.perMinute == 0 {
		return 0, true, nil
	}

	count, ttl, err := l.store.IncrementWindow(ctx, minuteKey(userID), uploadsMinuteWindow)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func (l *Limiter) RetryAfterUpload(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}
	if l.perMinute == 0 {
		return 0, nil
	}

	count, ttl, err := l.store.WindowState(ctx, minuteKey(userID))
	if err != nil {
		return 0, err
	}
	if count >= int64(l.perMinute) {
		return ceilSeconds(ttl), nil
	}

	return 0, nil
}

func minuteKey(userID string) string {
	return "rate:uploads:min:" + userID
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
