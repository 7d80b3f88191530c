package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/futig/docqa/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	warningInterval   = 30 * time.Second
	cleanupInterval   = 10 * time.Minute
	inactiveThreshold = time.Hour
)

// userLimit is the token bucket of one user.
type userLimit struct {
	mu            sync.Mutex
	tokens        float64
	lastRefill    time.Time
	warningsSent  int
	lastWarningAt time.Time
}

// RateLimiterMiddleware drops updates from users who exceed their token bucket.
type RateLimiterMiddleware struct {
	mu         sync.Mutex
	limits     map[int64]*userLimit
	burst      float64
	refillRate float64 // tokens per second
	sender     Sender
	logger     *zap.Logger
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewRateLimiterMiddleware allows each user burstSize updates at once and
// requestsPerMinute updates per minute after that.
func NewRateLimiterMiddleware(
	requestsPerMinute int,
	burstSize int,
	sender Sender,
	logger *zap.Logger,
) *RateLimiterMiddleware {
	rl := &RateLimiterMiddleware{
		limits:     make(map[int64]*userLimit),
		burst:      float64(burstSize),
		refillRate: float64(requestsPerMinute) / 60.0,
		sender:     sender,
		logger:     logger,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go rl.cleanupInactiveUsers()

	return rl
}

func (rl *RateLimiterMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next Next) {
	userID, chatID, ok := origin(update)
	if !ok {
		next(ctx, update)
		return
	}

	allowed, warning := rl.allow(userID)
	if allowed {
		next(ctx, update)
		return
	}

	ctxzap.Warn(ctx, "rate limit exceeded")
	if warning != "" {
		if err := notify(rl.sender, chatID, warning); err != nil {
			ctxzap.Error(ctx, "failed to send rate limit warning", zap.Error(err))
		}
	}
}

// Close stops the background cleanup.
func (rl *RateLimiterMiddleware) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// allow takes a token from the user's bucket. When the bucket is empty it
// returns the warning to show, or "" if the user was warned recently.
func (rl *RateLimiterMiddleware) allow(userID int64) (bool, string) {
	now := rl.now()

	rl.mu.Lock()
	limit, exists := rl.limits[userID]
	if !exists {
		limit = &userLimit{tokens: rl.burst, lastRefill: now}
		rl.limits[userID] = limit
	}
	rl.mu.Unlock()

	limit.mu.Lock()
	defer limit.mu.Unlock()

	limit.tokens += now.Sub(limit.lastRefill).Seconds() * rl.refillRate
	if limit.tokens > rl.burst {
		limit.tokens = rl.burst
	}
	limit.lastRefill = now

	if limit.tokens >= 1.0 {
		limit.tokens--
		limit.warningsSent = 0
		return true, ""
	}

	if !limit.lastWarningAt.IsZero() && now.Sub(limit.lastWarningAt) <= warningInterval {
		return false, ""
	}
	limit.warningsSent++
	limit.lastWarningAt = now

	switch limit.warningsSent {
	case 1:
		return false, render.MsgTooManyRequests
	case 2:
		return false, render.MsgSlowDown
	default:
		return false, render.MsgRateLimited
	}
}

func (rl *RateLimiterMiddleware) cleanupInactiveUsers() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.removeInactive()
		}
	}
}

func (rl *RateLimiterMiddleware) removeInactive() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, limit := range rl.limits {
		limit.mu.Lock()
		if now.Sub(limit.lastRefill) > inactiveThreshold {
			delete(rl.limits, userID)
			rl.logger.Debug("cleaned up inactive user from rate limiter",
				zap.Int64("user_id", userID),
			)
		}
		limit.mu.Unlock()
	}
}
