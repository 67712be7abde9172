package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/security"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// BotProtection blocks scripted clients before they reach the redirect
// path, keeping click data close to human traffic. Detections are tallied
// in Redis for offline review.
type BotProtection struct {
	detector *security.BotDetector
	enabled  bool
	redis    *redis.Client
}

// NewBotProtection creates a new bot protection middleware
func NewBotProtection(maxRequestsPerMinute int, enabled bool, rdb *redis.Client) *BotProtection {
	return &BotProtection{
		detector: security.NewBotDetector(maxRequestsPerMinute),
		enabled:  enabled,
		redis:    rdb,
	}
}

// Protect returns a middleware function that blocks bots
func (bp *BotProtection) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !bp.enabled {
			next.ServeHTTP(w, r)
			return
		}

		isBot, reason := bp.detector.IsBot(r)
		if !isBot {
			next.ServeHTTP(w, r)
			return
		}

		log.Warn().
			Str("ip", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Str("reason", reason).
			Str("path", r.URL.Path).
			Msg("Bot detected - request blocked")

		if bp.redis != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			bp.redis.Incr(ctx, "security:bot_detections")
			bp.redis.ZAdd(ctx, "security:bot_detections_timeline", &redis.Z{
				Score:  float64(time.Now().Unix()),
				Member: r.RemoteAddr,
			})
			bp.redis.ZIncrBy(ctx, "security:blocked_ips", 1, r.RemoteAddr)
			bp.redis.ZIncrBy(ctx, "security:block_reasons", 1, reason)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  "Bot detected",
			"reason": reason,
		})
	})
}

// GetStats returns bot detection statistics
func (bp *BotProtection) GetStats() map[string]interface{} {
	return bp.detector.GetStats()
}
