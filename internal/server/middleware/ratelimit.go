package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/metrics"
)

// Bucket is one rate-limit tier, selected by request path prefix.
type Bucket struct {
	Name      string
	Prefix    string
	KeyPrefix string
	Limit     int
	Window    time.Duration
	Message   string
}

// DefaultBuckets are checked in order; the first matching prefix wins.
var DefaultBuckets = []Bucket{
	{Name: "jupiter", Prefix: "/api/jupiter", KeyPrefix: "jupiter_", Limit: 40, Window: time.Minute, Message: "Too many Jupiter API requests"},
	{Name: "trading", Prefix: "/api/flash", KeyPrefix: "trading_", Limit: 30, Window: time.Minute, Message: "Too many trading requests"},
	{Name: "global", Prefix: "/api", Limit: 60, Window: time.Minute, Message: "Too many requests"},
}

// RateLimit returns middleware that applies per-client sliding-window limits
// using the provided domain.RateLimiter. Paths matching no bucket pass through.
func RateLimit(limiter domain.RateLimiter, buckets []Bucket, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, ok := match(buckets, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), b.KeyPrefix+clientIP(r), b.Limit, b.Window)
			if err != nil {
				// Fail open: a limiter outage must not take the API down.
				logger.WarnContext(r.Context(), "rate limiter unavailable",
					slog.String("bucket", b.Name),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				metrics.RateLimited.WithLabelValues(b.Name).Inc()
				writeTooManyRequests(w, b.Message, decision.ResetAt)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(b.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

func match(buckets []Bucket, path string) (Bucket, bool) {
	for _, b := range buckets {
		if strings.HasPrefix(path, b.Prefix) {
			return b, true
		}
	}
	return Bucket{}, false
}

// clientIP is the first X-Forwarded-For entry, or loopback when the header
// is absent.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		if ip = strings.TrimSpace(ip); ip != "" {
			return ip
		}
	}
	return "127.0.0.1"
}

func writeTooManyRequests(w http.ResponseWriter, msg string, resetAt time.Time) {
	now := time.Now()
	wait := max(int64(math.Ceil(resetAt.Sub(now).Seconds())), 1)

	body, _ := json.Marshal(map[string]any{
		"error":     msg,
		"status":    http.StatusTooManyRequests,
		"timestamp": now.UTC().Format(time.RFC3339Nano),
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Retry-After", strconv.FormatInt(wait, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now.Unix()+wait, 10))
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write(body)
}
