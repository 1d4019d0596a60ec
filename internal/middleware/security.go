package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LimiterIdleTTL is how long an IP's bucket is kept after its last request
const LimiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements token bucket rate limiting per IP. Buckets idle for
// longer than LimiterIdleTTL are dropped.
type RateLimiter struct {
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     limit,
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// NewRateLimiter creates a limiter allowing rps requests per second per IP
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return newRateLimiter(rate.Limit(rps), burst)
}

// GetLimiter gets or creates a limiter for an IP address
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= LimiterIdleTTL {
		rl.sweep(now)
	}

	if v, exists := rl.visitors[ip]; exists {
		v.lastSeen = now
		return v.limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: now}
	return limiter
}

// sweep drops idle buckets; rl.mu must be held
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= LimiterIdleTTL {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = now
}

// Tracked returns the number of IPs currently holding a bucket
func (rl *RateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// RateLimitMiddleware enforces rate limiting per IP
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			log.Printf("[SECURITY] Rate limit exceeded for IP: %s", ip)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 60,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// NewAuthRateLimiter is the stricter limiter in front of the password
// protected operator routes: 5 attempts per minute per IP, burst of 10.
func NewAuthRateLimiter() *RateLimiter {
	return newRateLimiter(rate.Every(12*time.Second), 10)
}

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// BasicAuthRealm is announced on every rejected operator request
const BasicAuthRealm = `Basic realm="Restricted Area"`

// BasicAuthMiddleware guards the operator routes. Only the password part of
// the credentials is checked, in constant time; the username is ignored.
// An empty configured password rejects every request.
func BasicAuthMiddleware(password string, sl *SecurityLogger) gin.HandlerFunc {
	expected := []byte(password)
	return func(c *gin.Context) {
		given, ok := basicAuthPassword(c.GetHeader("Authorization"))
		if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(given), expected) != 1 {
			reason := "wrong password"
			if !ok {
				reason = "missing or malformed credentials"
			}
			sl.LogFailedAuth(c.ClientIP(), c.Request.URL.Path, reason)
			c.Header("WWW-Authenticate", BasicAuthRealm)
			c.String(http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// basicAuthPassword extracts the password from a Basic Authorization header
func basicAuthPassword(header string) (string, bool) {
	encoded, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", false
	}
	_, password, ok := strings.Cut(string(decoded), ":")
	return password, ok
}

// WebhookSecretHeader carries the secret Telegram echoes on every update
const WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecretMiddleware rejects updates that do not carry the configured
// secret. With no secret configured every update is accepted.
func WebhookSecretMiddleware(secret string, sl *SecurityLogger) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}
		given := []byte(c.GetHeader(WebhookSecretHeader))
		if subtle.ConstantTimeCompare(given, expected) != 1 {
			sl.LogWebhookRejected(c.ClientIP())
			c.String(http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SecurityLogger logs security events
type SecurityLogger struct {
	mu sync.Mutex
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{}
}

// LogFailedAuth logs failed operator authentication attempts
func (sl *SecurityLogger) LogFailedAuth(ip, path, reason string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	log.Printf("[SECURITY-WARNING] Failed authentication on %s from IP %s: %s", path, ip, reason)
}

// LogWebhookRejected logs updates posted without the webhook secret
func (sl *SecurityLogger) LogWebhookRejected(ip string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	log.Printf("[SECURITY-WARNING] Webhook call without valid secret from IP %s", ip)
}

// LogOperatorAction logs a successful operator request
func (sl *SecurityLogger) LogOperatorAction(ip, action string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	log.Printf("[SECURITY] Operator %s from IP %s", action, ip)
}
