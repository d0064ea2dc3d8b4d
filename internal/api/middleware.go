package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// httpError carries a status for the error renderer. Messages of 5xx errors
// are never shown to clients.
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func withStatus(status int, err error) error {
	return &httpError{status: status, err: err}
}

// fail records err and stops the handler chain; errorRenderer writes the body.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// renderStatus writes the nested {error: {message, status}} body.
func renderStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"message": message, "status": status}})
}

func errorRenderer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := http.StatusInternalServerError
		var herr *httpError
		if errors.As(err, &herr) {
			status = herr.status
		}
		message := http.StatusText(status)
		if status < http.StatusInternalServerError {
			message = err.Error()
		} else {
			logrus.WithError(err).WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.FullPath(),
			}).Error("request failed")
		}
		renderStatus(c, status, message)
	}
}

func recoverToJSON(c *gin.Context, recovered any) {
	logrus.WithFields(logrus.Fields{
		"panic":  recovered,
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("handler panic")
	renderStatus(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"client":   c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Warn("request")
		case status >= http.StatusBadRequest:
			entry.Info("request")
		default:
			entry.Debug("request")
		}
	}
}

// limitBody caps request bodies; reads past the limit fail with
// *http.MaxBytesError.
func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPRateLimiter(limit rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limit:     limit,
		burst:     burst,
		entries:   make(map[string]*limiterEntry),
		idleAfter: 10 * time.Minute,
		now:       time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for key, entry := range l.entries {
			if now.Sub(entry.lastSeen) > l.idleAfter {
				delete(l.entries, key)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.entries[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
