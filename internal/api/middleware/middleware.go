package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RoleKey is the gin context key holding the acting role
const RoleKey = "role"

// CORS sets permissive CORS headers and answers preflight requests.
// roleHeader is the request header carrying the acting role.
func CORS(roleHeader string) gin.HandlerFunc {
	allowHeaders := "Content-Type, Authorization"
	if roleHeader != "" {
		allowHeaders += ", " + http.CanonicalHeaderKey(roleHeader)
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", allowHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Logger logs every request with slog
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"role", CurrentRole(c),
		)
	}
}

// Role reads the acting role from header. The admin server is expected to
// sit behind a proxy that authenticates users and sets it.
func Role(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RoleKey, strings.TrimSpace(c.GetHeader(header)))
		c.Next()
	}
}

// CurrentRole returns the role stored by Role
func CurrentRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}

// Capability answers whether a role may use a group of routes
type Capability func(role string) (bool, error)

// Require aborts with 403 unless check allows the current role
func Require(check Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := check(CurrentRole(c))
		if err != nil {
			slog.Error("role check failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load roles"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
