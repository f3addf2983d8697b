package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userRoleKey = "userRole"
	userNameKey = "userName"
)

// TokenParser validates a bearer token and returns subject and role.
type TokenParser func(token string) (subject, role string, err error)

// Auth requires a valid bearer token and stores its role for RequireRoles.
func Auth(parse TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "unauthorized: missing bearer token",
				"request_id": GetRequestID(c),
			})
			return
		}
		subject, role, err := parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "unauthorized: invalid token",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Set(userNameKey, subject)
		c.Set(userRoleKey, role)
		c.Next()
	}
}

// RequireRoles lets through only requests whose role (set by Auth) is one
// of allowedRoles.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: no role on request",
			})
			return
		}
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "forbidden: role not allowed",
			})
			return
		}
		c.Next()
	}
}

// UserName returns the authenticated subject.
func UserName(c *gin.Context) string {
	return c.GetString(userNameKey)
}
