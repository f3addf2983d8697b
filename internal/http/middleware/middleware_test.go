package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserName(c), "request_id": GetRequestID(c)})
	})
	r.GET("/x", handlers...)
	return r
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	r := newEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"request_id":"abc"`)
}

func TestAuthAndRoles(t *testing.T) {
	parse := func(token string) (string, string, error) {
		switch token {
		case "admin-token":
			return "root", "admin", nil
		case "viewer-token":
			return "bob", "viewer", nil
		}
		return "", "", errors.New("bad token")
	}
	r := newEngine(Auth(parse), RequireRoles("Admin"))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer viewer-token", http.StatusForbidden},
		{"Bearer admin-token", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.header)
	}
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	r := newEngine(RequireRoles("admin"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://shop.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://shop.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://shop.test", w.Header().Get("Access-Control-Allow-Origin"))
}
