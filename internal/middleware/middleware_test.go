package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidaplus/internal/model"
	"vidaplus/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtUtil := utils.NewJWTUtil("test-secret", 1)
	valid, err := jwtUtil.GenerateToken("u1", model.RoleProfessional)
	require.NoError(t, err)
	foreign, err := utils.NewJWTUtil("other-secret", 1).GenerateToken("u1", model.RoleAdmin)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(jwtUtil), func(c *gin.Context) {
		id, _ := AuthUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": c.GetString(AuthRoleKey)})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "no token", header: "Bearer", wantStatus: http.StatusUnauthorized},
		{name: "foreign secret", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"id":"u1","role":"professional"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	newRouter := func(role string) *gin.Engine {
		r := gin.New()
		r.GET("/admin", func(c *gin.Context) {
			if role != "" {
				c.Set(AuthRoleKey, role)
			}
			c.Next()
		}, AdminMiddleware(), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	tests := []struct {
		role       string
		wantStatus int
	}{
		{role: model.RoleAdmin, wantStatus: http.StatusNoContent},
		{role: model.RolePatient, wantStatus: http.StatusForbidden},
		{role: "", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(tt.role).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	r := gin.New()
	r.POST("/login", RateLimitMiddleware(limiter, discardLogger()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))

	t.Run("budget is per ip", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, send("10.0.0.2"))
	})

	t.Run("refills over time", func(t *testing.T) {
		time.Sleep(1100 * time.Millisecond)
		assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	})
}

func TestIPRateLimiter_SweepsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(1, 5)
	clock := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(fmt.Sprintf("203.0.113.%d", i)))
	}
	require.Equal(t, 100, l.Len())

	clock = clock.Add(l.idleTTL - time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.Equal(t, 101, l.Len())

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.Len())
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/users/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	})

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/"+id, nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/users/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(discardLogger()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
