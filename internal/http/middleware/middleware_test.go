package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/auth"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/cache"
)

const secret = "test-secret"

type roleMap map[string]domain.Role

func (m roleMap) Role(_ context.Context, email string) (domain.Role, error) {
	if email == "broken@example.com" {
		return "", errors.New("store down")
	}
	role, ok := m[email]
	if !ok {
		return "", domain.ErrNotFound
	}
	return role, nil
}

func token(t *testing.T, email string) string {
	t.Helper()
	tok, err := auth.NewIssuer(secret, time.Hour).Issue(email)
	require.NoError(t, err)
	return tok
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFrom(r.Context())
	email := ""
	if c != nil {
		email = c.Email
	}
	response.JSON(w, http.StatusOK, map[string]string{"email": email})
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func TestRequireToken(t *testing.T) {
	h := RequireToken(auth.NewVerifier(secret))(http.HandlerFunc(okHandler))

	other, err := auth.NewIssuer("other-secret", time.Hour).Issue("pat@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"missing header", "", http.StatusUnauthorized, response.CodeUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, response.CodeInvalidToken},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, response.CodeInvalidToken},
		{"wrong secret", "Bearer " + other, http.StatusUnauthorized, response.CodeInvalidToken},
		{"valid", "Bearer " + token(t, "pat@example.com"), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeCode(t, rec))
			} else {
				assert.Contains(t, rec.Body.String(), "pat@example.com")
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	roles := roleMap{"admin@example.com": domain.RoleAdmin, "pat@example.com": domain.RoleStandard}
	chain := RequireToken(auth.NewVerifier(secret))(RequireAdmin(roles)(http.HandlerFunc(okHandler)))

	tests := []struct {
		email    string
		wantCode int
	}{
		{"admin@example.com", http.StatusOK},
		{"pat@example.com", http.StatusForbidden},
		{"ghost@example.com", http.StatusForbidden},
		{"broken@example.com", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			req.Header.Set("Authorization", "Bearer "+token(t, tt.email))
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequireAdminWithoutClaims(t *testing.T) {
	h := RequireAdmin(roleMap{})(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(cache.NewLimiter(newRedis(t), 2, time.Minute), RateLimitConfig{Prefix: "jwt"})
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/jwt", nil)
		req.RemoteAddr = ip + ":4321"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send("1.2.3.4"))
	assert.Equal(t, http.StatusOK, send("1.2.3.4"))
	assert.Equal(t, http.StatusTooManyRequests, send("1.2.3.4"))
	assert.Equal(t, http.StatusOK, send("5.6.7.8"))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) { return false, errors.New("down") }

func TestRateLimitFailsOpen(t *testing.T) {
	h := NewRateLimiter(failingLimiter{}, RateLimitConfig{Prefix: "jwt"}).Middleware()(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jwt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", getClientIP(req))
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	h := NewRateLimiter(cache.NewLimiter(newRedis(t), 2, time.Minute), RateLimitConfig{Prefix: "jwt"}).Middleware()(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/jwt", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := cache.NewIdempotencyStore(newRedis(t), time.Hour)
	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		response.JSON(w, http.StatusCreated, map[string]int{"call": calls})
	}))

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/reservation", strings.NewReader(`{}`))
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("abc")
	require.Equal(t, http.StatusCreated, first.Code)
	second := send("abc")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	send("")
	send("other")
	assert.Equal(t, 3, calls)
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	store := cache.NewIdempotencyStore(newRedis(t), time.Hour)
	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		response.Conflict(w, "conflict")
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/reservation", nil)
		req.Header.Set(IdempotencyHeader, "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyRunsHandlerOncePerKeyInFlight(t *testing.T) {
	store := cache.NewIdempotencyStore(newRedis(t), time.Hour)
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(entered)
		<-release
		response.JSON(w, http.StatusCreated, map[string]string{"id": "r1"})
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/reservation", strings.NewReader(`{}`))
		req.Header.Set(IdempotencyHeader, "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- send() }()
	<-entered

	var wg sync.WaitGroup
	codes := make([]int, 4)
	for i := range codes {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = send().Code
		}()
	}
	wg.Wait()
	close(release)

	assert.Equal(t, http.StatusCreated, (<-first).Code)
	assert.Equal(t, []int{409, 409, 409, 409}, codes)
	assert.Equal(t, int32(1), calls.Load())

	replayed := send()
	assert.Equal(t, http.StatusCreated, replayed.Code)
	assert.Equal(t, "true", replayed.Header().Get(ReplayedHeader))
	assert.Equal(t, int32(1), calls.Load())
}
