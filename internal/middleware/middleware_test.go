package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrouehab/AirBnB-clone-v3/internal/config"
	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
	"github.com/amrouehab/AirBnB-clone-v3/internal/utils"
)

func TestSessionIsClosedOnError(t *testing.T) {
	e := echo.New()
	p := storage.NewMemory()
	var seen storage.Storage
	e.Use(Session(p))
	e.POST("/boom", func(c echo.Context) error {
		seen = StorageFrom(c)
		seen.New(model.New(model.KindState, map[string]any{"name": "CA"}))
		return errors.New("handler failed")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, seen)
	_, err := seen.All(context.Background(), model.KindState)
	assert.ErrorIs(t, err, storage.ErrClosed)

	fresh := p.Open()
	defer fresh.Close()
	states, err := fresh.All(context.Background(), model.KindState)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestSessionIsClosedOnPanic(t *testing.T) {
	e := echo.New()
	var seen storage.Storage
	e.Use(Session(storage.NewMemory()))
	e.GET("/panic", func(c echo.Context) error {
		seen = StorageFrom(c)
		panic("boom")
	})

	assert.Panics(t, func() {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))
	})
	_, err := seen.All(context.Background(), model.KindState)
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestRequireAuth(t *testing.T) {
	const secret = "s3cret"
	e := echo.New()
	e.Use(RequireAuth(secret, "/api/v1/places_search"))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, currentUserID(c)) }
	e.GET("/api/v1/states", ok)
	e.POST("/api/v1/states", ok)
	e.POST("/api/v1/places_search", ok)

	tok, err := utils.NewAccessToken(secret, "u-1", "a@b.c", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
		body   string
	}{
		{"reads are open", http.MethodGet, "/api/v1/states", "", http.StatusOK, "anon"},
		{"reads identify a token holder", http.MethodGet, "/api/v1/states", "Bearer " + tok.Token, http.StatusOK, "u-1"},
		{"bad token on a read is ignored", http.MethodGet, "/api/v1/states", "Bearer nope", http.StatusOK, "anon"},
		{"writes need a token", http.MethodPost, "/api/v1/states", "", http.StatusUnauthorized, "Missing bearer token"},
		{"bad token", http.MethodPost, "/api/v1/states", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"good token", http.MethodPost, "/api/v1/states", "Bearer " + tok.Token, http.StatusOK, "u-1"},
		{"public write route", http.MethodPost, "/api/v1/places_search", "", http.StatusOK, "anon"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestRequireAuthDisabledWithoutSecret(t *testing.T) {
	e := echo.New()
	e.Use(RequireAuth(""))
	e.DELETE("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.GET("/ok", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("inside")
		return c.String(http.StatusOK, RequestID(c))
	})
	e.GET("/missing", func(c echo.Context) error { return echo.ErrNotFound })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"message":"inside"`)
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"status_code":404`)
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[1,2]`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `[1,2]`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestCacheKeyChangesWithGeneration(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "hbnb:cache"}
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/states?x=1", nil), httptest.NewRecorder())

	k1 := cacheKeyFrom(cfg, 1, c)
	k2 := cacheKeyFrom(cfg, 2, c)
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, cacheKeyFrom(cfg, 1, c))
	assert.Equal(t, "hbnb:cache:gen", generationKey(cfg))
}

func TestCacheAndLimiterPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestBuildRateKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/states", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/states")

	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /api/v1/states", buildRateKey(config.RateLimitConfig{Prefix: "rl"}, c))

	c.Set(UserIDKey, "u-1")
	assert.Equal(t, "rl:ip:10.0.0.1:user:u-1:route:POST /api/v1/states",
		buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c))
}
