package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/octobees/leads-extractor/internal/config"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-123")

	err := Logging(log)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	entries := logs.FilterField(zap.String("request_id", "rid-123")).All()
	if len(entries) != 1 || entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("expected one info entry for rid-123, got %+v", logs.All())
	}
	if entries[0].ContextMap()["status"] != int64(http.StatusOK) {
		t.Fatalf("expected status field, got %+v", entries[0].ContextMap())
	}

	// errors are propagated and logged
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-456")
	expected := errors.New("boom")
	err = Logging(log)(func(c echo.Context) error {
		return expected
	})(c)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error to bubble up")
	}
	failed := logs.FilterField(zap.String("request_id", "rid-456")).All()
	if len(failed) != 1 || failed[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error entry for rid-456, got %+v", failed)
	}
}

func TestSearchRateLimiter(t *testing.T) {
	cfg := config.RateLimitConfig{Requests: 1, Interval: time.Second}
	mw := SearchRateLimiter(cfg)

	e := echo.New()
	nextCalls := 0
	next := func(c echo.Context) error {
		nextCalls++
		return c.NoContent(http.StatusOK)
	}

	serve := func(mw echo.MiddlewareFunc, method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath(path)
		_ = mw(next)(c)
		return rec
	}

	if rec := serve(mw, http.MethodPost, "/search"); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	// the stream route shares the bucket
	rec := serve(mw, http.MethodGet, "/search/stream")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request rejected, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}

	if rec := serve(mw, http.MethodGet, "/leads"); rec.Code != http.StatusOK {
		t.Fatalf("expected non-search request to pass")
	}

	// zero config should behave as passthrough
	disabled := SearchRateLimiter(config.RateLimitConfig{})
	for i := 0; i < 3; i++ {
		if rec := serve(disabled, http.MethodPost, "/search"); rec.Code != http.StatusOK {
			t.Fatalf("expected passthrough when limiter disabled")
		}
	}
	if nextCalls != 5 {
		t.Fatalf("expected 5 handler calls, got %d", nextCalls)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole("admin")

	tests := map[string]struct {
		role       string
		mw         echo.MiddlewareFunc
		expectCode int
	}{
		"missing role":    {mw: mw, expectCode: http.StatusForbidden},
		"incorrect role":  {role: "client", mw: mw, expectCode: http.StatusForbidden},
		"success":         {role: "admin", mw: mw, expectCode: http.StatusOK},
		"any of several":  {role: "client", mw: RequireRole("admin", "client"), expectCode: http.StatusOK},
		"none configured": {role: "admin", mw: RequireRole(), expectCode: http.StatusForbidden},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.role != "" {
				c.Set(ContextKeyRole, tc.role)
			}

			if err := tc.mw(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.expectCode {
				t.Fatalf("expected %d, got %d", tc.expectCode, rec.Code)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	handler := RequestID()

	tests := map[string]struct {
		incoming string
		reuse    bool
	}{
		"reuse incoming header": {incoming: "incoming", reuse: true},
		"generate when missing": {incoming: ""},
		"reject whitespace":     {incoming: "has space"},
		"reject oversized":      {incoming: strings.Repeat("a", maxRequestIDLength+1)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set("X-Request-ID", tc.incoming)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen string
			if err := handler(func(c echo.Context) error {
				seen = RequestIDFromContext(c)
				return c.NoContent(http.StatusOK)
			})(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if seen == "" || rec.Header().Get("X-Request-ID") != seen {
				t.Fatalf("expected request id stored and echoed, got %q / %q", seen, rec.Header().Get("X-Request-ID"))
			}
			if tc.reuse != (seen == tc.incoming) {
				t.Fatalf("unexpected reuse of %q: got %q", tc.incoming, seen)
			}
		})
	}
}
