package middleware_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dumpsift/internal/platform/net/middleware"
	kit "dumpsift/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestWrappers_ReturnHandlers(t *testing.T) {
	if middleware.RequestID() == nil || middleware.NoCache() == nil || middleware.Heartbeat("/ping") == nil {
		t.Fatal("wrapper returned nil")
	}
	if middleware.CORS(nil) != nil {
		t.Fatal("CORS without origins should be disabled")
	}
}

func TestDefaults_RequestIDNoCacheAndCORS(t *testing.T) {
	var logs bytes.Buffer
	log := zerolog.New(&logs).Level(zerolog.DebugLevel)
	mws := middleware.Defaults(log, []string{"https://dash.example"})
	if len(mws) != 5 {
		t.Fatalf("expected 5 middlewares, got %d", len(mws))
	}

	h := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}), mws...)

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	req.Header.Set("Origin", "https://dash.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://dash.example" {
		t.Fatalf("missing CORS header: %v", rr.Header())
	}
	if rr.Header().Get("Cache-Control") == "" {
		t.Fatalf("missing no-cache headers")
	}
	kit.MustContain(t, logs.String(), `"request_id":"`)
	kit.MustContain(t, logs.String(), `"path":"/progress"`)
}

func TestDefaults_WithoutOrigins(t *testing.T) {
	if n := len(middleware.Defaults(zerolog.Nop(), nil)); n != 4 {
		t.Fatalf("expected 4 middlewares, got %d", n)
	}
}
