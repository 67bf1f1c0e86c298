package server

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/tracklinker/internal/shared"
)

func TestCallbackHandler(t *testing.T) {
	t.Run("captures authorization code", func(t *testing.T) {
		handler := NewCallbackHandler("state123")

		req := httptest.NewRequest("GET", "/callback?state=state123&code=auth_code_456", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != 200 {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Code != "auth_code_456" {
			t.Errorf("expected code auth_code_456, got %q", result.Code)
		}
	})

	t.Run("rejects mismatched state", func(t *testing.T) {
		handler := NewCallbackHandler("expected")

		req := httptest.NewRequest("GET", "/callback?state=forged&code=x", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != 400 {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected state validation error")
		}
	})

	t.Run("reports provider denial", func(t *testing.T) {
		handler := NewCallbackHandler("state123")

		req := httptest.NewRequest("GET", "/callback?state=state123&error=access_denied&error_description=user+denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected authorization error")
		}
		if !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected denial reason in error, got %v", result.Error())
		}
	})

	t.Run("processes only one callback", func(t *testing.T) {
		handler := NewCallbackHandler("state123")

		first := httptest.NewRequest("GET", "/callback?state=state123&code=one", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest("GET", "/callback?state=state123&code=two", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != 400 {
			t.Errorf("expected replay to be rejected with 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Code != "one" {
			t.Errorf("expected first code to win, got %q", result.Code)
		}
	})
}

func TestRouter(t *testing.T) {
	t.Run("routes registered handler", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Logging(shared.NewLogger(io.Discard)))
		router.Handler(NewCallbackHandler("s"))

		req := httptest.NewRequest("GET", "/callback?state=s&code=c", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != 200 {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(NewCallbackHandler("s"))

		req := httptest.NewRequest("GET", "/missing", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != 404 {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
