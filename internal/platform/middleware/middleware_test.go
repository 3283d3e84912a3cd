package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequestID_Generated(t *testing.T) {
	c, rec := newTestContext()
	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rid, _ := c.Get("request_id").(string)
	if rid == "" {
		t.Fatal("expected a generated request id")
	}
	if rec.Header().Get("X-Request-ID") != rid {
		t.Error("request id should be echoed on the response")
	}
}

func TestRequestID_Honored(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rid, _ := c.Get("request_id").(string); rid != "req-42" {
		t.Errorf("expected caller-supplied id, got %q", rid)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	c, _ := newTestContext()
	logger := zerolog.Nop()
	handler := Recovery(logger)(func(c echo.Context) error {
		panic("boom")
	})
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %v", err)
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	c, _ := newTestContext()
	handler := Recovery(zerolog.Nop())(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogger_PropagatesError(t *testing.T) {
	c, _ := newTestContext()
	want := echo.NewHTTPError(http.StatusBadRequest, "bad")
	handler := Logger(zerolog.Nop())(func(c echo.Context) error {
		return want
	})
	if err := handler(c); err != want {
		t.Fatalf("expected handler error to propagate, got %v", err)
	}
}
