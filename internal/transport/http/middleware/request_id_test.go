package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-clock/internal/infra/logger"
)

func requestIDRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)

	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		if id, ok := c.Request.Context().Value(logger.RequestIDKey{}).(string); ok {
			seen = id
		}
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestRequestIDKeepsSuppliedID(t *testing.T) {
	router, seen := requestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "corr-42")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "corr-42" {
		t.Fatalf("response header = %q, want corr-42", got)
	}
	if *seen != "corr-42" {
		t.Fatalf("context id = %q, want corr-42", *seen)
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	router, seen := requestIDRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	got := rec.Header().Get("X-Request-ID")
	if got == "" {
		t.Fatal("middleware must generate an id when none is supplied")
	}
	if *seen != got {
		t.Fatalf("context id = %q, header id = %q, want them equal", *seen, got)
	}
}
