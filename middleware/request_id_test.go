package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())

	var got string
	router.GET("/", func(c *gin.Context) {
		got = RequestID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got == "" {
		t.Fatal("no request id assigned")
	}
	if header := w.Header().Get(RequestIDHeader); header != got {
		t.Errorf("response header %q does not match context id %q", header, got)
	}
}

func TestRequestIDPreservedFromCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "gateway-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if header := w.Header().Get(RequestIDHeader); header != "gateway-7" {
		t.Errorf("caller-supplied id not preserved: %q", header)
	}
}
