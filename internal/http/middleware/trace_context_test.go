package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cytorepo-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/ping", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(headerRequestID, "worker-7.poll-42")
	req.Header.Set(headerTraceID, "abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen == nil || seen.RequestID != "worker-7.poll-42" || seen.TraceID != "abc123" {
		t.Fatalf("client ids not kept: %+v", seen)
	}
	if w.Header().Get(headerRequestID) != "worker-7.poll-42" {
		t.Fatalf("request id not echoed: %q", w.Header().Get(headerRequestID))
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(headerRequestID, "bad\nid")
	req.Header.Set(headerTraceID, strings.Repeat("a", maxClientIDLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if seen.RequestID == "bad\nid" || seen.RequestID == "" {
		t.Fatalf("unsafe request id kept: %q", seen.RequestID)
	}
	if len(seen.TraceID) > maxClientIDLen {
		t.Fatalf("oversized trace id kept")
	}
}
