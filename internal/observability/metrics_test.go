package observability

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/viaduct/internal/protocol/frame"
	"github.com/danmuck/viaduct/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("viaduct-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordFrame("viaduct-a", DirectionIn, frame.KindData.String(), 128)
	RecordMessageFailure("viaduct-a")
	RecordHandshake("viaduct-a", nil)
	RecordHandshake("viaduct-a", errors.New("refused"))
}

func TestSessionObserverSnapshot(t *testing.T) {
	testlog.Start(t)
	o := NewSessionObserver("viaduct-b")
	o.FrameReceived(frame.KindData, 10)
	o.FrameReceived(frame.KindPing, 0)
	o.FrameSent(frame.KindPong, 0)
	o.MessageFailed(errors.New("protocol: truncated data"))
	o.Joined("realm1", 42)

	st := o.Snapshot()
	if st.FramesIn != 2 || st.FramesOut != 1 || st.Failures != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}
	if !st.Joined || st.SessionID != 42 || st.Realm != "realm1" || st.LastError == "" {
		t.Fatalf("unexpected status: %+v", st)
	}

	o.Left("wamp.close.system_shutdown")
	st = o.Snapshot()
	if st.Joined || st.LastError != "wamp.close.system_shutdown" {
		t.Fatalf("unexpected status after leave: %+v", st)
	}
}

func TestAdminRouterRoutes(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	o := NewSessionObserver("viaduct-c")
	o.Joined("realm1", 7)
	r := NewAdminRouter(AdminConfig{Node: "viaduct-c"}, zerolog.Nop(), o)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code=%d", rec.Code)
	}
	var st SessionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.SessionID != 7 || st.Node != "viaduct-c" {
		t.Fatalf("unexpected status body: %+v", st)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "viaduct_http_requests_total") {
		t.Fatalf("metrics missing admin counters: code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health code=%d", rec.Code)
	}
}

func TestAdminRouterRequiresToken(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	r := NewAdminRouter(AdminConfig{Node: "viaduct-d", Token: "s3cret"}, zerolog.Nop(), NewSessionObserver("viaduct-d"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health must stay open, got %d", rec.Code)
	}
}
