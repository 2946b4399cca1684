package status

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mixhost/pkg/log"
)

type fakeMixer struct {
	status map[string]any
}

func (f *fakeMixer) GetStatus() map[string]any {
	return f.status
}

func newTestServer() (*Server, *fakeMixer) {
	fm := &fakeMixer{status: map[string]any{
		"active_tool": 1,
		"collector":   []float64{2, 2},
	}}
	logger := log.New("test")
	logger.SetWriter(&bytes.Buffer{})
	return New(Config{Addr: ":0", Mixer: fm, Logger: logger}), fm
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/mixer/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	result := body["result"].(map[string]any)
	if result["active_tool"] != float64(1) {
		t.Errorf("active_tool = %v", result["active_tool"])
	}
}

func TestStatusRejectsPost(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/mixer/status", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestServerInfo(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/server/info", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	result := body["result"].(map[string]any)
	if result["state"] != "ready" {
		t.Errorf("state = %v", result["state"])
	}
}

func TestWebSocketNotify(t *testing.T) {
	s, fm := newTestServer()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Stop()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/websocket"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives on connect
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if msg["method"] != "notify_status_update" {
		t.Errorf("method = %v", msg["method"])
	}

	// A broadcast after state change reaches the subscriber
	fm.status["active_tool"] = 2
	s.NotifyStatusUpdate()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	params := msg["params"].([]any)
	st := params[0].(map[string]any)
	if st["active_tool"] != float64(2) {
		t.Errorf("active_tool = %v, want 2", st["active_tool"])
	}
}
