package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounter(t *testing.T) {
	c := NewCounter("test_total", "test counter")
	c.Inc(nil)
	c.Add(nil, 2)
	c.Inc(Labels{"command": "M164"})

	if got := c.Get(nil); got != 3 {
		t.Errorf("unlabeled counter = %d, want 3", got)
	}
	if got := c.Get(Labels{"command": "M164"}); got != 1 {
		t.Errorf("labeled counter = %d, want 1", got)
	}
	if got := c.Get(Labels{"command": "M165"}); got != 0 {
		t.Errorf("missing label set = %d, want 0", got)
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("test_gauge", "test gauge")
	g.Set(nil, 3)
	if got := g.Get(nil); got != 3 {
		t.Errorf("gauge = %v, want 3", got)
	}
	g.Set(nil, 1.5)
	if got := g.Get(nil); got != 1.5 {
		t.Errorf("gauge = %v, want 1.5", got)
	}
}

func TestRegistryGather(t *testing.T) {
	r := NewRegistry()
	c := NewCounter("commits_total", "commits")
	g := NewGauge("active_tool", "tool index")
	r.MustRegister(c)
	r.MustRegister(g)

	c.Inc(Labels{"command": "M164"})
	g.Set(nil, 2)

	out := r.Gather()
	for _, want := range []string{
		"# HELP commits_total commits",
		"# TYPE commits_total counter",
		`commits_total{command="M164"} 1`,
		"# TYPE active_tool gauge",
		"active_tool 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("gather output missing %q:\n%s", want, out)
		}
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewCounter("dup", "first"))
	if err := r.Register(NewCounter("dup", "second")); err == nil {
		t.Error("no error on duplicate registration")
	}
}

func TestMixerMetrics(t *testing.T) {
	mm := NewMixerMetrics()
	mm.CommandProcessed("M163")
	mm.CommandProcessed("M163")
	mm.Commit()
	mm.RejectedCommit()
	mm.ToolSelected(3)
	mm.UnknownCommand()

	if got := mm.CommandsTotal.Get(Labels{"command": "M163"}); got != 2 {
		t.Errorf("commands = %d, want 2", got)
	}
	if got := mm.CommitsTotal.Get(nil); got != 1 {
		t.Errorf("commits = %d, want 1", got)
	}
	if got := mm.RejectedCommits.Get(nil); got != 1 {
		t.Errorf("rejected = %d, want 1", got)
	}
	if got := mm.ActiveToolGauge.Get(nil); got != 3 {
		t.Errorf("active tool = %v, want 3", got)
	}
	if got := mm.UnknownCommands.Get(nil); got != 1 {
		t.Errorf("unknown = %d, want 1", got)
	}
}

func TestServerEndpoints(t *testing.T) {
	mm := NewMixerMetrics()
	mm.Commit()
	s := NewServer(mm, ":0")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mixhost_commits_total 1") {
		t.Errorf("metrics body missing commit counter:\n%s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/metrics", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}
