package live

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/cellui/pkg/dom"
	"github.com/vango-dev/cellui/pkg/middleware"
	"github.com/vango-dev/cellui/pkg/reactive"
)

type counter struct {
	Count *reactive.Cell[int]
}

var counterView = &reactive.Component[counter]{
	Name: "counter",
	Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
		return reactive.Tag[counter]("div").Child(
			reactive.Tag[counter]("button").ID("inc").Text("+").OnClick(func(e *reactive.EventCtx[counter]) {
				e.State().Count.Update(func(n int) int { return n + 1 })
			}),
			reactive.Tag[counter]("button").ID("boom").OnClick(func(e *reactive.EventCtx[counter]) {
				panic("boom")
			}),
			reactive.Tag[counter]("span").ID("count").Child(
				reactive.TextFunc(func(r *reactive.RenderCtx[counter]) string {
					return strconv.Itoa(r.State().Count.Get())
				}),
			),
		)
	},
}

func counterApp() App {
	return Root(counterView, func() *counter { return &counter{Count: reactive.NewCell(0)} })
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T, config *Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	srv := New(counterApp(), config, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, ts
}

// client is a test peer that mirrors the server document from frames.
type client struct {
	t     *testing.T
	conn  *websocket.Conn
	mem   *dom.Memory
	nodes map[uint64]dom.Node
	ids   map[string]uint64
}

func dial(t *testing.T, ts *httptest.Server) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	mem, nodes := newReplica()
	return &client{t: t, conn: conn, mem: mem, nodes: nodes, ids: make(map[string]uint64)}
}

func (c *client) read() *Frame {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		c.t.Fatalf("read frame: %v", err)
	}
	f, err := DecodeFrame(msg)
	if err != nil {
		c.t.Fatalf("decode frame: %v", err)
	}
	replay(c.t, c.mem, c.nodes, f.Ops)
	for _, op := range f.Ops {
		if op.Kind == OpSetAttr && op.Name == "id" {
			c.ids[op.Value] = op.Node
		}
	}
	return f
}

func (c *client) send(ev *EventFrame) {
	c.t.Helper()
	data, err := EncodeEvent(ev)
	if err != nil {
		c.t.Fatal(err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		c.t.Fatalf("write event: %v", err)
	}
}

func (c *client) click(id string) {
	c.t.Helper()
	node, ok := c.ids[id]
	if !ok {
		c.t.Fatalf("no node with id %q", id)
	}
	c.send(&EventFrame{Node: node, Kind: "click"})
}

func TestSessionStreamsTurns(t *testing.T) {
	_, ts := startServer(t, &Config{Mode: reactive.Development})
	c := dial(t, ts)

	first := c.read()
	if first.Seq != 0 {
		t.Errorf("first frame seq = %d, want 0", first.Seq)
	}
	if !strings.Contains(first.HTML, `<span id="count">0</span>`) {
		t.Fatalf("snapshot HTML = %q", first.HTML)
	}
	if got := c.mem.HTML(); got != first.HTML {
		t.Fatalf("replayed snapshot %q, want %q", got, first.HTML)
	}

	c.click("inc")
	f := c.read()
	if f.Seq != 1 {
		t.Errorf("seq = %d, want 1", f.Seq)
	}
	if len(f.Ops) != 1 || f.Ops[0].Kind != OpSetText || f.Ops[0].Value != "1" {
		t.Errorf("ops = %+v, want a single SetText", f.Ops)
	}

	// Garbage and events for unknown nodes are skipped without a frame.
	if err := c.conn.WriteMessage(websocket.BinaryMessage, []byte{0xc1}); err != nil {
		t.Fatal(err)
	}
	c.send(&EventFrame{Node: 99999, Kind: "click"})
	c.click("inc")
	f = c.read()
	if f.Seq != 2 {
		t.Errorf("seq = %d, want 2", f.Seq)
	}
	if !strings.Contains(c.mem.HTML(), `<span id="count">2</span>`) {
		t.Errorf("replica = %q", c.mem.HTML())
	}
}

func TestSessionReportsPanic(t *testing.T) {
	_, ts := startServer(t, &Config{Mode: reactive.Release})
	c := dial(t, ts)
	c.read()

	c.click("boom")
	f := c.read()
	if f.Error != reactive.ReleasePanicMessage {
		t.Errorf("error = %q, want %q", f.Error, reactive.ReleasePanicMessage)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	srv, ts := startServer(t, nil)
	a := dial(t, ts)
	b := dial(t, ts)
	a.read()
	b.read()

	a.click("inc")
	a.read()
	if !strings.Contains(a.mem.HTML(), `<span id="count">1</span>`) {
		t.Errorf("a = %q", a.mem.HTML())
	}
	if !strings.Contains(b.mem.HTML(), `<span id="count">0</span>`) {
		t.Errorf("b = %q", b.mem.HTML())
	}
	if n := srv.Sessions(); n != 2 {
		t.Errorf("Sessions() = %d, want 2", n)
	}

	a.conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for srv.Sessions() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Sessions() = %d after disconnect, want 1", srv.Sessions())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	srv, ts := startServer(t, nil)
	c := dial(t, ts)
	c.read()

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := c.conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected a normal close, got %v", err)
	}
}

func TestCrossOriginRejected(t *testing.T) {
	_, ts := startServer(t, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected the upgrade to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}

func TestCheckOrigin(t *testing.T) {
	cfg := &Config{AllowedOrigins: []string{"https://app.example"}}
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"https://app.example", true},
		{"https://evil.example", false},
		{"::", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://localhost:3000/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := cfg.checkOrigin(r); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	wildcard := &Config{AllowedOrigins: []string{"*"}}
	r := httptest.NewRequest(http.MethodGet, "http://localhost:3000/ws", nil)
	r.Header.Set("Origin", "https://evil.example")
	if !wildcard.checkOrigin(r) {
		t.Error("* should accept every origin")
	}
}

func TestPageAndHealth(t *testing.T) {
	_, ts := startServer(t, &Config{Title: "Counter <demo>"})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	page := string(body)
	if !strings.Contains(page, `<span id="count">0</span>`) {
		t.Errorf("page missing rendered body: %s", page)
	}
	if !strings.Contains(page, "<title>Counter &lt;demo&gt;</title>") {
		t.Errorf("page title not escaped: %s", page)
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middleware.NewMetrics(middleware.WithRegistry(reg))
	_, ts := startServer(t, nil, WithMetrics(m, reg), WithTracing())
	c := dial(t, ts)
	c.read()

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if g := metric.GetGauge(); g != nil {
				values[mf.GetName()] += g.GetValue()
			}
			if ctr := metric.GetCounter(); ctr != nil {
				values[mf.GetName()] += ctr.GetValue()
			}
		}
	}
	if values["cellui_active_sessions"] != 1 {
		t.Errorf("active sessions = %v, want 1", values["cellui_active_sessions"])
	}
	if values["cellui_frames_sent_total"] < 1 {
		t.Errorf("frames sent = %v, want at least 1", values["cellui_frames_sent_total"])
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "cellui_turns_total") {
		t.Errorf("metrics output missing turns: %s", body)
	}
}

func TestRender(t *testing.T) {
	html, err := Render(context.Background(), counterApp(), "app", reactive.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(html, `<span id="count">0</span>`) {
		t.Errorf("html = %q", html)
	}

	broken := Root(&reactive.Component[counter]{
		Name: "broken",
		Render: func(r *reactive.RenderCtx[counter]) reactive.Element {
			panic("render failed")
		},
	}, func() *counter { return &counter{Count: reactive.NewCell(0)} })
	_, err = Render(context.Background(), broken, "app",
		reactive.WithMode(reactive.Release), reactive.WithLogger(quietLogger()))
	if !errors.Is(err, reactive.ErrFrozen) {
		t.Errorf("expected ErrFrozen, got %v", err)
	}
}
