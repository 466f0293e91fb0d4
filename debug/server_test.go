package debug

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var v map[string]any
	if err := json.Unmarshal(msg, &v); err != nil {
		t.Fatalf("message %s is not JSON: %v", msg, err)
	}
	return v
}

func waitCommand(t *testing.T, s *Server) Command {
	t.Helper()
	select {
	case c := <-s.Commands():
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no command received")
		return ""
	}
}

func TestParseCommand(t *testing.T) {
	if c, ok := ParseCommand("fetch_clipscrolltree"); !ok || c != FetchClipScrollTree {
		t.Errorf("ParseCommand(fetch_clipscrolltree) = %q, %v", c, ok)
	}
	if _, ok := ParseCommand("reboot"); ok {
		t.Error("ParseCommand(reboot) accepted")
	}
}

func TestStatePushedOnConnect(t *testing.T) {
	s := NewServer(4)
	defer s.Close()

	var target Target
	target.Add(BatchAlpha, "brush_solid", 3)
	target.Add(BatchOpaque, "brush_image", 0)
	target.Kind = "color"
	if err := s.Publish(PassList{Passes: []Pass{{Targets: []Target{target}}}}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	conn := dial(t, s)
	v := readJSON(t, conn)
	if v["kind"] != "passes" {
		t.Fatalf("kind = %v, want passes", v["kind"])
	}
	passes := v["passes"].([]any)
	targets := passes[0].(map[string]any)["targets"].([]any)
	batches := targets[0].(map[string]any)["batches"].([]any)
	if len(batches) != 1 {
		t.Fatalf("batches = %v, want only the non-empty one", batches)
	}
	b := batches[0].(map[string]any)
	if b["kind"] != "Alpha" || b["description"] != "brush_solid" || b["count"] != float64(3) {
		t.Errorf("batch = %v", b)
	}
}

func TestCommands(t *testing.T) {
	s := NewServer(4)
	defer s.Close()
	conn := dial(t, s)

	for _, msg := range []string{"enable_profiler", "bogus", "enable_render_target_debug", "fetch_documents"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("WriteMessage(%s) error = %v", msg, err)
		}
	}
	if c := waitCommand(t, s); c != FetchDocuments {
		t.Errorf("command = %q, want fetch_documents", c)
	}
	f := s.Flags()
	if !f.Profiler || !f.RenderTargetDebug || f.TextureCacheDebug {
		t.Errorf("Flags() = %+v", f)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("disable_profiler")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("fetch_batches")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	waitCommand(t, s)
	if s.Flags().Profiler {
		t.Error("profiler still enabled")
	}
}

func TestPublishBroadcasts(t *testing.T) {
	s := NewServer(4)
	defer s.Close()
	conn := dial(t, s)

	// A round trip through the command queue guarantees the client is
	// registered.
	conn.WriteMessage(websocket.TextMessage, []byte("fetch_documents"))
	waitCommand(t, s)

	root := NewTreeNode("root")
	doc := NewTreeNode("document 1")
	doc.AddItem("pipeline 0")
	root.AddChild(doc)
	if err := s.Publish(DocumentList{Root: root}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	v := readJSON(t, conn)
	if v["kind"] != "documents" {
		t.Fatalf("kind = %v, want documents", v["kind"])
	}
	r := v["root"].(map[string]any)
	children := r["children"].([]any)
	if len(children) != 1 || children[0].(map[string]any)["description"] != "document 1" {
		t.Errorf("root = %v", r)
	}
}

func TestPublishAfterClose(t *testing.T) {
	s := NewServer(1)
	s.Close()
	if err := s.Publish(BatchList{}); err != ErrClosed {
		t.Errorf("Publish() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
