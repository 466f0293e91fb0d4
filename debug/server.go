// Package debug publishes renderer state to websocket clients and
// receives their commands.
//
// Clients send plain text commands such as "fetch_passes" or
// "enable_profiler". The server answers by publishing JSON documents
// whose "kind" field names their type. The latest document of each
// kind is pushed to a client when it connects.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// DefaultAddr is the address the server listens on by default.
const DefaultAddr = "127.0.0.1:3583"

// ErrClosed is returned after the server has been closed.
var ErrClosed = errors.New("debug: server closed")

// Command is a client request.
type Command string

const (
	FetchPasses              Command = "fetch_passes"
	FetchDocuments           Command = "fetch_documents"
	FetchClipScrollTree      Command = "fetch_clipscrolltree"
	FetchBatches             Command = "fetch_batches"
	EnableProfiler           Command = "enable_profiler"
	DisableProfiler          Command = "disable_profiler"
	EnableTextureCacheDebug  Command = "enable_texture_cache_debug"
	DisableTextureCacheDebug Command = "disable_texture_cache_debug"
	EnableRenderTargetDebug  Command = "enable_render_target_debug"
	DisableRenderTargetDebug Command = "disable_render_target_debug"
)

var commands = map[Command]bool{
	FetchPasses: true, FetchDocuments: true, FetchClipScrollTree: true, FetchBatches: true,
	EnableProfiler: true, DisableProfiler: true,
	EnableTextureCacheDebug: true, DisableTextureCacheDebug: true,
	EnableRenderTargetDebug: true, DisableRenderTargetDebug: true,
}

// ParseCommand returns the command named s.
func ParseCommand(s string) (Command, bool) {
	c := Command(s)
	return c, commands[c]
}

// Flags is the state toggled by client commands.
type Flags struct {
	Profiler          bool
	TextureCacheDebug bool
	RenderTargetDebug bool
}

// apply updates f for a toggle command and reports whether c was one.
func (f *Flags) apply(c Command) bool {
	switch c {
	case EnableProfiler, DisableProfiler:
		f.Profiler = c == EnableProfiler
	case EnableTextureCacheDebug, DisableTextureCacheDebug:
		f.TextureCacheDebug = c == EnableTextureCacheDebug
	case EnableRenderTargetDebug, DisableRenderTargetDebug:
		f.RenderTargetDebug = c == EnableRenderTargetDebug
	default:
		return false
	}
	return true
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Server is a websocket debug endpoint. It implements http.Handler, so
// it can be mounted on an existing mux or run on its own with
// ListenAndServe.
type Server struct {
	upgrader websocket.Upgrader
	cmds     chan Command

	mu      sync.Mutex
	clients map[*client]struct{}
	state   map[string][]byte
	flags   Flags
	http    *http.Server
	closed  bool
}

// NewServer returns a server. Commands that are not toggles are queued
// on Commands, up to queue pending ones.
func NewServer(queue int) *Server {
	return &Server{
		cmds:    make(chan Command, max(queue, 1)),
		clients: make(map[*client]struct{}),
		state:   make(map[string][]byte),
	}
}

// Commands delivers fetch requests from clients.
func (s *Server) Commands() <-chan Command { return s.cmds }

// Flags returns the current toggles.
func (s *Server) Flags() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ListenAndServe listens on addr and serves until Close. An empty addr
// means DefaultAddr.
func (s *Server) ListenAndServe(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("debug: unable to bind %s: %w", addr, err)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrClosed
	}
	s.http = &http.Server{Handler: s}
	srv := s.http
	s.mu.Unlock()

	slogger().Info("debug: listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP upgrades the request to a websocket connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slogger().Warn("debug: upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	state := maps.Clone(s.state)
	s.mu.Unlock()

	for _, kind := range []string{"passes", "documents", "clipscrolltree", "batches"} {
		if msg, ok := state[kind]; ok {
			if err := c.send(msg); err != nil {
				s.drop(c)
				return
			}
		}
	}
	s.read(c)
}

func (s *Server) read(c *client) {
	defer s.drop(c)
	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		cmd, ok := ParseCommand(string(msg))
		if !ok {
			slogger().Warn("debug: unknown command", "msg", string(msg))
			continue
		}
		s.mu.Lock()
		toggled := s.flags.apply(cmd)
		s.mu.Unlock()
		if toggled {
			continue
		}
		select {
		case s.cmds <- cmd:
		default:
			slogger().Warn("debug: command queue full", "cmd", string(cmd))
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Publish sends m to every client and keeps it as the state pushed to
// clients that connect later. Clients that fail to receive it are
// disconnected.
func (s *Server) Publish(m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("debug: encode %s: %w", m.MessageKind(), err)
	}
	// Every document carries its kind next to its own fields.
	kind, _ := json.Marshal(m.MessageKind())
	msg := make([]byte, 0, len(body)+len(kind)+10)
	msg = append(msg, `{"kind":`...)
	msg = append(msg, kind...)
	if len(body) > 2 {
		msg = append(msg, ',')
	}
	msg = append(msg, body[1:]...)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.state[m.MessageKind()] = msg
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			slogger().Debug("debug: client disconnected", "err", err)
			s.drop(c)
		}
	}
	return nil
}

// Close disconnects all clients and stops ListenAndServe.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clients := s.clients
	s.clients = make(map[*client]struct{})
	srv := s.http
	s.mu.Unlock()

	for c := range clients {
		c.conn.Close()
	}
	if srv != nil {
		return srv.Shutdown(context.Background())
	}
	return nil
}
