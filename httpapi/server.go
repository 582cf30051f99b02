// Package httpapi exposes a recordsync Engine over HTTP and pushes store
// commits to WebSocket clients.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/reoring/recordsync"
)

// MessageType is the kind of a WebSocket push.
type MessageType string

const (
	// MessageTypeRecords carries the committed collection.
	MessageTypeRecords MessageType = "records"
	// MessageTypeHighlight carries the editor highlight state.
	MessageTypeHighlight MessageType = "highlight"
)

// Message is one WebSocket push.
type Message struct {
	Type      MessageType           `json:"type"`
	Timestamp time.Time             `json:"timestamp"`
	Records   recordsync.Collection `json:"records"`
	Highlight *recordsync.Highlight `json:"highlight,omitempty"`
}

// Config holds server configuration.
type Config struct {
	// Addr to listen on (default ":8080"; use "127.0.0.1:0" for a free port).
	Addr string
	// MaxBodyBytes limits request bodies (default 1 MiB).
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Server serves the REST routes and the /ws push channel.
type Server struct {
	addr     string
	maxBody  int64
	engine   *recordsync.Engine
	listener net.Listener
	server   *http.Server
	log      *slog.Logger

	clients   map[*websocket.Conn]string
	clientsMu sync.RWMutex

	// broadcast carries pushes and client joins in one queue so a joining
	// client's snapshot and the commits after it stay in order.
	broadcast chan outbound

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
}

// outbound is a push to every client, or a client join when join is set.
type outbound struct {
	msg  Message
	join *websocket.Conn
	id   string
}

// NewServer binds a server to engine. Nothing listens until Start.
func NewServer(engine *recordsync.Engine, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      cfg.Addr,
		maxBody:   cfg.MaxBodyBytes,
		engine:    engine,
		log:       cfg.Logger,
		clients:   make(map[*websocket.Conn]string),
		broadcast: make(chan outbound, 100),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/records", s.handleGetRecords)
	mux.Handle("PUT /api/records", DecodeCollection(s.engine.Validate, s.maxBody, http.HandlerFunc(s.handleReplaceRecords)))
	mux.HandleFunc("POST /api/records", s.handleAddRecord)
	mux.HandleFunc("GET /api/text", s.handleGetText)
	mux.HandleFunc("PUT /api/text", s.handleApplyText)
	mux.HandleFunc("POST /api/text/reset", s.handleReset)
	mux.HandleFunc("GET /api/diagnostic", s.handleDiagnostic)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start listens on the configured address and begins pushing commits.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.unsubscribe = s.engine.Store().Subscribe(func(c recordsync.Collection) {
		s.Broadcast(Message{Type: MessageTypeRecords, Records: c})
	})

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", "error", err)
		}
	}()
	return nil
}

// Stop closes every client and shuts the server down gracefully.
func (s *Server) Stop() error {
	s.log.Info("stopping server")
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}
	s.wg.Wait()
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast queues msg for every client. It never blocks; a full queue
// drops the message.
func (s *Server) Broadcast(msg Message) {
	select {
	case <-s.ctx.Done():
	case s.broadcast <- outbound{msg: msg}:
	default:
		s.log.Warn("broadcast queue full, dropping message", "type", msg.Type)
	}
}

// NotifyHighlight pushes a highlight change. Pass it to
// recordsync.WithHighlightFunc.
func (s *Server) NotifyHighlight(h recordsync.Highlight) {
	s.Broadcast(Message{Type: MessageTypeHighlight, Highlight: &h})
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case out := <-s.broadcast:
			if out.join != nil {
				s.join(out.join, out.id)
				continue
			}
			msg := out.msg
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			data, err := gojson.Marshal(msg)
			if err != nil {
				s.log.Error("marshal message", "error", err)
				continue
			}
			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range clients {
				if err := s.write(conn, data); err != nil {
					s.log.Debug("send failed", "error", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	select {
	case s.broadcast <- outbound{join: conn, id: uuid.NewString()}:
	case <-s.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	go s.readLoop(conn)
}

// join sends the current collection to conn and registers it. It runs on
// the broadcast loop: commits queued before the join are already part of
// the snapshot, and every later commit reaches the new client.
func (s *Server) join(conn *websocket.Conn, id string) {
	welcome, err := gojson.Marshal(Message{
		Type:      MessageTypeRecords,
		Timestamp: time.Now(),
		Records:   s.engine.Store().Data(),
	})
	if err == nil {
		err = s.write(conn, welcome)
	}
	if err != nil {
		s.log.Debug("welcome failed", "client", id, "error", err)
		_ = conn.Close(websocket.StatusInternalError, "")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = id
	n := len(s.clients)
	s.clientsMu.Unlock()
	s.log.Info("client connected", "client", id, "total", n)
}

// readLoop only detects disconnects; clients never send anything useful.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)
	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	id, ok := s.clients[conn]
	if !ok {
		s.clientsMu.Unlock()
		return
	}
	delete(s.clients, conn)
	n := len(s.clients)
	s.clientsMu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	s.log.Info("client disconnected", "client", id, "total", n)
}

type textState struct {
	Text       string                 `json:"text"`
	Diagnostic *recordsync.Diagnostic `json:"diagnostic"`
	Highlight  recordsync.Highlight   `json:"highlight"`
}

func (s *Server) state() textState {
	return textState{
		Text:       s.engine.Text(),
		Diagnostic: s.engine.Diagnostic(),
		Highlight:  s.engine.Highlight(),
	}
}

func (s *Server) handleGetRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"records": s.engine.Store().Data()})
}

func (s *Server) handleReplaceRecords(w http.ResponseWriter, r *http.Request) {
	c, _ := CollectionFromContext(r.Context())
	if err := s.engine.Replace(c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": c})
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	text, err := readBody(w, r, s.maxBody)
	if err != nil {
		writeError(w, err)
		return
	}
	// A single record is validated as a one-element collection so it gets
	// the same diagnostics as text.
	c, err := s.engine.Validate("[" + strings.TrimSpace(text) + "]")
	if err == nil && len(c) != 1 {
		err = fmt.Errorf("expected exactly one record, got %d", len(c))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.AddItem(c[0]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c[0])
}

func (s *Server) handleGetText(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleApplyText(w http.ResponseWriter, r *http.Request) {
	text, err := readBody(w, r, s.maxBody)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.engine.ApplyText(text); err != nil {
		writeJSON(w, StatusFor(err), s.state())
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.engine.Reset()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleDiagnostic(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"diagnostic": s.engine.Diagnostic()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
		"records": s.engine.Store().Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(v)
}
