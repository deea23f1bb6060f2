// Package display serves the active view to browsers.
//
// The index page draws the stream on a canvas. Color and depth frames are
// pushed over the websocket as binary JPEG messages; skeleton scenes are
// pushed as JSON so the browser can draw them at any size. Mode changes are
// announced with a JSON "mode" message.
package display

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/haivivi/bodyview/pkg/compositor"
	"github.com/haivivi/bodyview/pkg/view"
)

//go:embed templates/*
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	defaultInterval = 100 * time.Millisecond
	writeTimeout    = 5 * time.Second
)

// Config holds configuration for a Server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Events receives events posted to /api/event. When nil they are
	// applied to the selector directly.
	Events chan<- view.Event

	// Interval is the push period for frames (defaults to 100ms).
	Interval time.Duration

	// Quality is the JPEG quality (defaults to DefaultJPEGQuality).
	Quality int
}

// Server streams compositor artifacts to websocket clients.
type Server struct {
	comp     *compositor.Compositor
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

// NewServer creates a Server for comp.
func NewServer(comp *compositor.Compositor, cfg Config) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Server{
		comp: comp,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/view", s.handleView)
	mux.HandleFunc("/api/event", s.handleEvent)
	return mux
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("display: listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return fmt.Errorf("display: serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("display: shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct{ Width, Height int }{640, 480}
	if err := tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.comp.Stats())
}

// handleView returns the selector state on GET and selects a mode on POST
// with a body like {"mode":"depth"}.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sel := s.comp.Selector()
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req struct {
			Mode view.Mode `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := sel.Select(req.Mode); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, sel.State())
}

// handleEvent injects an event given as a view.Envelope, e.g.
// {"type":"gesture","pld":{"name":"Circle"}}.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var env view.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.cfg.Events == nil {
		if err := s.comp.Selector().Apply(env.Payload); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, s.comp.Selector().State())
		return
	}
	select {
	case s.cfg.Events <- env.Payload:
		w.WriteHeader(http.StatusAccepted)
	case <-r.Context().Done():
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("display: encode response", "error", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("display: upgrade", "error", err)
		return
	}
	c := &client{
		id:    uuid.NewString(),
		ws:    ws,
		modes: make(chan view.State, 1),
	}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	unsubscribe := s.comp.Selector().Subscribe(c.notify)

	defer func() {
		unsubscribe()
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		ws.Close()
		slog.Debug("display: client left", "id", c.id)
	}()
	slog.Debug("display: client joined", "id", c.id, "remote", r.RemoteAddr)

	// The read loop only detects the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := c.serve(r.Context(), s, closed); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.Debug("display: client write", "id", c.id, "error", err)
	}
}

type client struct {
	id    string
	ws    *websocket.Conn
	modes chan view.State
}

// notify keeps only the latest state; it runs on the selector's goroutine
// and must not block.
func (c *client) notify(st view.State) {
	for {
		select {
		case c.modes <- st:
			return
		default:
		}
		select {
		case <-c.modes:
		default:
		}
	}
}

func (c *client) serve(ctx context.Context, s *Server, closed <-chan struct{}) error {
	hello, err := helloMessage(c.id, s.comp.Selector().State())
	if err != nil {
		return err
	}
	if err := c.write(websocket.TextMessage, hello); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	var (
		lastMode    view.Mode = -1
		lastVersion uint64
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-closed:
			return nil
		case st := <-c.modes:
			b, err := modeMessage(st)
			if err != nil {
				return err
			}
			if err := c.write(websocket.TextMessage, b); err != nil {
				return err
			}
		case <-ticker.C:
			art := s.comp.Current()
			if !art.Ready() || (art.Mode == lastMode && art.Version == lastVersion) {
				continue
			}
			lastMode, lastVersion = art.Mode, art.Version
			if err := c.push(art, s.cfg.Quality); err != nil {
				return err
			}
		}
	}
}

func (c *client) push(art compositor.Artifact, quality int) error {
	if art.Scene != nil {
		b, err := sceneMessage(art.Scene)
		if err != nil {
			return err
		}
		return c.write(websocket.TextMessage, b)
	}
	b, err := EncodeJPEG(art.Image(), quality)
	if err != nil {
		return err
	}
	return c.write(websocket.BinaryMessage, b)
}

func (c *client) write(typ int, b []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(typ, b)
}
