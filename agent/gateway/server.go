package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/travelai/agent/contract"
	statex "github.com/tanpawarit/travelai/agent/state"
)

const maxSessionToken = 128

// TurnProcessor runs one inbound user message against a session.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, sessionID string, text string) (contractx.TurnResult, error)
}

// SessionRegistry attaches and detaches connections to sessions.
type SessionRegistry interface {
	Open(sessionID string) (*statex.Session, bool, error)
	Detach(sessionID string)
}

// Server is the websocket session gateway plus its small HTTP surface.
type Server struct {
	cfg      Config
	turns    TurnProcessor
	sessions SessionRegistry

	http *http.Server

	// ctx outlives individual requests; hijacked connections derive from it.
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func New(cfg Config, turns TurnProcessor, sessions SessionRegistry) (*Server, error) {
	if turns == nil {
		return nil, errors.New("turn processor is required")
	}
	if sessions == nil {
		return nil, errors.New("session registry is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg.withDefaults(),
		turns:    turns,
		sessions: sessions,
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed HTTP surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.With(httprate.Limit(
		s.cfg.UpgradeLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)).Get("/ws", s.handleUpgrade)

	if s.cfg.StaticDir != "" {
		r.Get("/", s.handleIndex)
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))
	}
	return r
}

// ListenAndServe blocks until Shutdown. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("gateway listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting, cancels in-flight turns, closes every websocket
// and waits for their handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.cancel()

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.StaticDir, "index.html")
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if len(sessionID) > maxSessionToken {
		http.Error(w, "session token too long", http.StatusBadRequest)
		return
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if s.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	_, created, err := s.sessions.Open(sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("open session failed")
		_ = conn.Close()
		return
	}
	defer s.sessions.Detach(sessionID)

	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	log.Info().
		Str("session_id", sessionID).
		Bool("resumed", !created).
		Str("remote", r.RemoteAddr).
		Msg("session connected")

	newConnection(s.ctx, conn, sessionID, s.cfg, s.turns).serve()

	log.Info().Str("session_id", sessionID).Msg("session disconnected")
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = c.Close()
	s.wg.Done()
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
