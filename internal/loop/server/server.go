// Package server bridges browser clients to matches over websockets. The
// browser runs the vision model and streams tracking points plus camera
// frames; each connection gets its own match controller and frame loop.
package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/nosecondbest/internal/highscore"
	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/object"
)

// Connection limits and keepalive.
const (
	ReadLimit      = 1 << 20 // Camera JPEGs fit comfortably
	PongWait       = 60 * time.Second
	PingPeriod     = 25 * time.Second
	WriteWait      = 10 * time.Second
	TrackingMaxAge = 500 * time.Millisecond // Older tracking counts as no points
	outboxSize     = 64
	prioritySize   = 16
)

// Options configures a Server.
type Options struct {
	Tuning config.Tuning
	Scores *highscore.Store // Nil keeps no high score
	Logger *log.Logger      // Nil discards
	// NewRand returns the random source for one session. Nil uses time-seeded
	// sources.
	NewRand func() object.Rand
}

// Server manages the active sessions.
type Server struct {
	opts     Options
	log      *log.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup
	closing  atomic.Bool
}

// NewServer creates a server with no sessions.
func NewServer(opts Options) *Server {
	if opts.Tuning.MaxLives == 0 {
		opts.Tuning = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		opts: opts,
		log:  logger,
		upgrader: websocket.Upgrader{
			// The page and the socket are served from the same host in
			// production; dev setups proxy from elsewhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP upgrades the request and runs a session until the socket
// closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.closing.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sess := newSession(s, conn)
	s.register(sess)
	defer s.unregister(sess)

	s.log.Info("session opened", "session", sess.id, "remote", r.RemoteAddr)
	if err := sess.Run(r.Context()); err != nil {
		s.log.Debug("session ended with error", "session", sess.id, "err", err)
	}
	s.log.Info("session closed", "session", sess.id)
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
	s.wg.Add(1)
}

func (s *Server) unregister(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.id]; ok {
		delete(s.sessions, sess.id)
		s.wg.Done()
	}
}

// Sessions returns the number of connected sessions.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown tells every session the server is going away, closes them and
// waits for their loops to exit, up to timeout.
func (s *Server) Shutdown(timeout time.Duration) {
	s.closing.Store(true)

	s.mu.RLock()
	for _, sess := range s.sessions {
		sess.Close("server shutting down")
	}
	s.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("sessions still open after shutdown timeout", "sessions", s.Sessions())
	}
}
