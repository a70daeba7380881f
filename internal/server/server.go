// Package server provides the HTTP server lifecycle management for flowboard.
package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/airyra/flowboard/internal/api"
	"github.com/airyra/flowboard/internal/events"
	"github.com/airyra/flowboard/internal/store"
)

const (
	// DefaultAddress is the default address the server listens on.
	DefaultAddress = "localhost:7433"
	// DefaultShutdownTimeout is the default timeout for graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Server manages the HTTP server and the board event hub.
type Server struct {
	httpServer *http.Server
	manager    *store.Manager
	hub        *events.Hub
	logger     *log.Logger
	listener   net.Listener
	addr       string
	stopHub    context.CancelFunc
	mu         sync.Mutex
	started    bool
}

// New creates a new Server instance.
// If addr is empty, DefaultAddress will be used. opts.Hub is created when
// nil so every server streams board events.
func New(addr string, manager *store.Manager, opts api.Options) *Server {
	if addr == "" {
		addr = DefaultAddress
	}

	logger := log.New(os.Stdout, "[flowboard] ", log.LstdFlags)
	if opts.Hub == nil {
		opts.Hub = events.NewHub(logger)
	}
	if opts.Service.Logger == nil {
		opts.Service.Logger = logger
	}

	router := api.NewRouter(manager, opts)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		manager: manager,
		hub:     opts.Hub,
		logger:  logger,
		addr:    addr,
	}
}

// Start starts the HTTP server and blocks until the server is shut down.
// It returns http.ErrServerClosed when the server is gracefully shut down.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}

	// Create listener first so we know the actual address (for port 0 case)
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go s.hub.Run(ctx)

	s.listener = ln
	s.stopHub = cancel
	s.started = true
	s.mu.Unlock()

	s.logger.Printf("Server listening on %s", ln.Addr().String())

	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server without interrupting active
// requests. Event stream clients are disconnected.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	stopHub := s.stopHub
	s.mu.Unlock()

	s.logger.Println("Shutting down server...")

	// Websocket connections are hijacked and not tracked by http.Server
	stopHub()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	if err := s.manager.Close(); err != nil {
		s.logger.Printf("Warning: error closing database manager: %v", err)
	}

	s.logger.Println("Server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// ConfiguredAddr returns the address the server was asked to listen on.
func (s *Server) ConfiguredAddr() string {
	return s.addr
}

// Hub returns the server's event hub.
func (s *Server) Hub() *events.Hub {
	return s.hub
}

// ListenAndServe starts the server with signal handling for graceful shutdown.
// It handles SIGINT and SIGTERM signals.
func (s *Server) ListenAndServe() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		s.logger.Printf("Received signal: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	return s.Shutdown(ctx)
}
