package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	actx "go.hackfix.me/modelvault/app/context"
	"go.hackfix.me/modelvault/content"
	"go.hackfix.me/modelvault/vault"
	"go.hackfix.me/modelvault/web/server/handler"
	"go.hackfix.me/modelvault/web/server/router"
)

// DefaultAddress is the address the server listens on if none is configured.
const DefaultAddress = ":8080"

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

type state int

const (
	stateStopped state = iota
	stateStarting
	stateRunning
	stateStopping
)

func (s state) String() string {
	switch s {
	case stateStopped:
		return "stopped"
	case stateStarting:
		return "starting"
	case stateRunning:
		return "running"
	case stateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Server.
type Options struct {
	// Address is the network address in [host]:port format the server will
	// listen on. Port 0 selects a free port, which Addr reports after Start.
	Address string
	// Vault is the directory tree that is served. Required.
	Vault *vault.Vault
	// Repository provides the metadata shown in directory listings. Optional.
	Repository content.Repository
	// MetadataKey selects how directories map to repository folder keys.
	MetadataKey content.KeyMode
	// MaxConnections is the maximum number of connections served concurrently.
	// 0 means unbounded.
	MaxConnections int
	// ReadTimeout bounds the time to receive the request line. 0 means no limit.
	ReadTimeout time.Duration
	// WriteTimeout bounds the time to write the whole response. 0 means no limit.
	WriteTimeout time.Duration
	// CopyBufferSize is the size of the buffer used to send file contents.
	CopyBufferSize int
}

// Server serves the contents of a vault over plain HTTP/1.x. Every connection
// carries a single request, and is closed once the response is written.
type Server struct {
	opts     Options
	ctx      context.Context
	logger   *slog.Logger
	handler  router.Handler
	notFound router.Handler

	mu    sync.Mutex
	state state
	ln    net.Listener
}

// New returns a new stopped Server.
func New(appCtx *actx.Context, opts Options) (*Server, error) {
	if opts.Vault == nil {
		return nil, errors.New("vault must be set")
	}
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}
	if opts.MetadataKey == "" {
		opts.MetadataKey = content.KeyLeaf
	}
	if opts.CopyBufferSize <= 0 {
		opts.CopyBufferSize = handler.DefaultCopyBufferSize
	}
	if opts.MaxConnections < 0 {
		return nil, fmt.Errorf("invalid max connections %d: must be 0 or greater", opts.MaxConnections)
	}

	logger := appCtx.Logger.With("component", "web-server")
	h := handler.New(opts.Vault, opts.Repository,
		handler.WithKeyMode(opts.MetadataKey),
		handler.WithCopyBufferSize(opts.CopyBufferSize),
		handler.WithLogger(logger),
	)
	srv := &Server{
		opts:     opts,
		ctx:      appCtx.Ctx,
		logger:   logger,
		handler:  SetupRoutes(h, logger),
		notFound: SetupNotFound(logger),
	}

	return srv, nil
}

// Start binds the listen address and starts accepting connections in the
// background. It's a no-op if the server isn't stopped.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateStopped {
		return nil
	}
	s.state = stateStarting

	ln, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		s.state = stateStopped
		return fmt.Errorf("failed listening on '%s': %w", s.opts.Address, err)
	}
	if s.opts.MaxConnections > 0 {
		ln = NewLimitListener(ln, s.opts.MaxConnections)
	}

	s.ln = ln
	s.state = stateRunning
	s.logger.Info("started listener", "address", ln.Addr().String())

	go s.serve(ln)

	return nil
}

// Stop closes the listener. Connections that are being served aren't
// interrupted. It's a no-op if the server isn't running.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateRunning {
		return nil
	}
	s.state = stateStopping

	addr := s.ln.Addr().String()
	err := s.ln.Close()
	s.ln = nil
	s.state = stateStopped

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed closing listener: %w", err)
	}
	s.logger.Info("stopped listener", "address", addr)

	return nil
}

// IsAlive returns true if the server is accepting connections.
func (s *Server) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRunning
}

// Addr returns the address the server is listening on, or an empty string if
// it isn't running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// serve accepts connections on ln until it's no longer the server's listener.
func (s *Server) serve(ln net.Listener) {
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.isCurrent(ln) {
				return
			}

			if delay == 0 {
				delay = minAcceptBackoff
			} else {
				delay = min(2*delay, maxAcceptBackoff)
			}
			s.logger.Warn("failed accepting connection",
				"error", err.Error(), "retry_in", delay)
			time.Sleep(delay)

			continue
		}
		delay = 0

		go s.handleConn(conn)
	}
}

func (s *Server) isCurrent(ln net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRunning && s.ln == ln
}
