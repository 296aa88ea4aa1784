package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lixenwraith/voiceloop/core"
	"github.com/lixenwraith/voiceloop/status"
)

// shutdownTimeout bounds graceful HTTP shutdown
const shutdownTimeout = 2 * time.Second

// Service runs the HTTP API as a Service
type Service struct {
	opts Options
	addr string

	mu       sync.Mutex
	server   *Server
	http     *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewService creates an API service listening on addr
func NewService(opts Options, addr string) *Service {
	return &Service{opts: opts, addr: addr}
}

// Name implements Service
func (s *Service) Name() string {
	return "api"
}

// Dependencies implements Service
func (s *Service) Dependencies() []string {
	return []string{"output"}
}

// Init implements Service
// args[0]: string - listen address override
func (s *Service) Init(args ...any) error {
	if len(args) > 0 {
		if addr, ok := args[0].(string); ok && addr != "" {
			s.addr = addr
		}
	}
	return nil
}

// Start implements Service
// Binding errors are returned so a taken port fails startup
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.http != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router, server := NewRouter(s.opts)
	s.server = server
	s.listener = ln
	s.http = &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	s.done = make(chan struct{})

	srv, done := s.http, s.done
	core.Go(func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[api] serve: %v", err)
		}
	})

	log.Printf("[api] listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, empty before Start
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop implements Service
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.http == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(ctx)
	if err != nil {
		// Event streams outlive the grace period
		s.http.Close()
	}
	<-s.done
	s.http = nil
	s.listener = nil
	return err
}

// Report implements service.Reporter
func (s *Service) Report(reg *status.Registry) {
	reg.Strings.Get("api.listen").Store(s.Addr())
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server != nil {
		reg.Ints.Get("api.requests").Store(server.Requests())
	}
}
