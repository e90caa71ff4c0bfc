// Package rpc serves proxied controller methods over WebSocket.
package rpc

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Invoker calls methods by name. *weave.Proxy implements it.
type Invoker interface {
	Invoke(ctx context.Context, method string, args ...any) (any, error)
	Has(method string) bool
}

// Server manages WebSocket connections and method dispatch.
type Server struct {
	invoker    Invoker
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	conns      map[*Conn]struct{}
	mu         sync.RWMutex
	closing    bool   // guarded by mu; set once Close starts
	nextConnID uint64 // atomic counter for connection IDs
	requestsWg sync.WaitGroup
}

// NewServer creates a WebSocket server dispatching requests to invoker.
func NewServer(invoker Invoker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		invoker: invoker,
		logger:  logger.Named("rpc"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins by default
			},
		},
		conns: make(map[*Conn]struct{}),
	}
}

// SetCheckOrigin sets the origin check function for the WebSocket upgrader.
func (s *Server) SetCheckOrigin(f func(r *http.Request) bool) {
	s.upgrader.CheckOrigin = f
}

// ServeHTTP implements http.Handler for WebSocket upgrades.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", zap.Error(err))
		return
	}

	connID := atomic.AddUint64(&s.nextConnID, 1)
	conn := newConn(ws, s, connID)

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		conn.closeGracefully()
		conn.close()
		return
	}
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("connection opened",
		zap.Uint64("conn", connID),
		zap.String("remote", ws.RemoteAddr().String()),
	)

	go conn.writePump()
	conn.readPump()
}

// unregister removes a connection and releases its resources.
func (s *Server) unregister(conn *Conn) {
	s.mu.Lock()
	_, existed := s.conns[conn]
	delete(s.conns, conn)
	s.mu.Unlock()

	if existed {
		conn.close()
		s.logger.Debug("connection closed", zap.Uint64("conn", conn.id))
	}
}

// beginRequest accounts for a new in-flight request. It reports false once
// Close has started, so Close never waits on a counter that is still rising.
func (s *Server) beginRequest() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closing {
		return false
	}
	s.requestsWg.Add(1)
	return true
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Close sends a close frame to every connection, closes them and waits for
// in-flight requests to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closing = true
	conns := make([]*Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.closeGracefully()
	}
	s.requestsWg.Wait()
	return nil
}
