package rpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn represents a single WebSocket connection.
type Conn struct {
	id       uint64
	ws       *websocket.Conn
	server   *Server
	ctx      context.Context
	cancel   context.CancelFunc
	send     chan []byte
	requests map[string]context.CancelFunc
	mu       sync.Mutex
	closed   bool
}

func newConn(ws *websocket.Conn, server *Server, id uint64) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		id:       id,
		ws:       ws,
		server:   server,
		ctx:      ctx,
		cancel:   cancel,
		send:     make(chan []byte, 256),
		requests: make(map[string]context.CancelFunc),
	}
}

// ID returns the server-assigned connection ID.
func (c *Conn) ID() uint64 {
	return c.id
}

func (c *Conn) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
	default:
		c.server.logger.Warn("send buffer full, dropping message", zap.Uint64("conn", c.id))
	}
	return nil
}

func (c *Conn) sendResponse(id string, result any) {
	c.sendJSON(ResponseMessage{
		Type:   TypeResponse,
		ID:     id,
		Result: result,
	})
}

func (c *Conn) sendError(id string, code int, message string) {
	c.sendJSON(ErrorMessage{
		Type:    TypeError,
		ID:      id,
		Code:    code,
		Message: message,
	})
}

func (c *Conn) registerRequest(id string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[id] = cancel
}

func (c *Conn) unregisterRequest(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.requests, id)
}

func (c *Conn) cancelRequest(id string) {
	c.mu.Lock()
	cancel, ok := c.requests[id]
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

// readPump reads messages from the WebSocket and dispatches them.
func (c *Conn) readPump() {
	defer func() {
		c.server.unregister(c)
		c.ws.Close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.handleIncomingMessage(data)
	}
}

// writePump writes messages from the send channel to the WebSocket.
func (c *Conn) writePump() {
	defer c.ws.Close()

	for data := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (c *Conn) handleIncomingMessage(data []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", CodeParseError, "invalid JSON")
		return
	}

	switch msg.Type {
	case TypeRequest:
		if !c.server.beginRequest() {
			perr := ErrShuttingDown()
			c.sendError(msg.ID, perr.Code, perr.Message)
			return
		}
		go c.handleRequest(msg)
	case TypeCancel:
		c.cancelRequest(msg.ID)
	case TypePing:
		c.sendJSON(PongMessage{Type: TypePong})
	default:
		c.sendError(msg.ID, CodeInvalidRequest, "unknown message type")
	}
}

func (c *Conn) handleRequest(msg IncomingMessage) {
	defer c.server.requestsWg.Done()

	if !c.server.invoker.Has(msg.Method) {
		c.sendError(msg.ID, CodeMethodNotFound, "method not found: "+msg.Method)
		return
	}

	var args []any
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &args); err != nil {
			perr := ErrInvalidParams(err.Error())
			c.sendError(msg.ID, perr.Code, perr.Message)
			return
		}
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.registerRequest(msg.ID, cancel)
	defer func() {
		c.unregisterRequest(msg.ID)
		cancel()
	}()

	start := time.Now()
	result, err := c.server.invoker.Invoke(ctx, msg.Method, args...)

	// Check if context was canceled
	if errors.Is(ctx.Err(), context.Canceled) {
		perr := ErrCanceled()
		c.sendError(msg.ID, perr.Code, perr.Message)
		return
	}

	if err != nil {
		perr := toProtocolError(msg.Method, err)
		c.server.logger.Warn("request failed",
			zap.Uint64("conn", c.id),
			zap.String("id", msg.ID),
			zap.String("method", msg.Method),
			zap.Int("code", perr.Code),
			zap.Error(err),
		)
		c.sendError(msg.ID, perr.Code, perr.Message)
		return
	}

	c.server.logger.Debug("request completed",
		zap.Uint64("conn", c.id),
		zap.String("id", msg.ID),
		zap.String("method", msg.Method),
		zap.Duration("duration", time.Since(start)),
	)
	c.sendResponse(msg.ID, result)
}

func (c *Conn) closeGracefully() {
	// Send a WebSocket close frame to notify the client
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(5*time.Second),
	)
	c.ws.Close()
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	// Cancel all pending requests
	for _, cancel := range c.requests {
		cancel()
	}
	c.cancel()
}
