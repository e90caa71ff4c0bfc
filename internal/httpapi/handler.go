// Package httpapi exposes the users controller over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"go.uber.org/zap"
)

// Invoker calls a controller method by name. *weave.Proxy implements it.
type Invoker interface {
	Invoke(ctx context.Context, method string, args ...any) (any, error)
}

// Route binds an HTTP pattern to a controller method.
type Route struct {
	Pattern string
	Method  string
}

// Routes are the users endpoints.
var Routes = []Route{
	{Pattern: "GET /users", Method: "ListUsers"},
	{Pattern: "GET /users/exceptions", Method: "ListUsersFaulting"},
}

// errorBody mirrors the default error body of servlet containers.
type errorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Path      string    `json:"path"`
}

// Handler routes requests to controller methods through an Invoker.
type Handler struct {
	invoker Invoker
	logger  *zap.Logger
	mux     *http.ServeMux
}

// NewHandler registers Routes on a fresh mux. A nil logger discards output.
func NewHandler(invoker Invoker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		invoker: invoker,
		logger:  logger.Named("http"),
		mux:     http.NewServeMux(),
	}
	for _, route := range Routes {
		h.mux.Handle(route.Pattern, h.invoke(route.Method))
	}
	return h
}

// Mount adds an additional handler, such as the metrics or RPC endpoint. It
// fails if pattern is malformed or conflicts with a registered pattern.
func (h *Handler) Mount(pattern string, handler http.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mount %q: %v", pattern, r)
		}
	}()
	h.mux.Handle(pattern, handler)
	return nil
}

// ServeHTTP dispatches to the mounted routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) invoke(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		result, err := h.invoker.Invoke(r.Context(), method)
		if err != nil {
			h.logger.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.String("method", method),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			h.writeError(w, r, http.StatusInternalServerError)
			return
		}
		h.logger.Debug("request completed",
			zap.String("path", r.URL.Path),
			zap.String("method", method),
			zap.Duration("duration", time.Since(start)),
		)
		h.writeResult(w, result)
	}
}

func (h *Handler) writeResult(w http.ResponseWriter, result any) {
	switch v := result.(type) {
	case nil:
		w.WriteHeader(http.StatusOK)
	case string:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			h.logger.Error("encode response", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int) {
	body := errorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Path:      r.URL.Path,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, body); err != nil {
		h.logger.Warn("write error body", zap.Error(err))
	}
}
