// Package rest mounts the MCP network transports on a chi router.
package rest

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	// SSEPath is where SSE clients open their event stream.
	SSEPath = "/sse"
	// MessagePath is where SSE clients post their messages.
	MessagePath = "/message"
	// StreamablePath serves the streamable HTTP transport.
	StreamablePath = "/mcp"
)

// Options configures the HTTP transport
type Options struct {
	// Transport is "sse" or "http".
	Transport string
	// BindHost is the address the listener is bound to. The host guard is
	// active only when it is a loopback address.
	BindHost string
	// AllowedHosts are accepted in Host/Origin headers besides loopback names.
	AllowedHosts []string
}

// Handler serves the MCP transports over HTTP
type Handler struct {
	logger       *zap.Logger
	guard        bool
	allowedHosts map[string]struct{}
	sse          *server.SSEServer
	streamable   *server.StreamableHTTPServer
}

// NewHandler creates a new transport handler for mcpServer.
func NewHandler(mcpServer *server.MCPServer, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		logger:       logger,
		guard:        isLoopbackHost(opts.BindHost),
		allowedHosts: parseAllowedHosts(opts.AllowedHosts),
	}
	if opts.Transport == "sse" {
		h.sse = server.NewSSEServer(mcpServer,
			server.WithSSEEndpoint(SSEPath),
			server.WithMessageEndpoint(MessagePath),
		)
	} else {
		h.streamable = server.NewStreamableHTTPServer(mcpServer,
			server.WithEndpointPath(StreamablePath),
		)
	}
	if !h.guard {
		logger.Warn("host guard disabled; server is bound to a non-loopback address",
			zap.String("host", opts.BindHost),
		)
	}
	return h
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Warn("failed to write health response", zap.Error(err))
	}
}

// RegisterRoutes registers the transport routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Group(func(r chi.Router) {
		r.Use(h.hostGuard)
		if h.sse != nil {
			r.Handle(SSEPath, h.sse.SSEHandler())
			r.Handle(MessagePath, h.sse.MessageHandler())
			return
		}
		r.Handle(StreamablePath, h.streamable)
	})
}

// Router returns a chi router with the transport routes and standard middleware.
func (h *Handler) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(h.requestLogger)
	router.Use(middleware.Recoverer)
	h.RegisterRoutes(router)
	return router
}

// Shutdown closes open transport sessions.
func (h *Handler) Shutdown(ctx context.Context) error {
	if h.sse != nil {
		return h.sse.Shutdown(ctx)
	}
	return h.streamable.Shutdown(ctx)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		next.ServeHTTP(w, r)
	})
}

// hostGuard rejects requests whose Host or Origin is neither loopback nor an
// allowed host, blocking DNS rebinding against a locally bound server.
func (h *Handler) hostGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.guard {
			if reason := h.validateLocalRequest(r); reason != "" {
				h.logger.Warn("rejected request",
					zap.String("reason", reason),
					zap.String("host", r.Host),
					zap.String("origin", r.Header.Get("Origin")),
				)
				http.Error(w, reason, http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) validateLocalRequest(r *http.Request) string {
	if !h.isAllowedHost(r.Host) {
		return "invalid host"
	}

	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return ""
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return "invalid origin"
	}
	if !h.isAllowedHost(parsed.Host) {
		return "invalid origin"
	}
	return ""
}

func (h *Handler) isAllowedHost(host string) bool {
	resolved, ok := normalizeHost(host)
	if !ok {
		return false
	}
	if isLoopbackHost(resolved) {
		return true
	}
	_, ok = h.allowedHosts[strings.ToLower(resolved)]
	return ok
}

func isLoopbackHost(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func parseAllowedHosts(hosts []string) map[string]struct{} {
	result := make(map[string]struct{}, len(hosts))
	for _, entry := range hosts {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		result[strings.ToLower(trimmed)] = struct{}{}
	}
	return result
}

// normalizeHost extracts the hostname from a Host or Origin host value.
func normalizeHost(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}
	if strings.HasPrefix(host, "[") {
		if split, _, err := net.SplitHostPort(host); err == nil {
			return split, true
		}
		if strings.HasSuffix(host, "]") {
			return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), true
		}
		return "", false
	}
	if strings.Count(host, ":") > 1 {
		return host, true
	}
	if strings.Contains(host, ":") {
		split, _, err := net.SplitHostPort(host)
		if err != nil {
			return "", false
		}
		return split, true
	}
	return host, true
}
