package gateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/concierge/internal/config"
	"github.com/soyeahso/concierge/internal/engagement"
	"github.com/soyeahso/concierge/internal/hooks"
	"github.com/soyeahso/concierge/internal/logging"
	"github.com/soyeahso/concierge/internal/responder"
	"github.com/soyeahso/concierge/internal/version"
)

var ErrClientClosed = errors.New("client connection closed")

// Server is the widget gateway: HTTP API plus one WebSocket per mounted
// widget, each driving its own engagement controller.
type Server struct {
	cfg      config.Config
	auth     ResolvedAuth
	log      *logging.Logger
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	version  string

	responder engagement.Responder
	policy    engagement.Policy
	clock     clock.Clock

	// Hook manager (optional, nil if not configured)
	hooks *hooks.Manager

	startedAt   time.Time
	httpServer  *http.Server
	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter
}

// authRateLimiter tracks failed handshakes per IP to slow down token guessing.
type authRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
}

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
	authRateMaxIPs   = 10000 // max tracked IPs
)

func newAuthRateLimiter() *authRateLimiter {
	return &authRateLimiter{failures: make(map[string][]time.Time)}
}

// run prunes stale entries every minute until ctx is done.
func (l *authRateLimiter) run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.prune(time.Now())
		}
	}
}

func (l *authRateLimiter) prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := now.Add(-authRateWindow)
	for ip, times := range l.failures {
		times = recentFailures(times, cutoff)
		if len(times) == 0 {
			delete(l.failures, ip)
		} else {
			l.failures[ip] = times
		}
	}
}

func recentFailures(times []time.Time, cutoff time.Time) []time.Time {
	filtered := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func hostOf(remoteAddr string) string {
	host, _, _ := net.SplitHostPort(remoteAddr)
	if host == "" {
		return remoteAddr
	}
	return host
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := hostOf(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	filtered := recentFailures(l.failures[host], time.Now().Add(-authRateWindow))
	if len(filtered) == 0 {
		delete(l.failures, host)
		return true
	}
	l.failures[host] = filtered
	return len(filtered) < authRateMaxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := hostOf(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.failures[host]; !exists && len(l.failures) >= authRateMaxIPs {
		var oldestIP string
		var oldestTime time.Time
		for ip, times := range l.failures {
			if len(times) > 0 && (oldestIP == "" || times[0].Before(oldestTime)) {
				oldestIP = ip
				oldestTime = times[0]
			}
		}
		if oldestIP != "" {
			delete(l.failures, oldestIP)
		}
	}

	l.failures[host] = append(l.failures[host], time.Now())
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for gateway and engagement events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithResponder sets the response provider shared by all sessions.
func WithResponder(r engagement.Responder) ServerOption {
	return func(s *Server) {
		s.responder = r
	}
}

// WithPolicy overrides the engagement policy derived from config.
func WithPolicy(p engagement.Policy) ServerOption {
	return func(s *Server) {
		s.policy = p
	}
}

// WithClock sets the clock handed to every session controller.
func WithClock(clk clock.Clock) ServerOption {
	return func(s *Server) {
		s.clock = clk
	}
}

// New creates a new gateway server. Without WithResponder every session
// answers with the demo responder.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:         cfg,
		auth:        ResolveAuth(cfg.Gateway.Auth),
		log:         log.Sub("gateway"),
		clients:     NewClientRegistry(log.Sub("clients")),
		handlers:    make(map[string]RequestHandler),
		version:     version.Version,
		policy:      engagement.PolicyFromConfig(cfg.Engagement),
		clock:       clock.New(),
		authLimiter: newAuthRateLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.responder == nil {
		s.responder = responder.NewDemo(cfg.Responder.DemoDelay, s.clock)
		s.log.Warn().Msg("no responder configured, using demo replies")
	}

	s.registerRPCHandlers()
	return s
}

// checkWebSocketOrigin validates the Origin header of widget sockets. No
// header means a non-browser client and is always accepted.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return isOriginAllowed(origin, allowed)
	}
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the sorted list of registered RPC method names.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Gateway.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.Gateway.TLS.CertPath, s.cfg.Gateway.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		ln = tls.NewListener(ln, tlsCfg)
		s.log.Info().Msg("TLS enabled")
	} else if s.cfg.Gateway.Bind != "loopback" && s.auth.Mode == AuthModeToken {
		s.log.Warn().Msg("TLS is not enabled, the gateway token travels in cleartext")
	}

	s.startedAt = time.Now()
	go s.authLimiter.run(ctx)

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Str("auth", s.auth.Mode).
		Int("methods", len(s.handlers)).
		Msg("gateway server ready")

	if s.hooks != nil {
		s.hooks.Emit(ctx, hooks.EventGatewayStart, "", map[string]any{
			"addr": ln.Addr().String(),
		})
	}

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
		if s.hooks != nil {
			s.hooks.Emit(context.Background(), hooks.EventGatewayStop, "", map[string]any{
				"uptime": time.Since(s.startedAt).String(),
			})
		}
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// handleWebSocket upgrades HTTP to WebSocket and runs the connection loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authLimiter.allow(r.RemoteAddr) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("rate limited, too many failed handshakes")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}
	if max := s.cfg.Gateway.MaxConnections; max > 0 && s.clients.Count() >= max {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxPayload)

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("new websocket connection")

	client, params, err := s.handshake(conn)
	if err != nil {
		s.log.Warn().Err(err).Msg("handshake failed")
		s.authLimiter.recordFailure(r.RemoteAddr)
		conn.Close()
		return
	}

	if !s.clients.Add(client, s.cfg.Gateway.MaxConnections) {
		sendErrorAndClose(conn, "", "unavailable", "too many connections")
		conn.Close()
		return
	}
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	s.mount(client, params.Context)

	pingCtx, stopPing := context.WithCancel(r.Context())
	defer stopPing()
	go client.keepalive(pingCtx, tickInterval)

	s.readLoop(client)
}

// handshake performs the WebSocket connect handshake.
// Flow: server sends challenge, client sends connect, server validates and
// answers hello.
func (s *Server) handshake(conn *websocket.Conn) (*Client, ConnectParams, error) {
	var params ConnectParams
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	challenge, err := NewEvent(EventConnectChallenge, map[string]any{
		"nonce": uuid.New().String(),
		"ts":    time.Now().UnixMilli(),
	}, 0)
	if err != nil {
		return nil, params, fmt.Errorf("creating challenge: %w", err)
	}
	if err := conn.WriteJSON(challenge); err != nil {
		return nil, params, fmt.Errorf("sending challenge: %w", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, params, fmt.Errorf("reading connect: %w", err)
	}

	var frame Frame
	if err := json.Unmarshal(msg, &frame); err != nil {
		return nil, params, fmt.Errorf("parsing connect frame: %w", err)
	}

	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		sendErrorAndClose(conn, frame.ID, "protocol_error", "expected connect request")
		return nil, params, fmt.Errorf("expected connect request, got type=%s method=%s", frame.Type, frame.Method)
	}

	if len(frame.Params) > 0 {
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			sendErrorAndClose(conn, frame.ID, "invalid_params", "invalid connect params")
			return nil, params, fmt.Errorf("parsing connect params: %w", err)
		}
	}
	if params.MaxProtocol != 0 && params.MaxProtocol < ProtocolVersion {
		sendErrorAndClose(conn, frame.ID, "protocol_error", "unsupported protocol version")
		return nil, params, fmt.Errorf("client protocol %d-%d unsupported", params.MinProtocol, params.MaxProtocol)
	}

	authResult := Authorize(s.auth, params.Auth)
	if !authResult.OK {
		sendErrorAndClose(conn, frame.ID, "unauthorized", authResult.Reason)
		return nil, params, fmt.Errorf("auth failed: %s", authResult.Reason)
	}

	conn.SetReadDeadline(time.Time{})

	client := NewClient(conn, params.Client, authResult, s.log.Sub("ws"))

	hello := HelloOK{
		Protocol: ProtocolVersion,
		Server: ServerInfo{
			Version: s.version,
			Commit:  version.Get().ShortCommit(),
			ConnID:  client.ConnID,
		},
		Features: Features{
			Methods: s.Methods(),
			Events:  []string{EventConnectChallenge, EventWidgetState},
		},
		Policy: ServerPolicy{
			MaxPayload:     maxPayload,
			TickIntervalMs: int(tickInterval / time.Millisecond),
		},
	}

	resp, err := NewResponse(frame.ID, hello)
	if err != nil {
		return nil, params, fmt.Errorf("creating hello response: %w", err)
	}
	if err := conn.WriteJSON(resp); err != nil {
		return nil, params, fmt.Errorf("sending hello: %w", err)
	}

	s.log.Info().
		Str("connId", client.ConnID).
		Str("clientId", params.Client.ID).
		Str("context", params.Context).
		Str("authMethod", authResult.Method).
		Msg("client connected")

	return client, params, nil
}

// mount creates the client's engagement controller, subscribes the socket
// to its snapshots and enters the initial page context. An empty context
// mounts on the home page.
func (s *Server) mount(client *Client, pageContext string) {
	ctrl := engagement.NewController(s.responder, s.log,
		engagement.WithID(client.ConnID),
		engagement.WithPolicy(s.policy),
		engagement.WithClock(s.clock),
		engagement.WithHooks(s.hooks),
		engagement.WithReplyTimeout(s.cfg.Engagement.ReplyTimeout),
	)
	ctrl.OnChange(func(snap engagement.Snapshot) {
		if err := client.SendEvent(EventWidgetState, snap, int64(snap.Seq)); err != nil && !errors.Is(err, ErrClientClosed) {
			s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("failed to push widget state")
		}
	})
	client.Session = ctrl

	tag := engagement.ParseContext(pageContext)
	if tag == "" {
		tag = engagement.ContextHome
	}
	ctrl.Mount(tag)
}

// readLoop processes incoming frames from a connected client.
func (s *Server) readLoop(client *Client) {
	client.extendReadDeadline()
	client.Socket.SetPongHandler(func(string) error {
		client.extendReadDeadline()
		return nil
	})
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		client.extendReadDeadline()

		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}

		s.dispatch(client, frame)
	}
}

// dispatch routes a request frame to the appropriate handler.
func (s *Server) dispatch(client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{
			Code:    "method_not_found",
			Message: "unknown method: " + frame.Method,
		})
		return
	}

	handler(&RequestContext{
		Client: client,
		Frame:  frame,
		Server: s,
	})
}

// sendErrorAndClose sends an error response and a close frame.
func sendErrorAndClose(conn *websocket.Conn, reqID, code, message string) {
	conn.WriteJSON(NewErrorResponse(reqID, ErrorShape{
		Code:    code,
		Message: message,
	}))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, message))
}
