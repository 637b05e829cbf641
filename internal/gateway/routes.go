package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/soyeahso/concierge/internal/engagement"
)

// Router builds the HTTP handler: health, widget socket and copy tables.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(corsMiddleware(s.cfg.Gateway.AllowedOrigins))
	r.Use(loggingMiddleware(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Route("/api/contexts", func(r chi.Router) {
		r.Get("/", s.handleContexts)
		r.Get("/{context}", s.handleContext)
	})

	r.NotFound(handleNotFound)
	return r
}

// registerRPCHandlers sets up all JSON-RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("widget.state", s.rpcWidgetState)
	s.Handle("widget.navigate", s.rpcWidgetNavigate)
	s.Handle("widget.open", s.rpcWidgetOpen)
	s.Handle("widget.close", s.rpcWidgetClose)
	s.Handle("widget.toggle", s.rpcWidgetToggle)
	s.Handle("widget.dismissTeaser", s.rpcWidgetDismissTeaser)
	s.Handle("widget.send", s.rpcWidgetSend)
	s.Handle("widget.restart", s.rpcWidgetRestart)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:  "ok",
		Version: s.version,
		Clients: s.clients.Count(),
	})
}

// Widget handlers answer with the snapshot after the action. The same
// snapshot is also pushed as a widget.state event.

func (s *Server) rpcWidgetState(rc *RequestContext) {
	rc.Respond(rc.Client.Session.Snapshot())
}

type navigateParams struct {
	Context string `json:"context"`
}

func (s *Server) rpcWidgetNavigate(rc *RequestContext) {
	var p navigateParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	rc.Client.Session.Navigate(engagement.ParseContext(p.Context))
	rc.Respond(rc.Client.Session.Snapshot())
}

func (s *Server) rpcWidgetOpen(rc *RequestContext) {
	rc.Client.Session.Open()
	rc.Respond(rc.Client.Session.Snapshot())
}

func (s *Server) rpcWidgetClose(rc *RequestContext) {
	rc.Client.Session.Collapse()
	rc.Respond(rc.Client.Session.Snapshot())
}

func (s *Server) rpcWidgetToggle(rc *RequestContext) {
	rc.Client.Session.Toggle()
	rc.Respond(rc.Client.Session.Snapshot())
}

func (s *Server) rpcWidgetDismissTeaser(rc *RequestContext) {
	rc.Client.Session.DismissTeaser()
	rc.Respond(rc.Client.Session.Snapshot())
}

type sendParams struct {
	Text string `json:"text"`
}

func (s *Server) rpcWidgetSend(rc *RequestContext) {
	var p sendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	err := rc.Client.Session.Submit(p.Text)
	switch {
	case err == nil:
		rc.Respond(rc.Client.Session.Snapshot())
	case errors.Is(err, engagement.ErrEmptyMessage):
		rc.RespondError("invalid_params", "text is required")
	case errors.Is(err, engagement.ErrNotOpen):
		rc.RespondError("not_open", "open the widget before sending")
	case errors.Is(err, engagement.ErrBusy):
		rc.RespondErrorShape(ErrorShape{Code: "busy", Message: "still waiting for a reply", Retryable: true})
	case errors.Is(err, engagement.ErrClosed):
		rc.RespondError("unavailable", "session closed")
	default:
		rc.RespondError("internal_error", err.Error())
	}
}

func (s *Server) rpcWidgetRestart(rc *RequestContext) {
	rc.Client.Session.Restart()
	rc.Respond(rc.Client.Session.Snapshot())
}
