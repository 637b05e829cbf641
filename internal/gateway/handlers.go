package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soyeahso/concierge/internal/engagement"
)

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the RPC handler populates all fields.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Clients int    `json:"clients,omitempty"`
}

// ContextsResponse is the copy table the site front end renders from.
type ContextsResponse struct {
	Default        engagement.ContextCopy            `json:"default"`
	Contexts       map[string]engagement.ContextCopy `json:"contexts"`
	Teaser         TeaserCopy                        `json:"teaser"`
	Escalation     EscalationCopy                    `json:"escalation"`
	SchedulingCard engagement.SchedulingCardCopy     `json:"schedulingCard"`
	Apology        string                            `json:"apology"`
}

// TeaserCopy holds the two teaser bubble lines.
type TeaserCopy struct {
	Home    string `json:"home"`
	Generic string `json:"generic"`
}

// EscalationCopy is shown once the inactivity timer fires.
type EscalationCopy struct {
	Open         string   `json:"open"`
	Hook         string   `json:"hook"`
	QuickReplies []string `json:"quickReplies"`
}

func contextsResponse() ContextsResponse {
	resp := ContextsResponse{
		Default:  engagement.DefaultCopy(),
		Contexts: make(map[string]engagement.ContextCopy, len(engagement.KnownContexts)),
		Teaser: TeaserCopy{
			Home:    engagement.TeaserHomeText,
			Generic: engagement.TeaserGenericText,
		},
		Escalation: EscalationCopy{
			Open:         engagement.EscalationOpenText,
			Hook:         engagement.EscalationHookText,
			QuickReplies: engagement.EscalationReplies(),
		},
		SchedulingCard: engagement.SchedulingCard(),
		Apology:        engagement.ApologyText,
	}
	for _, tag := range engagement.KnownContexts {
		resp.Contexts[string(tag)] = engagement.CopyFor(tag)
	}
	return resp
}

// handleHealth returns the server health status. Only status is exposed
// publicly.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleContexts returns every copy table.
func (s *Server) handleContexts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, contextsResponse())
}

// handleContext returns the copy for one page. Unknown pages get the
// default copy, flagged with known=false.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	tag := engagement.ParseContext(chi.URLParam(r, "context"))
	writeJSON(w, http.StatusOK, map[string]any{
		"context": tag,
		"known":   tag.Known(),
		"copy":    engagement.CopyFor(tag),
		"teaser":  engagement.TeaserText(tag, ""),
	})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(ctx *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.RespondErrorShape(ErrorShape{Code: code, Message: message})
}

// RespondErrorShape sends a fully populated error response.
func (rc *RequestContext) RespondErrorShape(e ErrorShape) {
	if err := rc.Client.RespondError(rc.Frame.ID, e); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send error response")
	}
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if len(rc.Frame.Params) == 0 {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}
