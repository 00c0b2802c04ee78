package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"domainwatch/internal/query"
	"domainwatch/pkg/platform/httputil"
	"domainwatch/pkg/requestcontext"
)

// maxBodyBytes caps POST bodies; a domain name never needs more.
const maxBodyBytes = 4 << 10

// Service defines the interface for domain lookups.
type Service interface {
	Get(ctx context.Context, raw string) (*query.Answer, error)
	Trigger(ctx context.Context, raw string) (*query.Answer, error)
}

// Handler serves the public lookup endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a Handler. A nil logger discards output.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the lookup routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/get", h.HandleGet)
	r.Post("/post", h.HandlePost)
}

type triggerRequest struct {
	Domain string `json:"domain"`
}

// HandleGet handles GET /get?domain=.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	answer, err := h.service.Get(ctx, r.URL.Query().Get("domain"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(answer))
}

// HandlePost handles POST /post with {"domain": "..."}.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req triggerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		// an unreadable body is treated like an empty domain
		req.Domain = ""
	}

	answer, err := h.service.Trigger(ctx, req.Domain)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(answer))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.WarnContext(ctx, "lookup failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
