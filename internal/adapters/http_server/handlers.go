package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/app"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/auth"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/events"
)

const maxBodyBytes = 64 << 10

type EventPublisher interface {
	Publish(ctx context.Context, typ events.Type, hotelID int64) error
}

type Handlers struct {
	Svc      *app.ScoringService
	Authz    domain.Authorizer
	Events   EventPublisher
	Verifier TokenVerifier
	// RecalcLimit throttles recalculate-all; nil disables the limit.
	RecalcLimit *rate.Limiter
}

type problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Use(Authenticate(h.Verifier))

		r.Get("/scoring", h.getLeaderboard)
		r.Get("/scoring/{hotelId}", h.getScoring)
		r.Post("/scoring/calculate/{hotelId}", h.calculate)
		r.With(h.recalcLimit).Post("/scoring/recalculate-all", h.recalculateAll)
		r.Post("/hooks/hotels", h.hotelHook)
	})
}

func (h *Handlers) recalcLimit(next http.Handler) http.Handler {
	if h.RecalcLimit == nil {
		return next
	}
	return RateLimit(h.RecalcLimit)(next)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeProblemBody(w, problem{Type: "about:blank", Title: "Validation Failed", Status: http.StatusBadRequest, Detail: ve.Error(), Errors: ve.Fields})
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "your role does not allow this operation")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
	case errors.Is(err, domain.ErrRankingStale):
		w.Header().Set("Retry-After", "5")
		writeProblem(w, http.StatusServiceUnavailable, "Ranking Stale", "ranking could not be updated; previous ranking is still served")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func caller(r *http.Request) domain.Caller {
	c, _ := auth.CallerFrom(r.Context())
	return c
}

func hotelIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "hotelId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("hotelId", "must be a positive integer")
	}
	return id, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	if n < 1 {
		return 0, domain.NewValidationError(name, "must be at least 1")
	}
	return n, nil
}

// decodeBody decodes an optional JSON body; unknown fields are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

func (h *Handlers) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := domain.LeaderboardQuery{
		Page:      page,
		Limit:     limit,
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: strings.ToUpper(r.URL.Query().Get("sortOrder")),
	}

	out, err := h.Svc.GetLeaderboard(r.Context(), caller(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write leaderboard body")
	}
}

func (h *Handlers) getScoring(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sc, err := h.Svc.GetScoring(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

type weightsBody struct {
	Weights *domain.WeightsOverride `json:"weights"`
}

func (h *Handlers) calculate(w http.ResponseWriter, r *http.Request) {
	id, err := hotelIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body weightsBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Svc.CalculateHotelScore(r.Context(), caller(r), id, body.Weights)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) recalculateAll(w http.ResponseWriter, r *http.Request) {
	var body weightsBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Svc.RecalculateAll(r.Context(), caller(r), body.Weights)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type hookRequest struct {
	Type    string `json:"type" validate:"required,oneof=created updated deleted"`
	HotelID int64  `json:"hotelId" validate:"required,gt=0"`
}

func (h *Handlers) hotelHook(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	if err := h.Authz.Authorize(r.Context(), c, domain.ActionPublishEvents, 0); err != nil {
		writeError(w, r, err)
		return
	}
	var req hookRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := domain.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Events.Publish(r.Context(), events.Type(req.Type), req.HotelID); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Int64("hotel_id", req.HotelID).Str("type", req.Type).Str("role", string(c.Role)).Msg("hotel event accepted")
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true, "type": req.Type, "hotelId": req.HotelID})
}
