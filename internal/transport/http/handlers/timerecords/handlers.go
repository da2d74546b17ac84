package timerecordshandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrtime/internal/domain/timerecord"
	"hrtime/internal/transport/http/api"
	"hrtime/internal/transport/http/middleware"
	"hrtime/internal/transport/http/shared"
)

type Handler struct {
	Service *timerecord.Service
}

func NewHandler(service *timerecord.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/fichajes", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/check-in", h.handleCheckIn)
		r.Post("/check-out", h.handleCheckOut)
		r.Get("/me", h.handleListMine)
		r.Get("/me/active", h.handleGetActive)
		r.Get("/me/stats", h.handleMyStats)

		// Open to every authenticated user; the service narrows non-HR
		// callers to their own records whatever filter they send.
		r.Get("/", h.handleList)
		r.With(middleware.RequireHR).Get("/stats", h.handleStats)

		r.Get("/{fichajeID}", h.handleGet)
		r.Post("/{fichajeID}/correction", h.handleRequestCorrection)
		r.With(middleware.RequireHR).Post("/{fichajeID}/approve", h.handleReviewCorrection)
	})
}

type notesPayload struct {
	Notes string `json:"notes"`
}

// decodeOptional tolerates an empty body for endpoints whose payload is
// entirely optional.
func decodeOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload notesPayload
	if err := decodeOptional(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	record, err := h.Service.CheckIn(r.Context(), principal, payload.Notes)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, record, reqID)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload notesPayload
	if err := decodeOptional(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	record, err := h.Service.CheckOut(r.Context(), principal, payload.Notes)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}

func parseFilters(r *http.Request, v *shared.Validator) timerecord.ListFilters {
	filters := timerecord.ListFilters{
		UserID: r.URL.Query().Get("user_id"),
		Status: r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("incomplete"); raw != "" {
		if open, err := strconv.ParseBool(raw); err == nil {
			filters.OpenOnly = open
		}
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, ok := v.Date("from", raw); ok {
			filters.From = &from
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, ok := v.Date("to", raw); ok {
			filters.To = &to
		}
	}
	return filters
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	v := shared.NewValidator()
	filters := parseFilters(r, v)
	if v.Reject(w, reqID) {
		return
	}

	result, err := h.Service.List(r.Context(), principal, filters, page.Limit, page.Skip)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, shared.NewPage(result.Records, result.Total, page), reqID)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	v := shared.NewValidator()
	filters := parseFilters(r, v)
	if v.Reject(w, reqID) {
		return
	}

	result, err := h.Service.ListMine(r.Context(), principal, filters, page.Limit, page.Skip)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, shared.NewPage(result.Records, result.Total, page), reqID)
}

func (h *Handler) handleGetActive(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	record, err := h.Service.GetActive(r.Context(), principal)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}

func statsWindow(r *http.Request, v *shared.Validator) (*time.Time, *time.Time) {
	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, ok := v.Date("from", raw); ok {
			from = &parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			to = &parsed
		}
	}
	return from, to
}

func (h *Handler) handleMyStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	v := shared.NewValidator()
	from, to := statsWindow(r, v)
	if v.Reject(w, reqID) {
		return
	}

	stats, err := h.Service.StatsMine(r.Context(), principal, from, to)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, stats, reqID)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	from, to := statsWindow(r, v)
	if v.Reject(w, reqID) {
		return
	}

	stats, err := h.Service.StatsFor(r.Context(), r.URL.Query().Get("user_id"), from, to)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, stats, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	record, err := h.Service.Get(r.Context(), principal, chi.URLParam(r, "fichajeID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}

type correctionPayload struct {
	Reason          string    `json:"reason"`
	ProposedCheckIn time.Time `json:"proposedCheckIn"`
	// Optional: absent means the record keeps (or stays without) its
	// check-out.
	ProposedCheckOut *time.Time `json:"proposedCheckOut"`
}

func (h *Handler) handleRequestCorrection(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload correctionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	record, err := h.Service.RequestCorrection(r.Context(), principal, chi.URLParam(r, "fichajeID"), timerecord.CorrectionInput{
		Reason:           payload.Reason,
		ProposedCheckIn:  payload.ProposedCheckIn,
		ProposedCheckOut: payload.ProposedCheckOut,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}

type reviewPayload struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

func (h *Handler) handleReviewCorrection(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	record, err := h.Service.ReviewCorrection(r.Context(), principal, chi.URLParam(r, "fichajeID"), timerecord.ReviewInput{
		Approve: payload.Approve,
		Comment: payload.Comment,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, record, reqID)
}
