package leavehandler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrtime/internal/domain/leave"
	"hrtime/internal/transport/http/api"
	"hrtime/internal/transport/http/middleware"
	"hrtime/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
}

func NewHandler(service *leave.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/solicitudes", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/", h.handleCreate)
		r.Get("/me", h.handleListMine)
		r.Get("/me/balance", h.handleMyBalance)

		// Open to every authenticated user; the service narrows non-HR
		// callers to their own requests whatever filter they send.
		r.Get("/", h.handleList)
		r.With(middleware.RequireHR).Get("/pending", h.handleListPending)
		r.With(middleware.RequireHR).Get("/balance/{userID}", h.handleBalance)

		r.Get("/{solicitudID}", h.handleGet)
		r.Put("/{solicitudID}", h.handleUpdate)
		r.Post("/{solicitudID}/cancel", h.handleCancel)
		r.With(middleware.RequireHR).Post("/{solicitudID}/review", h.handleReview)
	})
}

type createPayload struct {
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Motive    string `json:"motive"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "is required")
	v.Required("motive", payload.Motive, "is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, reqID) {
		return
	}

	request, err := h.Service.Create(r.Context(), principal, leave.CreateInput{
		Type:      payload.Type,
		StartDate: start,
		EndDate:   end,
		Motive:    payload.Motive,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, request, reqID)
}

func parseFilters(r *http.Request, v *shared.Validator) leave.ListFilters {
	filters := leave.ListFilters{
		UserID: r.URL.Query().Get("user_id"),
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
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
	if raw := r.URL.Query().Get("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filters.ActiveOnly = active
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
	api.Success(w, shared.NewPage(result.Requests, result.Total, page), reqID)
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
	api.Success(w, shared.NewPage(result.Requests, result.Total, page), reqID)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	v := shared.NewValidator()
	filters := parseFilters(r, v)
	if v.Reject(w, reqID) {
		return
	}

	result, err := h.Service.ListPending(r.Context(), filters, page.Limit, page.Skip)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, shared.NewPage(result.Requests, result.Total, page), reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	request, err := h.Service.Get(r.Context(), principal, chi.URLParam(r, "solicitudID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, request, reqID)
}

type updatePayload struct {
	Type      *string `json:"type"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Motive    *string `json:"motive"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	input := leave.UpdateInput{Type: payload.Type, Motive: payload.Motive}
	if payload.StartDate != nil {
		if start, ok := v.Date("startDate", *payload.StartDate); ok {
			input.StartDate = &start
		}
	}
	if payload.EndDate != nil {
		if end, ok := v.Date("endDate", *payload.EndDate); ok {
			input.EndDate = &end
		}
	}
	if v.Reject(w, reqID) {
		return
	}

	request, err := h.Service.Update(r.Context(), principal, chi.URLParam(r, "solicitudID"), input)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, request, reqID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	request, err := h.Service.Cancel(r.Context(), principal, chi.URLParam(r, "solicitudID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, request, reqID)
}

type reviewPayload struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	request, err := h.Service.Review(r.Context(), principal, chi.URLParam(r, "solicitudID"), leave.ReviewInput{
		Approve: payload.Approve,
		Comment: payload.Comment,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, request, reqID)
}

func (h *Handler) handleMyBalance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	balance, err := h.Service.BalanceFor(r.Context(), principal, principal.UserID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, balance, reqID)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	balance, err := h.Service.BalanceFor(r.Context(), principal, chi.URLParam(r, "userID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, balance, reqID)
}
