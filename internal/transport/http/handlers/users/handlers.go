package usershandler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrtime/internal/domain/identity"
	"hrtime/internal/transport/http/api"
	"hrtime/internal/transport/http/middleware"
	"hrtime/internal/transport/http/shared"
)

type Handler struct {
	Service *identity.Service
}

func NewHandler(service *identity.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Patch("/me", h.handleUpdateMe)
		r.Post("/me/password", h.handleChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireHR)
			r.Get("/", h.handleList)
			r.Post("/", h.handleCreate)
			r.Get("/{userID}", h.handleGet)
			r.Put("/{userID}", h.handleUpdate)
			r.Delete("/{userID}", h.handleDelete)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	filters := identity.ListUsersFilters{Role: r.URL.Query().Get("role")}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filters.IsActive = &active
		}
	}

	result, err := h.Service.List(r.Context(), filters, page.Limit, page.Skip)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, shared.NewPage(result.Users, result.Total, page), reqID)
}

type createPayload struct {
	Email      string  `json:"email"`
	FullName   string  `json:"fullName"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	IsActive   *bool   `json:"isActive"`
	AnnualDays float64 `json:"annualDays"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	role := payload.Role
	if role == "" {
		role = identity.RoleEmployee
	}

	user, err := h.Service.Create(r.Context(), identity.CreateUserInput{
		Email:      payload.Email,
		FullName:   payload.FullName,
		Password:   payload.Password,
		Role:       role,
		IsActive:   active,
		AnnualDays: payload.AnnualDays,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, user, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	user, err := h.Service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, user, reqID)
}

type updatePayload struct {
	Email         *string  `json:"email"`
	FullName      *string  `json:"fullName"`
	Password      *string  `json:"password"`
	Role          *string  `json:"role"`
	IsActive      *bool    `json:"isActive"`
	AnnualDays    *float64 `json:"annualDays"`
	AvailableDays *float64 `json:"availableDays"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	user, err := h.Service.Update(r.Context(), chi.URLParam(r, "userID"), identity.UpdateUserInput{
		Email:         payload.Email,
		FullName:      payload.FullName,
		Password:      payload.Password,
		Role:          payload.Role,
		IsActive:      payload.IsActive,
		AnnualDays:    payload.AnnualDays,
		AvailableDays: payload.AvailableDays,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, user, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "userID"), principal.UserID); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]bool{"deleted": true}, reqID)
}

type updateMePayload struct {
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload updateMePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	user, err := h.Service.UpdateSelf(r.Context(), principal.UserID, payload.Email, payload.FullName)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, user, reqID)
}

type changePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	var payload changePasswordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	if err := h.Service.ChangePassword(r.Context(), principal.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, map[string]bool{"changed": true}, reqID)
}
