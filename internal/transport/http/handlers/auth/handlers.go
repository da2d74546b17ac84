package authhandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrtime/internal/auth"
	"hrtime/internal/domain/identity"
	"hrtime/internal/transport/http/api"
	"hrtime/internal/transport/http/middleware"
)

type Handler struct {
	Service   *identity.Service
	JWTSecret string
	TokenTTL  time.Duration
}

func NewHandler(service *identity.Service, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{Service: service, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.With(middleware.RequireAuth).Get("/me", h.handleMe)
	})
}

type registerPayload struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	user, err := h.Service.Register(r.Context(), payload.Email, payload.FullName, payload.Password)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, user, reqID)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string        `json:"accessToken"`
	TokenType   string        `json:"tokenType"`
	User        identity.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	user, err := h.Service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue token", reqID)
		return
	}

	api.Success(w, loginResponse{AccessToken: token, TokenType: "bearer", User: user}, reqID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	user, err := h.Service.Get(r.Context(), principal.UserID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, user, reqID)
}
