package reportshandler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrtime/internal/domain/reports"
	"hrtime/internal/domain/timerecord"
	"hrtime/internal/transport/http/api"
	"hrtime/internal/transport/http/middleware"
	"hrtime/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireAuth, middleware.RequireHR)
		r.Get("/time/csv", h.handleTimeCSV)
		r.Get("/time/pdf", h.handleTimePDF)
	})
}

func (h *Handler) filters(r *http.Request, v *shared.Validator) timerecord.ListFilters {
	filters := timerecord.ListFilters{
		UserID: r.URL.Query().Get("user_id"),
		Status: r.URL.Query().Get("status"),
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

func (h *Handler) handleTimeCSV(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	filters := h.filters(r, v)
	if v.Reject(w, reqID) {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=time-report-%s.csv", time.Now().UTC().Format("2006-01-02")))
	if err := h.Service.TimeReportCSV(r.Context(), filters, w); err != nil {
		api.FailError(w, err, reqID)
	}
}

func (h *Handler) handleTimePDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	v := shared.NewValidator()
	filters := h.filters(r, v)
	if v.Reject(w, reqID) {
		return
	}

	pdf, err := h.Service.TimeReportPDF(r.Context(), filters, time.Now())
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=time-report-%s.pdf", time.Now().UTC().Format("2006-01-02")))
	_, _ = w.Write(pdf)
}
