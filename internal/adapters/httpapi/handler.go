// Package httpapi публикует операции сервиса жалоб по HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"complaints-service/internal/domain"
	httpinfra "complaints-service/internal/infra/http"
	"complaints-service/internal/usecase/complaints"
	"complaints-service/internal/usecase/query"
)

// Handler связывает HTTP-маршруты с сервисом жалоб.
// Аутентификацию выполняет middleware снаружи; здесь только
// разграничение admin-маршрутов и маппинг ошибок на статусы.
type Handler struct {
	svc *complaints.Service
	log zerolog.Logger
}

// NewHandler создаёт HTTP-хендлер.
func NewHandler(svc *complaints.Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

// Register вешает маршруты API на роутер. Ожидается, что роутер уже
// защищён auth-middleware.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(admin chi.Router) {
		admin.Use(httpinfra.RequireAdmin)
		admin.Get("/api/v1/complaints", h.listComplaints)
		admin.Get("/api/v1/complaints/summary", h.summary)
		admin.Put("/api/v1/complaints/{id}/status", h.setStatus)
		admin.Post("/api/v1/complaints/{id}/response", h.respond)
	})

	r.Get("/api/v1/me", h.me)
	r.Post("/api/v1/complaints", h.submitComplaint)
	r.Get("/api/v1/my/complaints", h.myComplaints)
	r.Get("/api/v1/my/complaints/resolved", h.myResolved)
	r.Post("/api/v1/feedback", h.submitFeedback)
}

func (h *Handler) listComplaints(w http.ResponseWriter, r *http.Request) {
	spec := specFromQuery(r)
	list, err := h.svc.ListAll(r.Context(), spec)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"complaints": list})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	counters, err := h.svc.Overview(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counters)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}
	updated, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type respondRequest struct {
	Response string `json:"response"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}
	updated, err := h.svc.Respond(r.Context(), chi.URLParam(r, "id"), req.Response)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, err := httpinfra.IdentityFromContext(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

type submitComplaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

func (h *Handler) submitComplaint(w http.ResponseWriter, r *http.Request) {
	identity, err := httpinfra.IdentityFromContext(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	defer r.Body.Close()
	var req submitComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}
	created, err := h.svc.Submit(r.Context(), identity, complaints.SubmitParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) myComplaints(w http.ResponseWriter, r *http.Request) {
	identity, err := httpinfra.IdentityFromContext(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	list, err := h.svc.ListForUser(r.Context(), identity, specFromQuery(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"complaints": list})
}

func (h *Handler) myResolved(w http.ResponseWriter, r *http.Request) {
	identity, err := httpinfra.IdentityFromContext(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	list, err := h.svc.ResolvedForUser(r.Context(), identity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"complaints": list})
}

type submitFeedbackRequest struct {
	ComplaintID string `json:"complaint_id"`
	Rating      int    `json:"rating"`
	Message     string `json:"message"`
}

func (h *Handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	identity, err := httpinfra.IdentityFromContext(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	defer r.Body.Close()
	var req submitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}
	saved, err := h.svc.SubmitFeedback(r.Context(), identity, complaints.FeedbackParams{
		ComplaintID: req.ComplaintID,
		Rating:      req.Rating,
		Message:     req.Message,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func specFromQuery(r *http.Request) query.Spec {
	q := r.URL.Query()
	return query.Spec{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		SortBy:   q.Get("sort"),
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrComplaintNotFound):
		httpinfra.WriteError(w, http.StatusNotFound, err)
	case domain.IsValidation(err):
		httpinfra.WriteError(w, http.StatusUnprocessableEntity, err)
	default:
		h.log.Error().Err(err).Str("request_id", httpinfra.RequestID(r)).Msg("внутренняя ошибка API")
		httpinfra.WriteError(w, http.StatusInternalServerError, errors.New("внутренняя ошибка"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
