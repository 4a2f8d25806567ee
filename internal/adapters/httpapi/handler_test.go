package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"complaints-service/internal/adapters/repo"
	"complaints-service/internal/domain"
	httpinfra "complaints-service/internal/infra/http"
	"complaints-service/internal/usecase/complaints"
)

func seedComplaints() []domain.Complaint {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Complaint{
		{ID: "1", UserID: "u1", Title: "Первая", Description: "описание", Category: domain.CategoryService, Status: domain.StatusPending, Priority: domain.PriorityLow, CreatedAt: base, UpdatedAt: base},
		{ID: "2", UserID: "u2", Title: "Вторая", Description: "описание", Category: domain.CategoryBilling, Status: domain.StatusResolved, Priority: domain.PriorityHigh, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
	}
}

// newRouter собирает роутер с тестовой identity вместо JWT-middleware.
func newRouter(seed []domain.Complaint, identity domain.Identity) *chi.Mux {
	store := repo.NewMemory(seed)
	svc := complaints.NewService(store, store, nil, nil, 0, zerolog.Nop())
	h := NewHandler(svc, zerolog.Nop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(httpinfra.WithIdentity(req.Context(), identity)))
		})
	})
	h.Register(r)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var (
	admin = domain.Identity{ID: "a1", Username: "admin", Role: domain.RoleAdmin}
	user1 = domain.Identity{ID: "u1", Username: "ivan", Role: domain.RoleUser}
)

func TestListComplaintsFiltered(t *testing.T) {
	r := newRouter(seedComplaints(), admin)
	rec := doRequest(t, r, http.MethodGet, "/api/v1/complaints?status=resolved", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Complaints []domain.Complaint `json:"complaints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if len(resp.Complaints) != 1 || resp.Complaints[0].ID != "2" {
		t.Fatalf("ожидали только жалобу 2, получили %+v", resp.Complaints)
	}
}

func TestAdminRoutesForbiddenForUser(t *testing.T) {
	r := newRouter(seedComplaints(), user1)
	paths := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/complaints", ""},
		{http.MethodGet, "/api/v1/complaints/summary", ""},
		{http.MethodPut, "/api/v1/complaints/1/status", `{"status":"resolved"}`},
		{http.MethodPost, "/api/v1/complaints/1/response", `{"response":"ок"}`},
	}
	for _, p := range paths {
		rec := doRequest(t, r, p.method, p.path, p.body)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: ожидали 403, получили %d", p.method, p.path, rec.Code)
		}
	}
}

func TestSetStatus(t *testing.T) {
	r := newRouter(seedComplaints(), admin)
	rec := doRequest(t, r, http.MethodPut, "/api/v1/complaints/1/status", `{"status":"resolved"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.Complaint
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if updated.Status != domain.StatusResolved {
		t.Fatalf("ожидали resolved, получили %s", updated.Status)
	}
}

func TestSetStatusErrors(t *testing.T) {
	r := newRouter(seedComplaints(), admin)

	rec := doRequest(t, r, http.MethodPut, "/api/v1/complaints/1/status", `{"status":"weird"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("неизвестный статус: ожидали 422, получили %d", rec.Code)
	}
	rec = doRequest(t, r, http.MethodPut, "/api/v1/complaints/404/status", `{"status":"resolved"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("нет жалобы: ожидали 404, получили %d", rec.Code)
	}
	rec = doRequest(t, r, http.MethodPut, "/api/v1/complaints/1/status", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("битое тело: ожидали 400, получили %d", rec.Code)
	}
}

func TestRespond(t *testing.T) {
	r := newRouter(seedComplaints(), admin)
	rec := doRequest(t, r, http.MethodPost, "/api/v1/complaints/1/response", `{"response":"разбираемся"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.Complaint
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if updated.Status != domain.StatusInProgress || updated.AdminResponse != "разбираемся" {
		t.Fatalf("ожидали in-progress с ответом, получили %+v", updated)
	}

	rec = doRequest(t, r, http.MethodPost, "/api/v1/complaints/1/response", `{"response":"   "}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("пустой ответ: ожидали 422, получили %d", rec.Code)
	}
}

func TestSummary(t *testing.T) {
	r := newRouter(seedComplaints(), admin)
	rec := doRequest(t, r, http.MethodGet, "/api/v1/complaints/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var counters struct {
		Total        int `json:"total"`
		Pending      int `json:"pending"`
		Resolved     int `json:"resolved"`
		HighPriority int `json:"high_priority"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &counters); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if counters.Total != 2 || counters.Pending != 1 || counters.Resolved != 1 || counters.HighPriority != 1 {
		t.Fatalf("неожиданные счётчики: %+v", counters)
	}
}

func TestSubmitComplaint(t *testing.T) {
	r := newRouter(nil, user1)
	body := `{"title":"Не приходит чек","description":"после оплаты","category":"billing","priority":"medium"}`
	rec := doRequest(t, r, http.MethodPost, "/api/v1/complaints", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Complaint
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if created.UserID != "u1" || created.Status != domain.StatusPending {
		t.Fatalf("неожиданная жалоба: %+v", created)
	}

	rec = doRequest(t, r, http.MethodPost, "/api/v1/complaints", `{"title":"  ","description":"x","category":"billing","priority":"low"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("пустой заголовок: ожидали 422, получили %d", rec.Code)
	}
}

func TestMyComplaints(t *testing.T) {
	r := newRouter(seedComplaints(), user1)
	rec := doRequest(t, r, http.MethodGet, "/api/v1/my/complaints", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var resp struct {
		Complaints []domain.Complaint `json:"complaints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if len(resp.Complaints) != 1 || resp.Complaints[0].ID != "1" {
		t.Fatalf("ожидали только свою жалобу, получили %+v", resp.Complaints)
	}
}

func TestSubmitFeedback(t *testing.T) {
	seed := seedComplaints()
	u2 := domain.Identity{ID: "u2", Username: "petr", Role: domain.RoleUser}
	r := newRouter(seed, u2)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/feedback", `{"complaint_id":"2","rating":5,"message":"спасибо"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	var saved domain.Feedback
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if saved.ComplaintID != "2" || saved.Rating != 5 {
		t.Fatalf("неожиданный отзыв: %+v", saved)
	}

	// чужая жалоба
	rec = doRequest(t, newRouter(seed, user1), http.MethodPost, "/api/v1/feedback", `{"complaint_id":"2","rating":4}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("чужая жалоба: ожидали 422, получили %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	r := newRouter(nil, user1)
	rec := doRequest(t, r, http.MethodGet, "/api/v1/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var identity domain.Identity
	if err := json.Unmarshal(rec.Body.Bytes(), &identity); err != nil {
		t.Fatalf("некорректный JSON: %v", err)
	}
	if identity.ID != "u1" || identity.Role != domain.RoleUser {
		t.Fatalf("неожиданная identity: %+v", identity)
	}
}
