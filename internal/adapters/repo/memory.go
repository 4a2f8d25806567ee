package repo

import (
	"context"
	"sync"
	"time"

	"complaints-service/internal/domain"
)

// Memory реализует репозитории жалоб и отзывов в памяти процесса.
// Единственный мьютекс делает каждую операцию чтения-изменения-записи
// атомарной для конкурентных вызовов.
type Memory struct {
	mu         sync.RWMutex
	complaints map[string]domain.Complaint
	order      []string
	feedback   []domain.Feedback
	now        func() time.Time
}

var (
	_ domain.ComplaintRepo = (*Memory)(nil)
	_ domain.FeedbackRepo  = (*Memory)(nil)
)

// NewMemory создаёт хранилище с начальными данными.
func NewMemory(seed []domain.Complaint) *Memory {
	m := &Memory{
		complaints: make(map[string]domain.Complaint, len(seed)),
		order:      make([]string, 0, len(seed)),
		now:        time.Now,
	}
	for _, c := range seed {
		if _, ok := m.complaints[c.ID]; ok {
			continue
		}
		if c.UpdatedAt.Before(c.CreatedAt) {
			c.UpdatedAt = c.CreatedAt
		}
		m.complaints[c.ID] = c
		m.order = append(m.order, c.ID)
	}
	return m
}

// Create сохраняет новую жалобу.
func (m *Memory) Create(ctx context.Context, complaint domain.Complaint) (domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if complaint.ID == "" {
		return domain.Complaint{}, domain.NewValidationError("пустой идентификатор жалобы")
	}
	if _, ok := m.complaints[complaint.ID]; ok {
		return domain.Complaint{}, domain.NewValidationError("жалоба %s уже существует", complaint.ID)
	}
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = m.now()
	}
	if complaint.UpdatedAt.Before(complaint.CreatedAt) {
		complaint.UpdatedAt = complaint.CreatedAt
	}
	m.complaints[complaint.ID] = complaint
	m.order = append(m.order, complaint.ID)
	return complaint, nil
}

// GetAll возвращает копию коллекции в порядке добавления.
// Порядок не несёт смысла для вызывающих: сортировка на их стороне.
func (m *Memory) GetAll(ctx context.Context) ([]domain.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Complaint, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.complaints[id])
	}
	return out, nil
}

// GetByID возвращает жалобу по идентификатору.
func (m *Memory) GetByID(ctx context.Context, id string) (domain.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.complaints[id]
	if !ok {
		return domain.Complaint{}, domain.ErrComplaintNotFound
	}
	return c, nil
}

// Update применяет частичное обновление и обновляет UpdatedAt.
// UpdatedAt строго растёт: при совпадении часов добавляется наносекунда.
func (m *Memory) Update(ctx context.Context, id string, patch domain.ComplaintPatch) (domain.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return domain.Complaint{}, domain.ErrComplaintNotFound
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.AdminResponse != nil {
		c.AdminResponse = *patch.AdminResponse
	}
	now := m.now()
	if !now.After(c.UpdatedAt) {
		now = c.UpdatedAt.Add(time.Nanosecond)
	}
	c.UpdatedAt = now
	m.complaints[id] = c
	return c, nil
}

// AddFeedback добавляет отзыв после проверки контракта:
// жалоба существует, решена и оценка в допустимом диапазоне.
func (m *Memory) AddFeedback(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if feedback.Rating < domain.RatingMin || feedback.Rating > domain.RatingMax {
		return domain.Feedback{}, domain.NewValidationError("оценка %d вне диапазона %d..%d", feedback.Rating, domain.RatingMin, domain.RatingMax)
	}
	c, ok := m.complaints[feedback.ComplaintID]
	if !ok {
		return domain.Feedback{}, domain.NewValidationError("жалоба %s не найдена", feedback.ComplaintID)
	}
	if c.Status != domain.StatusResolved {
		return domain.Feedback{}, domain.NewValidationError("жалоба %s не решена", feedback.ComplaintID)
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = m.now()
	}
	m.feedback = append(m.feedback, feedback)
	return feedback, nil
}

// ListFeedback возвращает отзывы по жалобе.
func (m *Memory) ListFeedback(ctx context.Context, complaintID string) ([]domain.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Feedback
	for _, f := range m.feedback {
		if f.ComplaintID == complaintID {
			out = append(out, f)
		}
	}
	return out, nil
}
