package complaints

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaints-service/internal/domain"
	"complaints-service/internal/infra/metrics"
	"complaints-service/internal/usecase/query"
)

const summaryCacheKey = "complaints:summary"

// Service реализует правила работы с жалобами: подача, смена статуса,
// ответ администратора и отзывы. Разграничение ролей выполняет
// вызывающий слой; сервис проверяет только владение данными.
type Service struct {
	complaints domain.ComplaintRepo
	feedback   domain.FeedbackRepo
	queue      domain.NotificationQueue
	cache      domain.Cache
	cacheTTL   time.Duration
	log        zerolog.Logger
}

// NewService создаёт сервис жалоб. Очередь и кэш опциональны.
func NewService(complaints domain.ComplaintRepo, feedback domain.FeedbackRepo, queue domain.NotificationQueue, cache domain.Cache, cacheTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		complaints: complaints,
		feedback:   feedback,
		queue:      queue,
		cache:      cache,
		cacheTTL:   cacheTTL,
		log:        logger,
	}
}

// SubmitParams содержит поля новой жалобы.
type SubmitParams struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// Submit валидирует и сохраняет новую жалобу от имени пользователя.
func (s *Service) Submit(ctx context.Context, identity domain.Identity, params SubmitParams) (domain.Complaint, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return domain.Complaint{}, domain.NewValidationError("заголовок не может быть пустым")
	}
	description := strings.TrimSpace(params.Description)
	if description == "" {
		return domain.Complaint{}, domain.NewValidationError("описание не может быть пустым")
	}
	category, err := domain.ParseCategory(params.Category)
	if err != nil {
		return domain.Complaint{}, err
	}
	priority, err := domain.ParsePriority(params.Priority)
	if err != nil {
		return domain.Complaint{}, err
	}

	now := time.Now().UTC()
	complaint := domain.Complaint{
		ID:          uuid.NewString(),
		UserID:      identity.ID,
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.complaints.Create(ctx, complaint)
	if err != nil {
		return domain.Complaint{}, fmt.Errorf("сохранение жалобы: %w", err)
	}
	metrics.IncComplaintCreated(string(category), string(priority))
	s.log.Info().Str("complaint_id", created.ID).Str("user_id", identity.ID).Msg("жалоба создана")
	return created, nil
}

// ListAll возвращает все жалобы, отфильтрованные и отсортированные
// по спецификации.
func (s *Service) ListAll(ctx context.Context, spec query.Spec) ([]domain.Complaint, error) {
	start := time.Now()
	all, err := s.complaints.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение коллекции: %w", err)
	}
	result := query.Apply(all, spec)
	metrics.ObserveQueryDuration(time.Since(start))
	return result, nil
}

// ListForUser возвращает жалобы пользователя. Спецификация применяется
// к уже ограниченной владельцем выборке.
func (s *Service) ListForUser(ctx context.Context, identity domain.Identity, spec query.Spec) ([]domain.Complaint, error) {
	all, err := s.complaints.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение коллекции: %w", err)
	}
	return query.Apply(query.ForUser(all, identity.ID), spec), nil
}

// ResolvedForUser возвращает решённые жалобы пользователя —
// кандидатов для отзыва.
func (s *Service) ResolvedForUser(ctx context.Context, identity domain.Identity) ([]domain.Complaint, error) {
	all, err := s.complaints.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение коллекции: %w", err)
	}
	return query.Resolved(query.ForUser(all, identity.ID)), nil
}

// Get возвращает жалобу по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Complaint, error) {
	return s.complaints.GetByID(ctx, id)
}

// Overview считает сводку по полной коллекции; результат кэшируется
// на короткий срок.
func (s *Service) Overview(ctx context.Context) (query.Counters, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(summaryCacheKey); err == nil && len(raw) > 0 {
			var counters query.Counters
			if err := json.Unmarshal(raw, &counters); err == nil {
				return counters, nil
			}
		}
	}
	all, err := s.complaints.GetAll(ctx)
	if err != nil {
		return query.Counters{}, fmt.Errorf("чтение коллекции: %w", err)
	}
	counters := query.Summary(all)
	if s.cache != nil {
		if raw, err := json.Marshal(counters); err == nil {
			if err := s.cache.Set(summaryCacheKey, raw, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("не удалось закэшировать сводку")
			}
		}
	}
	return counters, nil
}

// SetStatus переводит жалобу в новый статус. Допустим любой известный
// статус из любого состояния: селектор администратора намеренно
// свободный. AdminResponse не затрагивается.
func (s *Service) SetStatus(ctx context.Context, id, rawStatus string) (domain.Complaint, error) {
	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return domain.Complaint{}, err
	}
	updated, err := s.complaints.Update(ctx, id, domain.ComplaintPatch{Status: &status})
	if err != nil {
		return domain.Complaint{}, err
	}
	metrics.IncStatusTransition(string(status))
	s.log.Info().Str("complaint_id", id).Str("status", string(status)).Msg("статус обновлён")
	s.enqueue(ctx, domain.Notification{
		ID:          uuid.NewString(),
		ComplaintID: updated.ID,
		UserID:      updated.UserID,
		Kind:        domain.NotificationStatusChanged,
		Status:      updated.Status,
	})
	return updated, nil
}

// Respond записывает ответ администратора и переводит жалобу
// в in-progress: ответ означает, что работа началась. Пустой или
// пробельный текст отклоняется до какой-либо записи.
func (s *Service) Respond(ctx context.Context, id, text string) (domain.Complaint, error) {
	response := strings.TrimSpace(text)
	if response == "" {
		return domain.Complaint{}, domain.NewValidationError("ответ не может быть пустым")
	}
	status := domain.StatusInProgress
	updated, err := s.complaints.Update(ctx, id, domain.ComplaintPatch{
		Status:        &status,
		AdminResponse: &response,
	})
	if err != nil {
		return domain.Complaint{}, err
	}
	metrics.IncAdminResponse()
	s.log.Info().Str("complaint_id", id).Msg("ответ администратора сохранён")
	s.enqueue(ctx, domain.Notification{
		ID:          uuid.NewString(),
		ComplaintID: updated.ID,
		UserID:      updated.UserID,
		Kind:        domain.NotificationAdminResponse,
		Status:      updated.Status,
		Response:    response,
	})
	return updated, nil
}

// FeedbackParams содержит поля отзыва.
type FeedbackParams struct {
	ComplaintID string
	Rating      int
	Message     string
}

// SubmitFeedback прикрепляет отзыв к решённой жалобе пользователя.
// Любое нарушение контракта — ошибка валидации без частичной записи.
func (s *Service) SubmitFeedback(ctx context.Context, identity domain.Identity, params FeedbackParams) (domain.Feedback, error) {
	// диапазон оценки проверяется до состояния жалобы
	if params.Rating < domain.RatingMin || params.Rating > domain.RatingMax {
		return domain.Feedback{}, domain.NewValidationError("оценка %d вне диапазона %d..%d", params.Rating, domain.RatingMin, domain.RatingMax)
	}
	complaint, err := s.complaints.GetByID(ctx, params.ComplaintID)
	if err != nil {
		return domain.Feedback{}, domain.NewValidationError("жалоба %s не найдена", params.ComplaintID)
	}
	if complaint.UserID != identity.ID {
		return domain.Feedback{}, domain.NewValidationError("отзыв можно оставить только о своей жалобе")
	}
	feedback := domain.Feedback{
		ID:          uuid.NewString(),
		ComplaintID: params.ComplaintID,
		UserID:      identity.ID,
		Rating:      params.Rating,
		Message:     strings.TrimSpace(params.Message),
		CreatedAt:   time.Now().UTC(),
	}
	// хранилище повторно проверяет статус resolved под своей блокировкой
	saved, err := s.feedback.AddFeedback(ctx, feedback)
	if err != nil {
		return domain.Feedback{}, err
	}
	metrics.IncFeedback(saved.Rating)
	s.log.Info().Str("complaint_id", saved.ComplaintID).Int("rating", saved.Rating).Msg("отзыв сохранён")
	return saved, nil
}

func (s *Service) enqueue(ctx context.Context, job domain.Notification) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Error().Err(err).Str("complaint_id", job.ComplaintID).Msg("не удалось поставить уведомление в очередь")
	}
}
