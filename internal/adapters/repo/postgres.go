package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"complaints-service/internal/domain"
	"complaints-service/internal/infra/metrics"
)

// Postgres реализует репозитории жалоб и отзывов на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ComplaintRepo = (*Postgres)(nil)
	_ domain.FeedbackRepo  = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const complaintColumns = `id, user_id, title, description, category, priority, status, admin_response, created_at, updated_at`

func scanComplaint(row pgx.Row) (domain.Complaint, error) {
	var (
		c        domain.Complaint
		response sql.NullString
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Description, &c.Category, &c.Priority, &c.Status, &response, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Complaint{}, err
	}
	if response.Valid {
		c.AdminResponse = response.String
	}
	return c, nil
}

// Create сохраняет новую жалобу.
func (p *Postgres) Create(ctx context.Context, complaint domain.Complaint) (domain.Complaint, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO complaints (id, user_id, title, description, category, priority, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING `+complaintColumns+`
`, complaint.ID, complaint.UserID, complaint.Title, complaint.Description, complaint.Category, complaint.Priority, complaint.Status, complaint.CreatedAt, complaint.UpdatedAt)
	created, err := scanComplaint(row)
	metrics.ObserveNetworkRequest("postgres", "complaints_insert", "complaints", start, err)
	if err != nil {
		return domain.Complaint{}, err
	}
	return created, nil
}

// GetAll возвращает коллекцию; порядок вставки не несёт смысла
// для вызывающих.
func (p *Postgres) GetAll(ctx context.Context) ([]domain.Complaint, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+complaintColumns+` FROM complaints`)
	metrics.ObserveNetworkRequest("postgres", "complaints_list", "complaints", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var complaints []domain.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

// GetByID возвращает жалобу по идентификатору.
func (p *Postgres) GetByID(ctx context.Context, id string) (domain.Complaint, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id=$1`, id)
	c, err := scanComplaint(row)
	metrics.ObserveNetworkRequest("postgres", "complaints_get", "complaints", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Complaint{}, domain.ErrComplaintNotFound
	}
	if err != nil {
		return domain.Complaint{}, err
	}
	return c, nil
}

// Update применяет частичное обновление в одной транзакции.
// Строка блокируется FOR UPDATE: чтение-изменение-запись не
// перемешивается между конкурентными вызовами.
func (p *Postgres) Update(ctx context.Context, id string, patch domain.ComplaintPatch) (domain.Complaint, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "complaints", start, err)
	if err != nil {
		return domain.Complaint{}, err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	row := tx.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id=$1 FOR UPDATE`, id)
	current, err := scanComplaint(row)
	metrics.ObserveNetworkRequest("postgres", "complaints_get_for_update", "complaints", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Complaint{}, domain.ErrComplaintNotFound
	}
	if err != nil {
		return domain.Complaint{}, err
	}

	if patch.Status != nil {
		current.Status = *patch.Status
	}
	if patch.AdminResponse != nil {
		current.AdminResponse = *patch.AdminResponse
	}

	var response any
	if current.AdminResponse != "" {
		response = current.AdminResponse
	}

	// GREATEST гарантирует строгий рост updated_at даже при совпадении часов
	start = time.Now()
	row = tx.QueryRow(ctx, `
UPDATE complaints
SET status=$2,
    admin_response=$3,
    updated_at=GREATEST(now(), updated_at + interval '1 microsecond')
WHERE id=$1
RETURNING `+complaintColumns+`
`, id, current.Status, response)
	updated, err := scanComplaint(row)
	metrics.ObserveNetworkRequest("postgres", "complaints_update", "complaints", start, err)
	if err != nil {
		return domain.Complaint{}, err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "complaints", start, err)
	if err != nil {
		return domain.Complaint{}, err
	}
	return updated, nil
}

// AddFeedback добавляет отзыв; статус жалобы проверяется под
// блокировкой строки в той же транзакции.
func (p *Postgres) AddFeedback(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error) {
	if feedback.Rating < domain.RatingMin || feedback.Rating > domain.RatingMax {
		return domain.Feedback{}, domain.NewValidationError("оценка %d вне диапазона %d..%d", feedback.Rating, domain.RatingMin, domain.RatingMax)
	}

	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "complaint_feedback", start, err)
	if err != nil {
		return domain.Feedback{}, err
	}
	defer tx.Rollback(ctx)

	var status domain.Status
	start = time.Now()
	err = tx.QueryRow(ctx, `SELECT status FROM complaints WHERE id=$1 FOR UPDATE`, feedback.ComplaintID).Scan(&status)
	metrics.ObserveNetworkRequest("postgres", "complaints_get_for_update", "complaints", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Feedback{}, domain.NewValidationError("жалоба %s не найдена", feedback.ComplaintID)
	}
	if err != nil {
		return domain.Feedback{}, err
	}
	if status != domain.StatusResolved {
		return domain.Feedback{}, domain.NewValidationError("жалоба %s не решена", feedback.ComplaintID)
	}

	var message any
	if feedback.Message != "" {
		message = feedback.Message
	}
	start = time.Now()
	err = tx.QueryRow(ctx, `
INSERT INTO complaint_feedback (id, complaint_id, user_id, rating, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING created_at
`, feedback.ID, feedback.ComplaintID, feedback.UserID, feedback.Rating, message, feedback.CreatedAt).Scan(&feedback.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "complaint_feedback_insert", "complaint_feedback", start, err)
	if err != nil {
		return domain.Feedback{}, err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "complaint_feedback", start, err)
	if err != nil {
		return domain.Feedback{}, err
	}
	return feedback, nil
}

// ListFeedback возвращает отзывы по жалобе.
func (p *Postgres) ListFeedback(ctx context.Context, complaintID string) ([]domain.Feedback, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, complaint_id, user_id, rating, message, created_at
FROM complaint_feedback WHERE complaint_id=$1
ORDER BY created_at
`, complaintID)
	metrics.ObserveNetworkRequest("postgres", "complaint_feedback_list", "complaint_feedback", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var feedback []domain.Feedback
	for rows.Next() {
		var (
			f       domain.Feedback
			message sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.ComplaintID, &f.UserID, &f.Rating, &message, &f.CreatedAt); err != nil {
			return nil, err
		}
		if message.Valid {
			f.Message = message.String
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}
