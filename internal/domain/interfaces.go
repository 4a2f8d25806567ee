package domain

import (
	"context"
	"time"
)

// ComplaintRepo управляет коллекцией жалоб.
// Порядок, возвращаемый GetAll, не несёт смысла: вызывающий сортирует сам.
type ComplaintRepo interface {
	Create(ctx context.Context, complaint Complaint) (Complaint, error)
	GetAll(ctx context.Context) ([]Complaint, error)
	GetByID(ctx context.Context, id string) (Complaint, error)
	Update(ctx context.Context, id string, patch ComplaintPatch) (Complaint, error)
}

// FeedbackRepo управляет отзывами о решённых жалобах.
type FeedbackRepo interface {
	AddFeedback(ctx context.Context, feedback Feedback) (Feedback, error)
	ListFeedback(ctx context.Context, complaintID string) ([]Feedback, error)
}

// NotificationQueue доставляет задачи уведомлений воркеру.
type NotificationQueue interface {
	Enqueue(ctx context.Context, job Notification) error
	Pop(ctx context.Context) (Notification, error)
}

// Notifier отправляет уведомление пользователю.
type Notifier interface {
	Notify(ctx context.Context, job Notification) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
