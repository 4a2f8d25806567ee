package domain

import "time"

const (
	// RatingMin и RatingMax ограничивают допустимую оценку.
	RatingMin = 1
	RatingMax = 5
)

// Feedback представляет отзыв пользователя о решённой жалобе.
// Отзыв ссылается на жалобу, но не владеет ею и не изменяет её.
type Feedback struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	UserID      string    `json:"user_id"`
	Rating      int       `json:"rating"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
