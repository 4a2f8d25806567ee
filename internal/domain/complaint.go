package domain

import (
	"strings"
	"time"
)

// Status описывает этап жизненного цикла жалобы.
// Токены совпадают с форматом хранения и отображения.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// ParseStatus разбирает токен статуса; неизвестные значения отклоняются.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return s, nil
	}
	return "", NewValidationError("неизвестный статус %q", raw)
}

// Priority описывает приоритет жалобы.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight возвращает вес приоритета для сортировки: high > medium > low.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ParsePriority разбирает токен приоритета.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	}
	return "", NewValidationError("неизвестный приоритет %q", raw)
}

// Category описывает тематику жалобы.
type Category string

const (
	CategoryService   Category = "service"
	CategoryBilling   Category = "billing"
	CategoryTechnical Category = "technical"
	CategoryProduct   Category = "product"
	CategoryOther     Category = "other"
)

// ParseCategory разбирает токен категории.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CategoryService, CategoryBilling, CategoryTechnical, CategoryProduct, CategoryOther:
		return c, nil
	}
	return "", NewValidationError("неизвестная категория %q", raw)
}

// Complaint представляет жалобу пользователя.
type Complaint struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      Category  `json:"category"`
	Priority      Priority  `json:"priority"`
	Status        Status    `json:"status"`
	AdminResponse string    `json:"admin_response,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ComplaintPatch описывает частичное обновление жалобы.
// nil-поля не затрагиваются; UpdatedAt выставляет хранилище.
type ComplaintPatch struct {
	Status        *Status
	AdminResponse *string
}

// Role описывает роль пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity представляет аутентифицированного пользователя,
// передаваемого внешним auth-коллаборатором.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin сообщает, имеет ли пользователь административную роль.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// NotificationKind различает причины уведомления.
type NotificationKind string

const (
	NotificationStatusChanged NotificationKind = "status_changed"
	NotificationAdminResponse NotificationKind = "admin_response"
)

// Notification описывает задачу на доставку уведомления пользователю.
type Notification struct {
	ID          string           `json:"id"`
	ComplaintID string           `json:"complaint_id"`
	UserID      string           `json:"user_id"`
	Kind        NotificationKind `json:"kind"`
	Status      Status           `json:"status,omitempty"`
	Response    string           `json:"response,omitempty"`
}
