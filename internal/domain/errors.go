package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrComplaintNotFound возвращается, когда жалоба не найдена.
	ErrComplaintNotFound = errors.New("complaint not found")
)

// ValidationError сигнализирует о нарушении входного контракта операции.
// Состояние хранилища при такой ошибке не меняется.
type ValidationError struct {
	Reason string
}

// NewValidationError создаёт ошибку валидации.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Reason }

// IsValidation сообщает, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
