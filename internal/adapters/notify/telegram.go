// Package notify доставляет уведомления о жалобах пользователям.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"complaints-service/internal/domain"
	"complaints-service/internal/infra/metrics"
)

// sender — минимальная поверхность tgbotapi.BotAPI, нужная нотификатору.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram отправляет уведомления через Telegram Bot API.
// Идентификатор пользователя трактуется как chat id в десятичной записи.
type Telegram struct {
	bot sender
	log zerolog.Logger
}

// NewTelegram создаёт нотификатор поверх готового бота.
func NewTelegram(bot sender, logger zerolog.Logger) *Telegram {
	return &Telegram{bot: bot, log: logger.With().Str("component", "notify").Logger()}
}

// Notify форматирует и отправляет сообщение о событии. Пользователь
// с нечисловым идентификатором недостижим в Telegram: задание
// считается выполненным, чтобы оно не зациклилось в очереди.
func (t *Telegram) Notify(ctx context.Context, job domain.Notification) error {
	chatID, err := strconv.ParseInt(job.UserID, 10, 64)
	if err != nil {
		t.log.Warn().Str("user_id", job.UserID).Str("complaint_id", job.ComplaintID).Msg("пользователь недоступен для telegram-доставки")
		metrics.IncNotificationDelivered(string(job.Kind), "skipped")
		return nil
	}

	for _, part := range splitMessage(formatMessage(job)) {
		msg := tgbotapi.NewMessage(chatID, part)
		start := time.Now()
		_, err = t.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			metrics.IncNotificationDelivered(string(job.Kind), "error")
			return fmt.Errorf("отправка уведомления %s: %w", job.ID, err)
		}
	}
	metrics.IncNotificationDelivered(string(job.Kind), "ok")
	t.log.Info().Str("complaint_id", job.ComplaintID).Str("kind", string(job.Kind)).Msg("уведомление доставлено")
	return nil
}

func formatMessage(job domain.Notification) string {
	switch job.Kind {
	case domain.NotificationAdminResponse:
		return fmt.Sprintf("Ответ по вашей жалобе %s:\n%s", job.ComplaintID, job.Response)
	case domain.NotificationStatusChanged:
		return fmt.Sprintf("Статус вашей жалобы %s изменён: %s", job.ComplaintID, statusLabel(job.Status))
	default:
		return fmt.Sprintf("Обновление по вашей жалобе %s", job.ComplaintID)
	}
}

func statusLabel(status domain.Status) string {
	switch status {
	case domain.StatusPending:
		return "ожидает рассмотрения"
	case domain.StatusInProgress:
		return "в работе"
	case domain.StatusResolved:
		return "решена"
	case domain.StatusClosed:
		return "закрыта"
	default:
		return string(status)
	}
}
