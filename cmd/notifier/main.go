package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"complaints-service/internal/adapters/notify"
	"complaints-service/internal/domain"
	"complaints-service/internal/infra/cache"
	"complaints-service/internal/infra/config"
	applog "complaints-service/internal/infra/log"
	"complaints-service/internal/infra/metrics"
	"complaints-service/internal/infra/queue"
)

// dedupTTL ограничивает окно повторной доставки одного задания.
const dedupTTL = 24 * time.Hour

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("component", "notifier").Logger()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: не удалось создать telegram-бота")
	}
	notifier := notify.NewTelegram(botAPI, logger)

	var dedup *cache.RedisCache
	var notifications domain.NotificationQueue
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		dedup = cache.NewRedis(redisClient)
		notifications = queue.NewRedisNotificationQueue(redisClient, cfg.Queues.Notifications)
	}
	if cfg.AMQPURL != "" {
		rabbit, err := queue.NewRabbitNotificationQueue(cfg.AMQPURL, cfg.Queues.Notifications)
		if err != nil {
			logger.Fatal().Err(err).Msg("notifier: нет подключения к RabbitMQ")
		}
		defer rabbit.Close()
		notifications = rabbit
	}
	if notifications == nil {
		logger.Fatal().Msg("notifier: нужен REDIS_ADDR или AMQP_URL")
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	logger.Info().Msg("notifier: запуск обработки очереди")
	run(ctx, logger, notifications, notifier, dedup)
	logger.Info().Msg("notifier: остановлен")
}

func run(ctx context.Context, logger zerolog.Logger, notifications domain.NotificationQueue, notifier domain.Notifier, dedup *cache.RedisCache) {
	for {
		job, err := notifications.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("notifier: ошибка чтения очереди")
			time.Sleep(time.Second)
			continue
		}
		deliver := func() error {
			return notifier.Notify(ctx, job)
		}
		if dedup != nil {
			err = dedup.Once("notify:"+job.ID, dedupTTL, deliver)
		} else {
			err = deliver()
		}
		if err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Str("complaint_id", job.ComplaintID).Msg("notifier: доставка не удалась")
		}
	}
}
