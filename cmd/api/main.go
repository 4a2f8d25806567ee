package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"complaints-service/internal/adapters/httpapi"
	"complaints-service/internal/adapters/repo"
	"complaints-service/internal/domain"
	"complaints-service/internal/infra/cache"
	"complaints-service/internal/infra/config"
	"complaints-service/internal/infra/db"
	httpinfra "complaints-service/internal/infra/http"
	applog "complaints-service/internal/infra/log"
	"complaints-service/internal/infra/metrics"
	"complaints-service/internal/infra/queue"
	"complaints-service/internal/usecase/complaints"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("api: JWT_SECRET обязателен")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		complaintRepo domain.ComplaintRepo
		feedbackRepo  domain.FeedbackRepo
	)
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к БД")
		}
		defer pool.Close()
		pg := repo.NewPostgres(pool)
		complaintRepo, feedbackRepo = pg, pg
	} else {
		logger.Warn().Msg("api: PG_DSN не задан, используется хранилище в памяти")
		mem := repo.NewMemory(seedComplaints())
		complaintRepo, feedbackRepo = mem, mem
	}

	var summaryCache domain.Cache
	var notifications domain.NotificationQueue
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		summaryCache = cache.NewRedis(redisClient)
		notifications = queue.NewRedisNotificationQueue(redisClient, cfg.Queues.Notifications)
	}
	if cfg.AMQPURL != "" {
		rabbit, err := queue.NewRabbitNotificationQueue(cfg.AMQPURL, cfg.Queues.Notifications)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к RabbitMQ")
		}
		defer rabbit.Close()
		notifications = rabbit
	}

	svc := complaints.NewService(
		complaintRepo,
		feedbackRepo,
		notifications,
		summaryCache,
		cfg.Cache.SummaryTTL,
		logger.With().Str("component", "complaints").Logger(),
	)
	handler := httpapi.NewHandler(svc, logger.With().Str("component", "api").Logger())

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	srv.Router.Group(func(protected chi.Router) {
		protected.Use(httpinfra.AuthMiddleware(cfg.Auth.JWTSecret))
		handler.Register(protected)
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: сервер остановился с ошибкой")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// seedComplaints наполняет in-memory хранилище демонстрационными
// данными для локальной разработки.
func seedComplaints() []domain.Complaint {
	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return []domain.Complaint{
		{
			ID:          "1",
			UserID:      "101",
			Title:       "Долгое ожидание ответа поддержки",
			Description: "Обращение висит без ответа уже третий день.",
			Category:    domain.CategoryService,
			Priority:    domain.PriorityHigh,
			Status:      domain.StatusPending,
			CreatedAt:   base,
			UpdatedAt:   base,
		},
		{
			ID:          "2",
			UserID:      "102",
			Title:       "Двойное списание за подписку",
			Description: "С карты списали оплату дважды за один период.",
			Category:    domain.CategoryBilling,
			Priority:    domain.PriorityHigh,
			Status:      domain.StatusInProgress,
			CreatedAt:   base.Add(26 * time.Hour),
			UpdatedAt:   base.Add(30 * time.Hour),
		},
		{
			ID:          "3",
			UserID:      "101",
			Title:       "Не открывается страница профиля",
			Description: "После входа страница профиля показывает ошибку 500.",
			Category:    domain.CategoryTechnical,
			Priority:    domain.PriorityMedium,
			Status:      domain.StatusResolved,
			CreatedAt:   base.Add(50 * time.Hour),
			UpdatedAt:   base.Add(72 * time.Hour),
		},
		{
			ID:          "4",
			UserID:      "103",
			Title:       "Неверное описание тарифа",
			Description: "В карточке тарифа указаны устаревшие условия.",
			Category:    domain.CategoryProduct,
			Priority:    domain.PriorityLow,
			Status:      domain.StatusClosed,
			CreatedAt:   base.Add(100 * time.Hour),
			UpdatedAt:   base.Add(120 * time.Hour),
		},
	}
}
