package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ComplaintsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaints_created_total",
		Help: "Количество созданных жалоб",
	}, []string{"category", "priority"})

	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_status_transitions_total",
		Help: "Количество смен статуса по целевому статусу",
	}, []string{"status"})

	AdminResponses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "complaint_admin_responses_total",
		Help: "Количество ответов администратора",
	})

	FeedbackSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_feedback_total",
		Help: "Количество отзывов по оценке",
	}, []string{"rating"})

	QueryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "complaint_query_seconds",
		Help:    "Время выборки и сортировки жалоб",
		Buckets: prometheus.DefBuckets,
	})

	NotificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_notifications_total",
		Help: "Количество доставленных уведомлений",
	}, []string{"kind", "status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ComplaintsCreated,
		StatusTransitions,
		AdminResponses,
		FeedbackSubmitted,
		QueryDuration,
		NotificationsDelivered,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncComplaintCreated увеличивает счётчик созданных жалоб.
func IncComplaintCreated(category, priority string) {
	ComplaintsCreated.WithLabelValues(category, priority).Inc()
}

// IncStatusTransition увеличивает счётчик смен статуса.
func IncStatusTransition(status string) {
	StatusTransitions.WithLabelValues(status).Inc()
}

// IncAdminResponse увеличивает счётчик ответов администратора.
func IncAdminResponse() {
	AdminResponses.Inc()
}

// IncFeedback увеличивает счётчик отзывов по оценке.
func IncFeedback(rating int) {
	FeedbackSubmitted.WithLabelValues(strconv.Itoa(rating)).Inc()
}

// IncNotificationDelivered увеличивает счётчик доставленных уведомлений.
func IncNotificationDelivered(kind, status string) {
	NotificationsDelivered.WithLabelValues(kind, status).Inc()
}

// ObserveQueryDuration записывает длительность выборки жалоб.
func ObserveQueryDuration(d time.Duration) {
	QueryDuration.Observe(d.Seconds())
}
