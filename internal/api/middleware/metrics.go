// metrics.go — метрики и журнал HTTP-запросов FunkoWorld.
// Регистрирует метрики: fw_http_requests_total, fw_http_request_duration_seconds.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fw_http_requests_total",
			Help: "Общее количество HTTP-запросов к FunkoWorld",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fw_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к FunkoWorld в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Observe возвращает middleware, который по каждому запросу обновляет
// метрики и пишет строку журнала. Уровень записи зависит от статуса:
// INFO до 3xx, WARN для 4xx, ERROR для 5xx.
func Observe(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				// Обработчик ничего не записал
				status = http.StatusOK
			}
			route := normalizePath(r.URL.Path)

			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

			logger.LogAttrs(r.Context(), levelForStatus(status), "HTTP запрос",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Duration("duration", elapsed),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// normalizePath заменяет идентификаторы в пути на {id} и сворачивает
// файлы загрузок и статики, чтобы ограничить кардинальность метрик.
// /api/v1/funkos/42/image → /api/v1/funkos/{id}/image
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/uploads/"):
		return "/uploads/*"
	case strings.HasPrefix(path, "/static/"):
		return "/static/*"
	}

	prefixes := []string{
		"/api/v1/funkos/",
		"/api/v1/categories/",
		"/funkos/",
	}
	for _, prefix := range prefixes {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" {
			continue
		}
		id, suffix, _ := strings.Cut(rest, "/")
		if id == "create" {
			return path
		}
		if suffix == "" {
			return prefix + "{id}"
		}
		return prefix + "{id}/" + suffix
	}
	return path
}
