// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/EvgeniyKhan/post/internal/http/response"
	"github.com/EvgeniyKhan/post/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc адаптер функции к Pinger.
type PingerFunc func(ctx context.Context) error

// Ping вызывает f(ctx).
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Handler отвечает 200, когда все зависимости доступны, иначе 503.
type Handler struct {
	log  *slog.Logger
	deps map[string]Pinger
}

// New создает новый Handler. deps имя зависимости и проверка.
func New(log *slog.Logger, deps map[string]Pinger) *Handler {
	return &Handler{
		log:  log,
		deps: deps,
	}
}

// ServeHTTP godoc
// @Summary Проверка готовности
// @Tags Health
// @Produce  json
// @Success 200 {object} map[string]any "Сервис готов"
// @Failure 503 {object} map[string]any "Зависимость недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	checks := make(map[string]string, len(h.deps))
	healthy := true
	for name, dep := range h.deps {
		if err := dep.Ping(r.Context()); err != nil {
			h.log.Error("dependency is down", slog.String("op", op), slog.String("dep", name), sl.Err(err))
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{Status: response.StatusError, Error: "dependency unavailable", Data: checks})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(checks))
}
