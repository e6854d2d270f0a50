package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/fixora/storefront/infrastructure/http/response"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger logger.Logger
}

func NewHealthHandler(db Pinger, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error(r.Context(), "health check failed", err, nil)
		response.ServiceUnavailable(w, "database unavailable")
		return
	}
	response.Success(w, http.StatusOK, "ok", map[string]string{"database": "up"})
}
