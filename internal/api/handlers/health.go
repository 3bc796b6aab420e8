package handlers

import (
	"context"
	"net/http"

	"github.com/legalmind/legalmind/internal/api"
)

// Pinger reports reachability of one dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /health: 200 when the chunk store and the
// semantic cache are both reachable, 503 otherwise.
type HealthHandler struct {
	store Pinger
	cache Pinger
}

func NewHealthHandler(store, cache Pinger) *HealthHandler {
	return &HealthHandler{store: store, cache: cache}
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"store": checkResult(h.store.Ping(r.Context())),
		"cache": checkResult(h.cache.Ping(r.Context())),
	}

	status := http.StatusOK
	body := healthBody{Status: "healthy", Checks: checks}
	for _, result := range checks {
		if result != "ok" {
			status = http.StatusServiceUnavailable
			body.Status = "degraded"
			break
		}
	}

	api.JSON(w, status, body)
}

func checkResult(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
