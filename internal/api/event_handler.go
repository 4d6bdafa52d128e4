package api

import (
	"net/http"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
)

// defaultEventLimit — сколько последних событий отдаёт /api/events.
const defaultEventLimit = 50

// ListEvents возвращает последние события всех магазинов.
// GET /api/events?limit=...
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), defaultEventLimit)
	if limit == 0 || limit > 500 {
		limit = defaultEventLimit
	}

	events, err := h.events.ListRecent(r.Context(), limit)
	if HandleError(w, h.logger, err) {
		return
	}
	List(w, eventsFromDomain(events), len(events))
}

// GetMetrics возвращает сводку по магазинам.
// GET /api/metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	counts, err := h.stores.CountByStatus(r.Context())
	if HandleError(w, h.logger, err) {
		return
	}

	resp := MetricsResponse{
		Active: counts[domain.TaskStatusReady],
		Provisioning: counts[domain.TaskStatusQueued] +
			counts[domain.TaskStatusProvisioning] +
			counts[domain.TaskStatusDeleting],
		Failed: counts[domain.TaskStatusFailed],
	}
	for status, n := range counts {
		if status != domain.TaskStatusDeleted {
			resp.Total += n
		}
	}
	resp.ActiveWorkers, resp.QueueLength = h.orch.Stats()

	Success(w, resp)
}

// Health — проверка живости.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startedAt).Seconds(),
	})
}
