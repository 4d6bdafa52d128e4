package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shaiso/Vitrina/internal/domain"
	"github.com/shaiso/Vitrina/internal/repo"
)

// maxBodySize — ограничение тела запроса на создание магазина.
const maxBodySize = 1 << 16

// ListStores возвращает список магазинов, новые первыми.
// GET /api/stores?status=...&include_deleted=...&limit=...&offset=...
func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.TaskFilter{
		Limit:  parseIntParam(q.Get("limit"), 0),
		Offset: parseIntParam(q.Get("offset"), 0),
	}

	if s := q.Get("status"); s != "" {
		status, ok := domain.ParseTaskStatus(s)
		if !ok {
			BadRequest(w, "invalid status")
			return
		}
		filter.Status = status
	}
	if v := q.Get("include_deleted"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			BadRequest(w, "invalid include_deleted")
			return
		}
		filter.IncludeDeleted = include
	}

	tasks, err := h.stores.List(r.Context(), filter)
	if HandleError(w, h.logger, err) {
		return
	}

	result := make([]StoreResponse, len(tasks))
	for i, t := range tasks {
		result[i] = StoreFromDomain(t)
	}
	List(w, result, len(result))
}

// GetStore возвращает магазин вместе с журналом событий.
// GET /api/stores/{id}
func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	task, err := h.stores.GetByID(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}

	events, err := h.events.ListByTask(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, StoreDetailResponse{
		Store:  StoreFromDomain(*task),
		Events: eventsFromDomain(events),
	})
}

// CreateStore принимает запрос на развёртывание магазина.
// POST /api/stores
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Type != "" && req.Type != domain.DefaultStoreType {
		BadRequest(w, "unsupported store type: "+req.Type)
		return
	}

	sub, err := h.orch.SubmitProvision(r.Context(), req.Name, req.Type)
	if HandleError(w, h.logger, err) {
		return
	}

	message := "Store provisioning started"
	if sub.Position > 0 {
		message = "Store provisioning queued"
	}
	resp := SubmissionFromResult(sub, message)
	resp.Name = strings.TrimSpace(req.Name)
	resp.Type = domain.DefaultStoreType
	Accepted(w, resp)
}

// DeleteStore запускает удаление магазина.
// DELETE /api/stores/{id}
func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	sub, err := h.orch.SubmitDelete(r.Context(), r.PathValue("id"))
	if HandleError(w, h.logger, err) {
		return
	}
	Accepted(w, SubmissionFromResult(sub, "Store deletion started"))
}

// parseIntParam парсит неотрицательное число из query, иначе def.
func parseIntParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
