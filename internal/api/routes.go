package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Metrics(),
		Logging(h.logger),
		CORS(h.corsOrigin),
	)

	// Stores
	mux.Handle("GET /api/stores", chain(http.HandlerFunc(h.ListStores)))
	mux.Handle("POST /api/stores", chain(http.HandlerFunc(h.CreateStore)))
	mux.Handle("GET /api/stores/{id}", chain(http.HandlerFunc(h.GetStore)))
	mux.Handle("DELETE /api/stores/{id}", chain(http.HandlerFunc(h.DeleteStore)))

	// Events и сводка
	mux.Handle("GET /api/events", chain(http.HandlerFunc(h.ListEvents)))
	mux.Handle("GET /api/metrics", chain(http.HandlerFunc(h.GetMetrics)))

	// Preflight для браузерного dashboard
	mux.Handle("OPTIONS /api/", chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		NoContent(w)
	})))

	mux.Handle("GET /health", chain(http.HandlerFunc(h.Health)))
}
