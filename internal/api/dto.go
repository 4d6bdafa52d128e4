package api

import (
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
	"github.com/shaiso/Vitrina/internal/orchestrator"
)

// Store DTOs

// CreateStoreRequest — запрос на создание магазина.
type CreateStoreRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// StoreResponse — ответ с магазином.
type StoreResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Namespace string    `json:"namespace"`
	URL       string    `json:"url,omitempty"`
	AdminURL  string    `json:"admin_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreFromDomain конвертирует domain.Task в StoreResponse.
func StoreFromDomain(t domain.Task) StoreResponse {
	return StoreResponse{
		ID:        t.ID,
		Name:      t.Name,
		Type:      t.StoreType,
		Status:    string(t.Status),
		Namespace: t.Namespace,
		URL:       t.URL,
		AdminURL:  t.AdminURL,
		Error:     t.Error,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// StoreDetailResponse — магазин с журналом событий.
type StoreDetailResponse struct {
	Store  StoreResponse   `json:"store"`
	Events []EventResponse `json:"events"`
}

// SubmissionResponse — ответ на принятый запрос (202).
type SubmissionResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type,omitempty"`
	Status        string `json:"status"`
	URL           string `json:"url,omitempty"`
	QueuePosition int    `json:"queue_position,omitempty"`
	Message       string `json:"message"`
}

// SubmissionFromResult конвертирует orchestrator.Submission в SubmissionResponse.
func SubmissionFromResult(s *orchestrator.Submission, message string) SubmissionResponse {
	return SubmissionResponse{
		ID:            s.TaskID,
		Status:        string(s.Status),
		URL:           s.URL,
		QueuePosition: s.Position,
		Message:       message,
	}
}

// Event DTOs

// EventResponse — ответ с событием.
type EventResponse struct {
	ID        int64     `json:"id"`
	StoreID   string    `json:"store_id"`
	StoreName string    `json:"store_name,omitempty"`
	Type      string    `json:"event_type"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// EventFromDomain конвертирует domain.Event в EventResponse.
func EventFromDomain(e domain.Event) EventResponse {
	return EventResponse{
		ID:        e.ID,
		StoreID:   e.TaskID,
		StoreName: e.StoreName,
		Type:      e.Type,
		Message:   e.Message,
		Severity:  string(e.Severity),
		CreatedAt: e.CreatedAt,
	}
}

func eventsFromDomain(events []domain.Event) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, e := range events {
		result[i] = EventFromDomain(e)
	}
	return result
}

// Summary DTOs

// MetricsResponse — сводка по магазинам.
type MetricsResponse struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Provisioning int `json:"provisioning"`
	Failed       int `json:"failed"`

	// Состояние оркестратора этого процесса.
	ActiveWorkers int `json:"active_workers"`
	QueueLength   int `json:"queue_length"`
}

// HealthResponse — ответ health check.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}
