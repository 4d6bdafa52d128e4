package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// StoreResponse — магазин из API.
type StoreResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Namespace string `json:"namespace"`
	URL       string `json:"url,omitempty"`
	AdminURL  string `json:"admin_url,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// EventResponse — событие из API.
type EventResponse struct {
	ID        int64  `json:"id"`
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name,omitempty"`
	Type      string `json:"event_type"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	CreatedAt string `json:"created_at"`
}

// StoreDetailResponse — магазин с журналом событий.
type StoreDetailResponse struct {
	Store  StoreResponse   `json:"store"`
	Events []EventResponse `json:"events"`
}

// SubmissionResponse — ответ на принятый запрос.
type SubmissionResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type,omitempty"`
	Status        string `json:"status"`
	URL           string `json:"url,omitempty"`
	QueuePosition int    `json:"queue_position,omitempty"`
	Message       string `json:"message"`
}

// MetricsResponse — сводка по магазинам.
type MetricsResponse struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	Provisioning  int `json:"provisioning"`
	Failed        int `json:"failed"`
	ActiveWorkers int `json:"active_workers"`
	QueueLength   int `json:"queue_length"`
}

// --- Request types ---

// CreateStoreRequest — создание магазина.
type CreateStoreRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ListStoresOpts — параметры фильтрации магазинов.
type ListStoresOpts struct {
	Status         string
	IncludeDeleted bool
	Limit          int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Vitrina API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Stores ---

// ListStores возвращает магазины.
func (c *Client) ListStores(opts ListStoresOpts) ([]StoreResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.IncludeDeleted {
		params.Set("include_deleted", "true")
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var stores []StoreResponse
	err := c.list("/api/stores", params, &stores)
	return stores, err
}

// CreateStore запрашивает развёртывание магазина.
func (c *Client) CreateStore(req CreateStoreRequest) (*SubmissionResponse, error) {
	var sub SubmissionResponse
	err := c.post("/api/stores", req, &sub)
	return &sub, err
}

// GetStore возвращает магазин с событиями.
func (c *Client) GetStore(id string) (*StoreDetailResponse, error) {
	var detail StoreDetailResponse
	err := c.get("/api/stores/"+url.PathEscape(id), &detail)
	return &detail, err
}

// DeleteStore запрашивает удаление магазина.
func (c *Client) DeleteStore(id string) (*SubmissionResponse, error) {
	var sub SubmissionResponse
	err := c.doData(http.MethodDelete, "/api/stores/"+url.PathEscape(id), nil, &sub)
	return &sub, err
}

// --- Events и сводка ---

// ListEvents возвращает последние события.
func (c *Client) ListEvents(limit int) ([]EventResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var events []EventResponse
	err := c.list("/api/events", params, &events)
	return events, err
}

// GetMetrics возвращает сводку по магазинам.
func (c *Client) GetMetrics() (*MetricsResponse, error) {
	var m MetricsResponse
	err := c.get("/api/metrics", &m)
	return &m, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
