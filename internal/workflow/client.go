package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	headerRetries        = "Upstash-Retries"
	headerWorkflowRunID  = "Upstash-Workflow-RunId"
	headerForwardPrefix  = "Upstash-Forward-"
	defaultClientTimeout = 10 * time.Second
)

// Client отправляет запросы на запуск workflow.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент. timeout ограничивает единственную попытку запуска.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, req TriggerRequest, runID string) (*http.Request, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req.Body); err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/v2/trigger/" + url.PathEscape(req.URL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerRetries, strconv.Itoa(req.Retries))
	httpReq.Header.Set(headerWorkflowRunID, runID)
	for k, v := range req.Headers {
		httpReq.Header.Set(headerForwardPrefix+k, v)
	}
	return httpReq, nil
}

// Trigger выполняет одну попытку запуска workflow с заданным runID и возвращает
// идентификатор запуска из ответа сервиса. Запрос не повторяется.
func (c *Client) Trigger(ctx context.Context, req TriggerRequest, runID string) (string, error) {
	const op = "workflow.Trigger"

	httpReq, err := c.newRequest(ctx, req, runID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, strings.TrimSpace(string(msg)))
	}

	var out triggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	switch {
	case out.WorkflowRunID == "":
		// Сервис принял запуск с заголовком Upstash-Workflow-RunId, но не вернул его в теле.
		return runID, nil
	case out.WorkflowRunID != runID:
		return "", fmt.Errorf("%s: run id mismatch: sent %s, got %s", op, runID, out.WorkflowRunID)
	}
	return out.WorkflowRunID, nil
}
