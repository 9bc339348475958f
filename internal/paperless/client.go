// Package paperless is a minimal client for the Paperless-ngx REST API:
// name catalogs, document upload and consumption-task polling.
package paperless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pweiler/ecodms2paperless/internal/models"
	apperrors "github.com/pweiler/ecodms2paperless/pkg/errors"
)

// Task statuses reported by the tasks endpoint.
const (
	taskStatusSuccess = "SUCCESS"
	taskStatusFailure = "FAILURE"
)

// ClientConfig carries connection and polling parameters.
type ClientConfig struct {
	BaseURL         string
	Token           string
	PollInterval    time.Duration
	PollMaxAttempts int
	HTTPClient      *http.Client
}

// Client talks to one Paperless-ngx instance.
type Client struct {
	baseURL         string
	token           string
	httpClient      *http.Client
	pollInterval    time.Duration
	pollMaxAttempts int
	logger          *zap.Logger
}

// NewClient constructs the client with defaults applied.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 60
	}
	return &Client{
		baseURL:         cfg.BaseURL,
		token:           cfg.Token,
		httpClient:      cfg.HTTPClient,
		pollInterval:    cfg.PollInterval,
		pollMaxAttempts: cfg.PollMaxAttempts,
		logger:          logger,
	}
}

// UploadMetadata holds the optional form fields of a document upload. Zero
// values are omitted from the request entirely.
type UploadMetadata struct {
	Title               string
	Created             string
	Tags                []int
	DocumentTypeID      *int
	ArchiveSerialNumber *int
}

type listResponse struct {
	Results []models.CatalogEntry `json:"results"`
}

// ListTags fetches the full tag catalog.
func (c *Client) ListTags(ctx context.Context) ([]models.CatalogEntry, error) {
	return c.listCatalog(ctx, "tags")
}

// CreateTag creates a tag by name.
func (c *Client) CreateTag(ctx context.Context, name string) error {
	return c.createCatalogEntry(ctx, "tags", name)
}

// ListDocumentTypes fetches the full document-type catalog.
func (c *Client) ListDocumentTypes(ctx context.Context) ([]models.CatalogEntry, error) {
	return c.listCatalog(ctx, "document_types")
}

// CreateDocumentType creates a document type by name.
func (c *Client) CreateDocumentType(ctx context.Context, name string) error {
	return c.createCatalogEntry(ctx, "document_types", name)
}

func (c *Client) listCatalog(ctx context.Context, kind string) ([]models.CatalogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/", c.baseURL, kind), nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list %s: status %d: %s", kind, resp.StatusCode, body)
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", kind, err)
	}
	return list.Results, nil
}

func (c *Client) createCatalogEntry(ctx context.Context, kind, name string) error {
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s/", c.baseURL, kind), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCatalogCreate.Code, true,
			fmt.Sprintf("create %s %q", kind, name))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.Clonef(apperrors.ErrCatalogCreate,
			"create %s %q: status %d: %s", kind, name, resp.StatusCode, body)
	}
	c.logger.Info("created catalog entry", zap.String("catalog", kind), zap.String("name", name))
	return nil
}

// UploadDocument sends the file and its metadata as one multipart request and
// returns the opaque consumption-task id.
func (c *Client) UploadDocument(ctx context.Context, filePath string, meta UploadMetadata) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer file.Close() //nolint:errcheck

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("document", filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if err := writeMetadata(form, meta); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/post_document/", &buf)
	if err != nil {
		return "", err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrUploadRejected.Code, false, "upload request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.Clonef(apperrors.ErrUploadRejected,
			"upload rejected: status %d: %s", resp.StatusCode, body)
	}

	// The response body is the JSON-quoted task UUID.
	var taskID string
	if err := json.Unmarshal(body, &taskID); err != nil {
		return "", fmt.Errorf("decode task id %q: %w", body, err)
	}
	return taskID, nil
}

func writeMetadata(form *multipart.Writer, meta UploadMetadata) error {
	if meta.Title != "" {
		if err := form.WriteField("title", meta.Title); err != nil {
			return err
		}
	}
	if meta.Created != "" {
		if err := form.WriteField("created", meta.Created); err != nil {
			return err
		}
	}
	for _, id := range meta.Tags {
		if err := form.WriteField("tags", strconv.Itoa(id)); err != nil {
			return err
		}
	}
	if meta.DocumentTypeID != nil {
		if err := form.WriteField("document_type", strconv.Itoa(*meta.DocumentTypeID)); err != nil {
			return err
		}
	}
	if meta.ArchiveSerialNumber != nil {
		if err := form.WriteField("archive_serial_number", strconv.Itoa(*meta.ArchiveSerialNumber)); err != nil {
			return err
		}
	}
	return nil
}

type taskStatus struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// WaitForTask polls the consumption task until it reaches a terminal state,
// the attempt budget is exhausted or ctx is cancelled.
func (c *Client) WaitForTask(ctx context.Context, taskID string) error {
	for attempt := 1; attempt <= c.pollMaxAttempts; attempt++ {
		status, err := c.taskState(ctx, taskID)
		if err != nil {
			return err
		}
		switch status {
		case taskStatusSuccess:
			return nil
		case taskStatusFailure:
			return apperrors.Clonef(apperrors.ErrTaskFailed, "task %s reported FAILURE", taskID)
		}

		c.logger.Debug("task still pending",
			zap.String("task_id", taskID),
			zap.String("status", status),
			zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return apperrors.Clonef(apperrors.ErrTaskTimeout,
		"task %s not finished after %d attempts", taskID, c.pollMaxAttempts)
}

func (c *Client) taskState(ctx context.Context, taskID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/?task_id="+taskID, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("poll task %s: %w", taskID, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("poll task %s: status %d: %s", taskID, resp.StatusCode, body)
	}

	var tasks []taskStatus
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return "", fmt.Errorf("decode task status: %w", err)
	}
	if len(tasks) == 0 {
		return "", fmt.Errorf("poll task %s: empty response", taskID)
	}
	return tasks[0].Status, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Token "+c.token)
}
