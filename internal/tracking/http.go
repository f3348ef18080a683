package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/models"
)

// Client reports runs to a remote tracking service over its HTTP API.
// Every call is synchronous; a failed upload fails the run.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.SugaredLogger
	runID   string
}

// ClientConfig holds the client settings.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a tracking client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger.Sugar(),
	}
}

// Start registers the run with the tracking service.
func (c *Client) Start(ctx context.Context, run *models.Run) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/runs", run); err != nil {
		return err
	}
	c.runID = run.ID
	c.logger.Infow("Tracking run started", "run_id", run.ID, "url", c.baseURL)
	return nil
}

// LogMatch uploads one match's metric set.
func (c *Client) LogMatch(ctx context.Context, rec models.MatchRecord) error {
	if c.runID == "" {
		return errors.New("tracker not started")
	}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/runs/"+c.runID+"/log", MatchMetrics(rec))
}

// LogTable uploads a result table under key.
func (c *Client) LogTable(ctx context.Context, key string, table Table) error {
	if c.runID == "" {
		return errors.New("tracker not started")
	}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/runs/"+c.runID+"/tables/"+key, table)
}

// LogChart uploads a chart definition under key.
func (c *Client) LogChart(ctx context.Context, key string, chart BarChart) error {
	if c.runID == "" {
		return errors.New("tracker not started")
	}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/runs/"+c.runID+"/charts/"+key, chart)
}

// LogImage uploads a rendered PNG under key.
func (c *Client) LogImage(ctx context.Context, key, path string) error {
	if c.runID == "" {
		return errors.New("tracker not started")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/api/v1/runs/"+c.runID+"/files/"+key, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	return c.do(req)
}

// Finish marks the run finished and uploads the summary.
func (c *Client) Finish(ctx context.Context, summary []models.OpponentSummary) error {
	if c.runID == "" {
		return errors.New("tracker not started")
	}
	payload := map[string]any{"summary": summary}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/runs/"+c.runID+"/finish", payload)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
