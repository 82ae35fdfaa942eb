package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clinkerflow/clinkerflow/internal/config"
	"github.com/clinkerflow/clinkerflow/internal/observability/tracing"
	"github.com/clinkerflow/clinkerflow/internal/solver/domain"
)

type solverClient struct {
	baseURL    string
	resultFile string
	httpClient *http.Client
	log        *zap.Logger
}

// New builds the HTTP client for the remote optimization service.
func New(cfg config.Config, log *zap.Logger) domain.Client {
	timeout := time.Duration(cfg.SolverTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &solverClient{
		baseURL:    strings.TrimRight(cfg.SolverBaseURL, "/"),
		resultFile: cfg.SolverResultFile,
		httpClient: tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		log:        log.Named("solver.client"),
	}
}

func (c *solverClient) FetchResults(ctx context.Context) ([]domain.ResultRow, error) {
	var resp struct {
		Data []domain.ResultRow `json:"data"`
	}
	endpoint := "/data/" + url.PathEscape(c.resultFile)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *solverClient) SaveAllocation(ctx context.Context, req domain.SaveRequest) error {
	return c.doRequest(ctx, http.MethodPost, "/save-allocation", req, nil)
}

func (c *solverClient) UpdateStatus(ctx context.Context, req domain.StatusUpdateRequest) error {
	return c.doRequest(ctx, http.MethodPost, "/update-status", req, nil)
}

func (c *solverClient) Optimize(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/optimize", nil, nil)
}

func (c *solverClient) doRequest(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("solver: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("solver: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("solver: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("solver: decode response: %w", err)
	}
	return nil
}

func (c *solverClient) remoteError(resp *http.Response) error {
	remote := &domain.RemoteError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(raw) > 0 {
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Detail != "" {
			remote.Detail = payload.Detail
		}
	}

	c.log.Warn("remote call failed",
		zap.String("url", resp.Request.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("detail", remote.Detail),
	)
	return remote
}
