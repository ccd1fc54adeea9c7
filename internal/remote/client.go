// Package remote is the HTTP client for the Walacakra processing API.
// Every call takes the reviewer's settings so the endpoint and token can
// change between requests without rebuilding the client.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/walacakra/internal/results"
	"github.com/JaimeStill/walacakra/internal/settings"
	"github.com/JaimeStill/walacakra/pkg/pagination"
)

// Stasher stores a fetched binary and returns a local URL for it.
type Stasher interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
}

// Client issues authenticated requests to the processing API.
type Client struct {
	http          *http.Client
	prefix        string
	timeout       time.Duration
	uploadTimeout time.Duration
	concurrency   int
	stash         Stasher
	logger        *slog.Logger
}

// New creates a Client from cfg. stash receives binaries fetched by FetchBinary.
func New(cfg *Config, stash Stasher, logger *slog.Logger) *Client {
	return &Client{
		http:          &http.Client{Transport: newTransport(cfg.MaxIdleConns)},
		prefix:        strings.TrimRight(cfg.APIPrefix, "/"),
		timeout:       cfg.TimeoutDuration(),
		uploadTimeout: cfg.UploadTimeoutDuration(),
		concurrency:   cfg.UploadConcurrency,
		stash:         stash,
		logger:        logger.With("system", "remote"),
	}
}

// Download fetches the resource at path. Relative paths are resolved
// against the configured endpoint.
func (c *Client) Download(ctx context.Context, s settings.Settings, path string) (*Binary, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}

	target, err := c.resolve(s, path)
	if err != nil {
		return nil, err
	}

	var bin Binary
	err = c.do(ctx, s, http.MethodGet, target, nil, "", c.timeout, func(resp *http.Response) error {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s: %w", target, err)
		}
		bin.Data = data
		bin.ContentType = resp.Header.Get("Content-Type")
		if bin.ContentType == "" {
			bin.ContentType = http.DetectContentType(data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &bin, nil
}

// FetchBinary downloads path and stashes it locally, returning the local URL.
// Any failure yields "" so callers can fall back to a placeholder.
func (c *Client) FetchBinary(ctx context.Context, s settings.Settings, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}

	bin, err := c.Download(ctx, s, path)
	if err != nil {
		c.logger.Warn("fetch binary failed", "path", path, "error", err)
		return ""
	}

	local, err := c.stash.Put(ctx, bin.Data, bin.ContentType)
	if err != nil {
		c.logger.Warn("stash binary failed", "path", path, "error", err)
		return ""
	}

	return local
}

// FetchHistoryPage returns one page of processed documents.
func (c *Client) FetchHistoryPage(ctx context.Context, s settings.Settings, page int) (*HistoryPage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	target, err := c.apiURL(s, "history")
	if err != nil {
		return nil, err
	}
	target += "?page=" + strconv.Itoa(page)

	var env historyEnvelope
	if err := c.do(ctx, s, http.MethodGet, target, nil, "", c.timeout, decodeJSON(&env)); err != nil {
		return nil, fmt.Errorf("fetch history page %d: %w", page, err)
	}

	result := &HistoryPage{
		Items:      env.Data.Items,
		Pagination: env.Metadata.Pagination,
	}
	if result.Items == nil {
		result.Items = []HistoryItem{}
	}
	if result.Pagination.Page < 1 || result.Pagination.TotalPages < 1 {
		result.Pagination = pagination.NewMeta(page, result.Pagination.TotalPages)
	}

	return result, nil
}

// FetchHistoryDetail returns one processed document by hash.
func (c *Client) FetchHistoryDetail(ctx context.Context, s settings.Settings, hash string) (*results.Response, error) {
	if hash == "" {
		return nil, ErrEmptyHash
	}

	target, err := c.apiURL(s, "history", hash)
	if err != nil {
		return nil, err
	}

	var resp results.Response
	if err := c.do(ctx, s, http.MethodGet, target, nil, "", c.timeout, decodeJSON(&resp)); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", hash, err)
	}

	return &resp, nil
}

// PatchAssessment submits a decision. Every error wraps ErrDecisionFailed.
func (c *Client) PatchAssessment(ctx context.Context, s settings.Settings, hash string, req PatchRequest) (*ServerResult, error) {
	if hash == "" {
		return nil, fmt.Errorf("%w: %w", ErrDecisionFailed, ErrEmptyHash)
	}

	target, err := c.apiURL(s, "process", hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecisionFailed, err)
	}

	if req.Updates == nil {
		req.Updates = []Update{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrDecisionFailed, err)
	}

	var result *ServerResult
	err = c.do(ctx, s, http.MethodPatch, target, bytes.NewReader(body), "application/json", c.timeout, func(resp *http.Response) error {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		result, err = decodeServerResult(raw)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecisionFailed, err)
	}

	c.logger.Info("decision submitted", "hash", hash, "assessment", req.Assessment, "updates", len(req.Updates))
	return result, nil
}

// decodeServerResult accepts the process-shaped envelope or a bare data object.
func decodeServerResult(raw []byte) (*ServerResult, error) {
	var result ServerResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if result.Data != nil {
		return &result, nil
	}

	var data results.ResultData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if data.Pages == nil && data.Assessment == "" {
		return nil, fmt.Errorf("%w: response carries no data", ErrInvalidResponse)
	}

	result.Data = &data
	return &result, nil
}

func (c *Client) do(
	ctx context.Context,
	s settings.Settings,
	method, target string,
	body io.Reader,
	contentType string,
	timeout time.Duration,
	handle func(*http.Response) error,
) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth := s.Authorization(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	c.logger.Debug("call", "method", method, "url", target)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, target, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()

	if err := validateResponse(resp, target); err != nil {
		return err
	}

	return handle(resp)
}

func (c *Client) resolve(s settings.Settings, path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}

	base, err := s.BaseURL()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path, nil
}

func (c *Client) apiURL(s settings.Settings, segments ...string) (string, error) {
	base, err := s.BaseURL()
	if err != nil {
		return "", err
	}

	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return base + c.prefix + "/" + strings.Join(escaped, "/"), nil
}

func validateResponse(resp *http.Response, target string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return &StatusError{
		Code:   resp.StatusCode,
		Status: resp.Status,
		URL:    target,
		Body:   strings.TrimSpace(string(body)),
	}
}

func decodeJSON(target any) func(*http.Response) error {
	return func(resp *http.Response) error {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	}
}

func newTransport(maxIdle int) http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = maxIdle
	t.MaxIdleConnsPerHost = maxIdle
	t.IdleConnTimeout = 90 * time.Second
	return t
}
