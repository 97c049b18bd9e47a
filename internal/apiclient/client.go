// Package apiclient 封装了对预约后端 REST API 的调用。
// 每个请求都会带上 X-API-Key，登录后再带上 Bearer token。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/myfan-dev/myfan/console/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 300
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	token      string
	metrics    *metrics.Metrics
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Metrics *metrics.Metrics
	// 为空时使用带 otelhttp 的默认 Transport
	Transport http.RoundTripper
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		metrics:    opts.Metrics,
	}
}

// WithToken 返回一个带登录凭证的副本，底层的 http.Client 是共享的
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// APIError 表示后端返回了非 2xx 的状态码
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s 返回 %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Detail 尝试取出 FastAPI 错误响应中的 detail 字段
func (e *APIError) Detail() string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}
	}
	return ""
}

func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(method, 0, time.Since(start).Seconds())
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPI(method, resp.StatusCode, time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := truncate(string(respBody), maxErrorBody)
		slog.Warn("后端返回错误", "method", method, "path", path, "status", resp.StatusCode, "body", msg)
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: msg}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate 按字符截断，避免切断日文的多字节字符
func truncate(s string, n int) string {
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
