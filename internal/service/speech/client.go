package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	speechmodel "github.com/zhouzirui/voiceify/internal/model/speech"
)

// Client 调用远端合成端点的 HTTP 客户端
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient 创建客户端。timeout 为 0 时不额外限制请求时长。
func NewClient(endpoint string, timeout time.Duration) *Client {
	return NewClientWithHTTP(endpoint, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP 使用自定义 http.Client 创建客户端
func NewClientWithHTTP(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: httpClient,
	}
}

// Endpoint 返回配置的合成端点
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit 发送一次合成请求并返回音频地址，不做重试
func (c *Client) Submit(ctx context.Context, req speechmodel.Request) (string, error) {
	if c.endpoint == "" {
		return "", &NetworkError{Err: errors.New("synthesis endpoint is not configured")}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 读掉响应体以便连接复用
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		log.Printf("[speech] endpoint returned status %d", resp.StatusCode)
		return "", &HTTPError{Status: resp.StatusCode}
	}

	var body speechmodel.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &NetworkError{Err: fmt.Errorf("invalid response body: %w", err)}
	}

	if body.AudioURL == "" {
		return "", ErrMissingAudioURL
	}

	return body.AudioURL, nil
}
