package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/noah-isme/objective-paper-api/pkg/config"
)

// ImageProxyClient resolves a remote image URL into an embeddable data URL
// through the question bank's proxy endpoint. Callers are expected to treat
// every error as "no image": a failed resolution is never fatal to the paper.
type ImageProxyClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewImageProxyClient constructs a client from upstream config.
func NewImageProxyClient(cfg config.UpstreamConfig, logger *zap.Logger) *ImageProxyClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageProxyClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Resolve fetches the data URL for the given image location.
func (c *ImageProxyClient) Resolve(ctx context.Context, imageURL string) (string, error) {
	endpoint := fmt.Sprintf("%s/image-proxy-base64?url=%s", c.baseURL, url.QueryEscape(imageURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build image proxy request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("image proxy unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read image proxy response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("image resolution failed",
			zap.String("url", imageURL),
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("image proxy status %d", resp.StatusCode)
	}

	var payload struct {
		DataURL string `json:"dataUrl"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode image proxy response: %w", err)
	}
	if payload.DataURL == "" {
		return "", fmt.Errorf("image proxy returned empty data url")
	}
	return payload.DataURL, nil
}
