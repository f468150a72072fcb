// Package upstream holds the thin HTTP clients for the opaque collaborators:
// the question-bank backend (upload/generate) and its image proxy.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/noah-isme/objective-paper-api/internal/models"
	"github.com/noah-isme/objective-paper-api/pkg/config"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
)

// GenerateResult is the generate endpoint payload consumed by the core.
type GenerateResult struct {
	Questions    []models.Question   `json:"questions"`
	PaperDetails models.PaperDetails `json:"paperDetails"`
}

// QuestionBankClient talks to the question-bank backend.
type QuestionBankClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewQuestionBankClient constructs a client from upstream config.
func NewQuestionBankClient(cfg config.UpstreamConfig, logger *zap.Logger) *QuestionBankClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionBankClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Upload forwards a spreadsheet to the question bank. Failures surface as
// upstream errors; no question data comes back on this path.
func (c *QuestionBankClient) Upload(ctx context.Context, filename string, file io.Reader) error {
	body, contentType, err := multipartBody(filename, file, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "encode upload payload")
	}

	_, err = c.post(ctx, "/upload", body, contentType)
	return err
}

// Generate asks the question bank to produce a question list plus paper
// metadata for the given paper type.
func (c *QuestionBankClient) Generate(ctx context.Context, filename string, file io.Reader, paperType models.PaperType) (*GenerateResult, error) {
	body, contentType, err := multipartBody(filename, file, map[string]string{"paperType": string(paperType)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "encode generate payload")
	}

	raw, err := c.post(ctx, "/generate", body, contentType)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode generate response")
	}
	return result, nil
}

func (c *QuestionBankClient) post(ctx context.Context, path string, body *bytes.Buffer, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "build question bank request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "question bank unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read question bank response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := upstreamMessage(raw)
		c.logger.Warn("question bank request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, appErrors.Clone(appErrors.ErrUpstream, msg)
	}
	return raw, nil
}

// upstreamMessage extracts the server's own error message when one exists.
func upstreamMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return fmt.Sprintf("question bank error: %s", payload.Error)
	}
	return appErrors.ErrUpstream.Message
}

func multipartBody(filename string, file io.Reader, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("excelFile", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
