package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/objective-paper-api/internal/models"
	"github.com/noah-isme/objective-paper-api/pkg/config"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
)

func upstreamConfig(baseURL string) config.UpstreamConfig {
	return config.UpstreamConfig{BaseURL: baseURL, Timeout: 5 * time.Second}
}

func TestQuestionBankGenerate(t *testing.T) {
	var gotPaperType string
	var gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/generate", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPaperType = r.FormValue("paperType")

		file, header, err := r.FormFile("excelFile")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename

		result := GenerateResult{
			Questions: []models.Question{
				{Type: models.QuestionTypeMultipleChoice, Question: "Pick one", Unit: 2},
			},
			PaperDetails: models.PaperDetails{Subject: "Operating Systems", SubjectCode: "CS305"},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(result))
	}))
	defer srv.Close()

	client := NewQuestionBankClient(upstreamConfig(srv.URL), nil)
	result, err := client.Generate(context.Background(), "bank.xlsx", strings.NewReader("sheet-bytes"), models.PaperTypeMid1)
	require.NoError(t, err)
	require.Equal(t, "mid1", gotPaperType)
	require.Equal(t, "bank.xlsx", gotFilename)
	require.Len(t, result.Questions, 1)
	require.Equal(t, "Operating Systems", result.PaperDetails.Subject)
}

func TestQuestionBankGenerateServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"sheet is missing the Unit column"}`))
	}))
	defer srv.Close()

	client := NewQuestionBankClient(upstreamConfig(srv.URL), nil)
	_, err := client.Generate(context.Background(), "bank.xlsx", strings.NewReader("x"), models.PaperTypeMid1)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
	require.Contains(t, err.Error(), "sheet is missing the Unit column")
}

func TestQuestionBankGenerateOpaqueServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewQuestionBankClient(upstreamConfig(srv.URL), nil)
	_, err := client.Generate(context.Background(), "bank.xlsx", strings.NewReader("x"), models.PaperTypeMid1)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUpstream.Message, appErrors.FromError(err).Message)
}

func TestQuestionBankUpload(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("excelFile")
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewQuestionBankClient(upstreamConfig(srv.URL), nil)
	require.NoError(t, client.Upload(context.Background(), "bank.xlsx", strings.NewReader("sheet-bytes")))
	require.Equal(t, 1, hits)
}

func TestQuestionBankUploadFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"storage offline"}`))
	}))
	defer srv.Close()

	client := NewQuestionBankClient(upstreamConfig(srv.URL), nil)
	err := client.Upload(context.Background(), "bank.xlsx", strings.NewReader("x"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
	require.Contains(t, err.Error(), "storage offline")
}

func TestQuestionBankUnreachable(t *testing.T) {
	client := NewQuestionBankClient(upstreamConfig("http://127.0.0.1:1"), nil)
	err := client.Upload(context.Background(), "bank.xlsx", strings.NewReader("x"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestImageProxyResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/image-proxy-base64", r.URL.Path)
		require.Equal(t, "https://example.com/a.png", r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dataUrl":"data:image/png;base64,AAAA"}`))
	}))
	defer srv.Close()

	client := NewImageProxyClient(upstreamConfig(srv.URL), nil)
	dataURL, err := client.Resolve(context.Background(), "https://example.com/a.png")
	require.NoError(t, err)
	require.Equal(t, "data:image/png;base64,AAAA", dataURL)
}

func TestImageProxyResolveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case "status":
			w.WriteHeader(http.StatusNotFound)
		case "empty":
			_, _ = w.Write([]byte(`{"dataUrl":""}`))
		default:
			_, _ = w.Write([]byte("not json"))
		}
	}))
	defer srv.Close()

	client := NewImageProxyClient(upstreamConfig(srv.URL), nil)
	for _, target := range []string{"status", "empty", "garbage"} {
		_, err := client.Resolve(context.Background(), target)
		require.Error(t, err, "target %q", target)
	}
}
