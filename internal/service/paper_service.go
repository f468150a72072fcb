package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/objective-paper-api/internal/dto"
	"github.com/noah-isme/objective-paper-api/internal/layout"
	"github.com/noah-isme/objective-paper-api/internal/models"
	"github.com/noah-isme/objective-paper-api/internal/render"
	"github.com/noah-isme/objective-paper-api/internal/upstream"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
)

// QuestionBank abstracts the question-bank backend.
type QuestionBank interface {
	Upload(ctx context.Context, filename string, file io.Reader) error
	Generate(ctx context.Context, filename string, file io.Reader, paperType models.PaperType) (*upstream.GenerateResult, error)
}

// ArtifactStore keeps a copy of rendered exports.
type ArtifactStore interface {
	Save(filename string, data []byte) (string, error)
}

// Artifact is a rendered, downloadable document.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PaperService orchestrates the whole flow: upload, generation with image
// resolution, preview layout, and dual-format export.
type PaperService struct {
	sessions  *SessionService
	bank      QuestionBank
	images    ImageResolver
	renderers map[render.Format]render.Renderer
	storage   ArtifactStore
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewPaperService constructs a paper service.
func NewPaperService(sessions *SessionService, bank QuestionBank, images ImageResolver, renderers map[render.Format]render.Renderer, storage ArtifactStore, metrics *MetricsService, logger *zap.Logger) *PaperService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaperService{
		sessions:  sessions,
		bank:      bank,
		images:    images,
		renderers: renderers,
		storage:   storage,
		metrics:   metrics,
		logger:    logger,
	}
}

// Upload forwards the spreadsheet to the question bank. Failures surface to
// the operator as upstream errors rather than being masked as success.
func (s *PaperService) Upload(ctx context.Context, filename string, file io.Reader) error {
	err := s.bank.Upload(ctx, filename, file)
	s.metrics.RecordUpstream("upload", err)
	return err
}

// Generate produces a paper from the uploaded spreadsheet: it calls the
// question bank, resolves every question image up front, and opens a new
// session holding the result.
func (s *PaperService) Generate(ctx context.Context, filename string, file io.Reader, paperType models.PaperType) (*dto.GenerateResponse, error) {
	result, err := s.bank.Generate(ctx, filename, file, paperType)
	s.metrics.RecordUpstream("generate", err)
	if err != nil {
		return nil, err
	}

	// The bank echoes metadata but the operator's choice of paper type wins.
	result.PaperDetails.PaperType = paperType

	s.resolveImages(ctx, result.Questions)

	sessionID, err := s.sessions.Create(ctx, result.Questions, result.PaperDetails)
	if err != nil {
		return nil, err
	}

	return &dto.GenerateResponse{
		SessionID:    sessionID,
		Questions:    result.Questions,
		PaperDetails: result.PaperDetails,
	}, nil
}

// resolveImages derives ImageDataURL for every question carrying an image
// URL. Resolutions are independent, so they fan out concurrently and join
// before the session is created; each failure degrades that one question to
// no image.
func (s *PaperService) resolveImages(ctx context.Context, questions []models.Question) {
	if s.images == nil {
		return
	}
	var wg sync.WaitGroup
	for i := range questions {
		if questions[i].ImageURL == nil || *questions[i].ImageURL == "" {
			continue
		}
		wg.Add(1)
		go func(q *models.Question) {
			defer wg.Done()
			dataURL, err := s.images.Resolve(ctx, *q.ImageURL)
			s.metrics.RecordImageResolution(err)
			if err != nil {
				s.logger.Warn("image resolution failed during generation",
					zap.String("url", *q.ImageURL),
					zap.Error(err))
				q.ImageDataURL = nil
				return
			}
			q.ImageDataURL = &dataURL
		}(&questions[i])
	}
	wg.Wait()
}

// Preview recomputes the paper model for on-screen display.
func (s *PaperService) Preview(ctx context.Context, sessionID string) (models.PaperModel, error) {
	snap, err := s.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		return models.PaperModel{}, err
	}
	return layout.Compose(snap.Questions, snap.PaperDetails, snap.Overrides)
}

// Export renders the paper in the requested format. The session is read once
// at the start, so edits racing an in-flight export do not tear the document.
func (s *PaperService) Export(ctx context.Context, sessionID string, format render.Format) (*Artifact, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}

	snap, err := s.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	model, err := layout.Compose(snap.Questions, snap.PaperDetails, snap.Overrides)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := renderer.Render(model)
	s.metrics.RecordExport(string(format), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	filename := exportFilename(model.Subject, renderer.Extension())
	if s.storage != nil {
		if _, saveErr := s.storage.Save(filename, data); saveErr != nil {
			// The download still succeeds; only the on-disk copy is lost.
			s.logger.Warn("failed to store export copy",
				zap.String("filename", filename),
				zap.Error(saveErr))
		}
	}

	s.logger.Info("paper exported",
		zap.String("session_id", sessionID),
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)))

	return &Artifact{
		Filename:    filename,
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

func exportFilename(subject, ext string) string {
	name := sanitizeFilename(subject)
	if name == "" {
		name = "paper"
	}
	return fmt.Sprintf("%s_Objective.%s", name, ext)
}

func sanitizeFilename(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(strings.TrimSpace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
