package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/objective-paper-api/internal/models"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
)

// SessionStore abstracts the per-session persistence used by the question
// store.
type SessionStore interface {
	SaveQuestions(ctx context.Context, sessionID string, questions []models.Question) error
	Questions(ctx context.Context, sessionID string) ([]models.Question, error)
	SavePaperDetails(ctx context.Context, sessionID string, details models.PaperDetails) error
	PaperDetails(ctx context.Context, sessionID string) (models.PaperDetails, error)
	SetOverride(ctx context.Context, sessionID string, field models.OverrideField, value string) error
	Overrides(ctx context.Context, sessionID string) (models.Overrides, error)
	Delete(ctx context.Context, sessionID string) error
}

// ImageResolver converts a remote image URL into an embeddable data URL.
type ImageResolver interface {
	Resolve(ctx context.Context, imageURL string) (string, error)
}

// ReplaceQuestionFields is the full-edit payload applied by the edit dialog
// path.
type ReplaceQuestionFields struct {
	Question string
	OptionA  string
	OptionB  string
	OptionC  string
	OptionD  string
	ImageURL string
}

// Snapshot is a read-consistent view of one session's state, taken at the
// moment an export or preview begins.
type Snapshot struct {
	Questions    []models.Question
	PaperDetails models.PaperDetails
	Overrides    models.Overrides
}

// SessionService is the question store: it owns the session lifecycle, the
// override fields and both edit paths.
type SessionService struct {
	store  SessionStore
	images ImageResolver
	logger *zap.Logger
}

// NewSessionService constructs a session service.
func NewSessionService(store SessionStore, images ImageResolver, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, images: images, logger: logger}
}

// Create validates and stores a freshly generated paper, returning the new
// session ID. Fewer than ten questions in either type partition is fatal.
func (s *SessionService) Create(ctx context.Context, questions []models.Question, details models.PaperDetails) (string, error) {
	mcq, fib := 0, 0
	for _, q := range questions {
		switch q.Type {
		case models.QuestionTypeMultipleChoice:
			mcq++
		case models.QuestionTypeFillInTheBlank:
			fib++
		}
	}
	if mcq < models.SectionSize || fib < models.SectionSize {
		return "", appErrors.Clone(appErrors.ErrInsufficientQuestions,
			fmt.Sprintf("insufficient questions: %d MCQs, %d FIBs (need %d of each)", mcq, fib, models.SectionSize))
	}

	sessionID := uuid.NewString()
	if err := s.store.SaveQuestions(ctx, sessionID, questions); err != nil {
		return "", err
	}
	if err := s.store.SavePaperDetails(ctx, sessionID, details); err != nil {
		return "", err
	}

	s.logger.Info("paper session created",
		zap.String("session_id", sessionID),
		zap.Int("mcq", mcq),
		zap.Int("fib", fib))
	return sessionID, nil
}

// Snapshot loads the full session state in one read.
func (s *SessionService) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	questions, err := s.store.Questions(ctx, sessionID)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	details, err := s.store.PaperDetails(ctx, sessionID)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	overrides, err := s.store.Overrides(ctx, sessionID)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	return &Snapshot{Questions: questions, PaperDetails: details, Overrides: overrides}, nil
}

// SetOverride records one operator edit; it takes effect on the next layout.
func (s *SessionService) SetOverride(ctx context.Context, sessionID string, field models.OverrideField, value string) error {
	if !field.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown override field %q", field))
	}
	// Overrides only make sense against a live session.
	if _, err := s.store.PaperDetails(ctx, sessionID); err != nil {
		return mapSessionErr(err)
	}
	return s.store.SetOverride(ctx, sessionID, field, value)
}

// UpdateQuestionText overwrites only the question text at the given position
// in the combined, type-filtered index space (0-9 multiple-choice, 10-19
// fill-in-the-blank). Options and image fields are left untouched on this
// path on purpose: the edit dialog is the sanctioned route for those.
func (s *SessionService) UpdateQuestionText(ctx context.Context, sessionID string, index int, text string) error {
	questions, err := s.store.Questions(ctx, sessionID)
	if err != nil {
		return mapSessionErr(err)
	}
	pos, err := resolveCombinedIndex(questions, index)
	if err != nil {
		return err
	}

	questions[pos].Question = text
	return s.store.SaveQuestions(ctx, sessionID, questions)
}

// ReplaceQuestion applies a full edit: text, options (multiple-choice only)
// and image URL, re-deriving the embeddable image. A failed image resolution
// leaves the question without an image and is never surfaced as an error.
func (s *SessionService) ReplaceQuestion(ctx context.Context, sessionID string, index int, fields ReplaceQuestionFields) error {
	questions, err := s.store.Questions(ctx, sessionID)
	if err != nil {
		return mapSessionErr(err)
	}
	pos, err := resolveCombinedIndex(questions, index)
	if err != nil {
		return err
	}

	q := &questions[pos]
	q.Question = fields.Question
	if q.Type == models.QuestionTypeMultipleChoice {
		q.OptionA = trimmedOrNil(fields.OptionA)
		q.OptionB = trimmedOrNil(fields.OptionB)
		q.OptionC = trimmedOrNil(fields.OptionC)
		q.OptionD = trimmedOrNil(fields.OptionD)
	}

	imageURL := strings.TrimSpace(fields.ImageURL)
	if imageURL == "" {
		q.ImageURL = nil
		q.ImageDataURL = nil
	} else {
		q.ImageURL = &imageURL
		q.ImageDataURL = nil
		if s.images != nil {
			if dataURL, resolveErr := s.images.Resolve(ctx, imageURL); resolveErr == nil {
				q.ImageDataURL = &dataURL
			} else {
				s.logger.Warn("image resolution failed, question keeps no image",
					zap.String("session_id", sessionID),
					zap.Int("index", index),
					zap.Error(resolveErr))
			}
		}
	}

	return s.store.SaveQuestions(ctx, sessionID, questions)
}

// Discard drops the session ahead of its TTL. Discarding an unknown session
// is not an error.
func (s *SessionService) Discard(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("paper session discarded", zap.String("session_id", sessionID))
	return nil
}

// resolveCombinedIndex maps a combined index (0-9 MCQ, 10-19 FIB) to the
// position in the stored question slice.
func resolveCombinedIndex(questions []models.Question, index int) (int, error) {
	if index < 0 || index >= 2*models.SectionSize {
		return 0, appErrors.Clone(appErrors.ErrQuestionNotFound, fmt.Sprintf("question index %d out of range", index))
	}

	wantType := models.QuestionTypeMultipleChoice
	nth := index
	if index >= models.SectionSize {
		wantType = models.QuestionTypeFillInTheBlank
		nth = index - models.SectionSize
	}

	seen := 0
	for pos, q := range questions {
		if q.Type != wantType {
			continue
		}
		if seen == nth {
			return pos, nil
		}
		seen++
	}
	return 0, appErrors.Clone(appErrors.ErrQuestionNotFound, fmt.Sprintf("question index %d out of range", index))
}

func trimmedOrNil(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapSessionErr(err error) error {
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return appErrors.ErrSessionNotFound
	}
	return err
}
