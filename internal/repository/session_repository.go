package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/objective-paper-api/internal/models"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
)

// SessionRepository persists the volatile per-session paper state in Redis.
// Mirroring the editor's storage model, the question list, the paper details
// and each of the four override fields live under independent keys, all
// sharing the session TTL. Nothing survives session expiry.
type SessionRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *SessionRepository {
	if prefix == "" {
		prefix = "paper"
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *SessionRepository) key(sessionID, field string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, sessionID, field)
}

// SaveQuestions stores the full question list.
func (r *SessionRepository) SaveQuestions(ctx context.Context, sessionID string, questions []models.Question) error {
	return r.setJSON(ctx, r.key(sessionID, "questions"), questions)
}

// Questions loads the question list, or ErrCacheMiss for an unknown session.
func (r *SessionRepository) Questions(ctx context.Context, sessionID string) ([]models.Question, error) {
	var questions []models.Question
	if err := r.getJSON(ctx, r.key(sessionID, "questions"), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SavePaperDetails stores the server-supplied exam metadata.
func (r *SessionRepository) SavePaperDetails(ctx context.Context, sessionID string, details models.PaperDetails) error {
	return r.setJSON(ctx, r.key(sessionID, "paperDetails"), details)
}

// PaperDetails loads the exam metadata.
func (r *SessionRepository) PaperDetails(ctx context.Context, sessionID string) (models.PaperDetails, error) {
	var details models.PaperDetails
	if err := r.getJSON(ctx, r.key(sessionID, "paperDetails"), &details); err != nil {
		return models.PaperDetails{}, err
	}
	return details, nil
}

// SetOverride records one operator override under its own key.
func (r *SessionRepository) SetOverride(ctx context.Context, sessionID string, field models.OverrideField, value string) error {
	if err := r.client.Set(ctx, r.key(sessionID, "override:"+string(field)), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set override %s: %w", field, err)
	}
	return nil
}

// Overrides loads all override fields; missing keys read as unset.
func (r *SessionRepository) Overrides(ctx context.Context, sessionID string) (models.Overrides, error) {
	keys := make([]string, 0, len(models.OverrideFields))
	for _, field := range models.OverrideFields {
		keys = append(keys, r.key(sessionID, "override:"+string(field)))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return models.Overrides{}, fmt.Errorf("redis mget overrides: %w", err)
	}

	overrides := models.Overrides{}
	for i, field := range models.OverrideFields {
		raw, ok := values[i].(string)
		if !ok {
			continue
		}
		switch field {
		case models.OverrideBranch:
			overrides.Branch = raw
		case models.OverrideSubjectCode:
			overrides.SubjectCode = raw
		case models.OverrideExamDate:
			overrides.ExamDate = raw
		case models.OverrideMonthYear:
			overrides.MonthYear = raw
		}
	}
	return overrides, nil
}

// Delete discards all session keys.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	keys := []string{
		r.key(sessionID, "questions"),
		r.key(sessionID, "paperDetails"),
	}
	for _, field := range models.OverrideFields {
		keys = append(keys, r.key(sessionID, "override:"+string(field)))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", sessionID, err)
	}
	return nil
}

func (r *SessionRepository) setJSON(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *SessionRepository) getJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}
