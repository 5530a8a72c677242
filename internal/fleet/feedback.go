package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"busroot.app/internal/logging"
	"busroot.app/internal/models"
)

// SubmitFeedback appends a traveler review.
func (m *Manager) SubmitFeedback(ctx context.Context, in models.Feedback) (models.Feedback, error) {
	feedback := models.Feedback{
		Name:         strings.TrimSpace(in.Name),
		FeedbackText: strings.TrimSpace(in.FeedbackText),
		Rating:       in.Rating,
		Timestamp:    m.now().UTC().Format(time.RFC3339),
	}
	if verr := m.validateStruct(feedback); !verr.empty() {
		return models.Feedback{}, verr
	}

	id, err := m.store.Push(ctx, feedbackCollection, feedback)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("store feedback: %w", err)
	}
	feedback.ID = id

	logging.LogOperation(m.logger, "feedback_submitted",
		slog.String("feedback_id", id),
		slog.Int("rating", feedback.Rating))
	return feedback, nil
}

// ListFeedback returns every review, newest first.
func (m *Manager) ListFeedback(ctx context.Context) ([]models.Feedback, error) {
	docs, err := m.store.List(ctx, feedbackCollection)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	list := make([]models.Feedback, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		var feedback models.Feedback
		if err := docs[i].Decode(&feedback); err != nil {
			logging.LogError(m.logger, "skipping undecodable feedback", err,
				slog.String("feedback_id", docs[i].Key.ID))
			continue
		}
		feedback.ID = docs[i].Key.ID
		if ts, ok := pushTime(feedback.ID); ok {
			feedback.Timestamp = ts.UTC().Format(time.RFC3339)
		}
		list = append(list, feedback)
	}
	return list, nil
}

// pushTime extracts the creation time embedded in a time-ordered push id.
func pushTime(id string) (time.Time, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := parsed.Time().UnixTime()
	return time.Unix(sec, nsec), true
}
