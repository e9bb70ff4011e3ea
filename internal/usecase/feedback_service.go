package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/riskibarqy/creator-league/internal/platform/logging"
)

const (
	FeedbackMissingKey = "AI Coach: API Key not found. Please set the API_KEY environment variable to get feedback."
	FeedbackEmpty      = "Keep up the great work! (AI could not generate specific feedback)"
	FeedbackOffline    = "Our AI Coach is currently offline. Keep creating!"
)

// ErrCoachNotConfigured is returned by coaches that have no credentials.
var ErrCoachNotConfigured = errors.New("coach not configured")

// CoachRequest is what the coach sees about an entry.
type CoachRequest struct {
	ChallengeTitle       string
	ChallengeDescription string
	VideoDescription     string
}

// Coach produces a short critique of an entry.
type Coach interface {
	Feedback(ctx context.Context, req CoachRequest) (string, error)
}

// Feedback is the coach answer; Fallback marks a canned reply.
type Feedback struct {
	SubmissionID string
	Text         string
	Fallback     bool
}

// FeedbackService asks the coach about a submission. Coach failures never
// surface as errors; the caller always gets text to show.
type FeedbackService struct {
	contests *ContestService
	coach    Coach
	logger   *logging.Logger
}

func NewFeedbackService(contests *ContestService, coach Coach, logger *logging.Logger) *FeedbackService {
	if logger == nil {
		logger = logging.Default()
	}

	return &FeedbackService{
		contests: contests,
		coach:    coach,
		logger:   logger,
	}
}

// RequestFeedback returns coach feedback for an existing submission.
func (s *FeedbackService) RequestFeedback(ctx context.Context, submissionID string) (Feedback, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedbackService.RequestFeedback")
	defer span.End()

	sub, err := s.contests.GetSubmission(ctx, submissionID)
	if err != nil {
		return Feedback{}, err
	}

	req := CoachRequest{VideoDescription: sub.Note}
	if ch, err := s.contests.GetChallenge(ctx, sub.ChallengeID); err == nil {
		req.ChallengeTitle = ch.Title
		req.ChallengeDescription = ch.Description
	} else if !errors.Is(err, ErrNotFound) {
		return Feedback{}, err
	}

	text, fallback := s.ask(ctx, req)
	return Feedback{SubmissionID: sub.ID, Text: text, Fallback: fallback}, nil
}

func (s *FeedbackService) ask(ctx context.Context, req CoachRequest) (string, bool) {
	if s.coach == nil {
		return FeedbackMissingKey, true
	}

	text, err := s.coach.Feedback(ctx, req)
	switch {
	case errors.Is(err, ErrCoachNotConfigured):
		return FeedbackMissingKey, true
	case err != nil:
		s.logger.WarnContext(ctx, "coach feedback failed", "error", err)
		return FeedbackOffline, true
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return FeedbackEmpty, true
	}
	return text, false
}
