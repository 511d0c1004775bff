package game

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/playgeo/geohunt/internal/geo"
)

const (
	// submitWindow and submitLimit bound how fast one player may guess at
	// one phase: at most submitLimit submissions in any trailing window.
	submitWindow = 10 * time.Minute
	submitLimit  = 10
)

// SubmitResult is what a player learns from one guess. The distance is the
// raw haversine value; the persisted submission row carries it rounded to
// two decimals.
type SubmitResult struct {
	Submission     Submission
	Distance       float64
	IsCorrect      bool
	IsFirstCorrect bool
}

// Submitter scores guesses against the active phase and arbitrates wins.
type Submitter struct {
	store     Store
	lifecycle *Lifecycle
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithSubmitClock fixes the time source. Used by tests.
func WithSubmitClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) { s.now = now }
}

func NewSubmitter(store Store, lifecycle *Lifecycle, logger *slog.Logger, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		store:     store,
		lifecycle: lifecycle,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckRateLimit returns a *RateLimitError when the user has exhausted the
// submission window for the phase. Counts only committed submissions, so a
// denied attempt never consumes budget.
func (s *Submitter) CheckRateLimit(ctx context.Context, userID, phaseID string) error {
	now := s.now()
	since := now.Add(-submitWindow)

	count, err := s.store.CountSubmissionsSince(ctx, userID, phaseID, since)
	if err != nil {
		return fmt.Errorf("checking rate limit: %w", err)
	}
	if count < submitLimit {
		return nil
	}

	next := now.Add(submitWindow)
	if oldest, err := s.store.OldestSubmissionSince(ctx, userID, phaseID, since); err == nil {
		next = oldest.Add(submitWindow)
	}
	return &RateLimitError{
		Reason:       fmt.Sprintf("Maximum submissions (%d) reached in this window", submitLimit),
		NextWindowAt: next,
	}
}

// Submit scores one guess against the given phase. The first correct guess
// wins the phase: it writes the history record, marks the phase solved, and
// triggers activation of the next prepared phase. Later correct guesses are
// recorded but do not win.
func (s *Submitter) Submit(ctx context.Context, user User, phaseID string, lat, lng float64) (SubmitResult, error) {
	p, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		return SubmitResult{}, err
	}
	if p.Status != StatusActive {
		return SubmitResult{}, ErrPhaseNotActive
	}

	if err := s.CheckRateLimit(ctx, user.ID, phaseID); err != nil {
		return SubmitResult{}, err
	}

	now := s.now()
	distance := geo.DistanceMeters(p.Lat, p.Lng, lat, lng)
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return SubmitResult{}, ErrBadDistance
	}
	correct := distance <= geo.AnswerRadiusMeters

	sub := Submission{
		ID:          s.newID(),
		UserID:      user.ID,
		PhaseID:     phaseID,
		Lat:         lat,
		Lng:         lng,
		Distance:    math.Round(distance*100) / 100,
		IsCorrect:   correct,
		SubmittedAt: now,
	}

	var winner *History
	if correct {
		winner = &History{
			ID:           s.newID(),
			PhaseID:      phaseID,
			WinnerID:     user.ID,
			WinnerName:   user.Nickname,
			SubmittedLat: lat,
			SubmittedLng: lng,
			SolvedAt:     now,
		}
	}

	firstCorrect, err := s.store.RecordSubmission(ctx, sub, winner)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("recording submission: %w", err)
	}

	if firstCorrect {
		s.logger.Info("phase solved",
			"phase_id", phaseID,
			"winner_id", user.ID,
			"distance_m", sub.Distance,
		)
		s.lifecycle.events.PhaseSolved(*winner)
		s.activateNext(ctx)
	}

	return SubmitResult{
		Submission:     sub,
		Distance:       distance,
		IsCorrect:      correct,
		IsFirstCorrect: firstCorrect,
	}, nil
}

// activateNext chains the next phase in after a win. Failure leaves the game
// without an active phase until the next lazy activation or admin action, so
// it is logged, not surfaced to the winning player.
func (s *Submitter) activateNext(ctx context.Context) {
	if _, err := s.lifecycle.ActivateNext(ctx); err != nil {
		s.logger.Error("activating next phase failed", "error", err)
	}
}
