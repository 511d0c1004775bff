package game

import (
	"context"
	"time"
)

// Store is the persistence surface for phases, submissions, and accounts.
type Store interface {
	// Phases.
	CreatePhase(ctx context.Context, p Phase) error
	GetPhase(ctx context.Context, id string) (Phase, error)
	ListPhases(ctx context.Context) ([]Phase, error)
	DeletePhase(ctx context.Context, id string) error
	ActivePhase(ctx context.Context) (Phase, error)
	// PromotePhase demotes any currently active phase to solved and marks
	// the target active, in one transaction. ErrPhaseNotFound when the
	// target does not exist.
	PromotePhase(ctx context.Context, id string, now time.Time) error
	SolvePhase(ctx context.Context, id string, now time.Time) error
	UpdateHintText(ctx context.Context, phaseID, text string) error

	// Prepared pool.
	CreatePreparedPhase(ctx context.Context, pp PreparedPhase) error
	ListPreparedPhases(ctx context.Context) ([]PreparedPhase, error)
	// EligiblePreparedPhaseIDs returns ids of phases that have an approval
	// record and are still in the prepared state.
	EligiblePreparedPhaseIDs(ctx context.Context) ([]string, error)

	// Hint versions.
	CreateHintVersion(ctx context.Context, hv HintVersion) error
	ListHintVersions(ctx context.Context, phaseID string) ([]HintVersion, error)
	GetHintVersion(ctx context.Context, phaseID, versionID string) (HintVersion, error)

	// Submissions and histories.
	CountSubmissionsSince(ctx context.Context, userID, phaseID string, since time.Time) (int, error)
	OldestSubmissionSince(ctx context.Context, userID, phaseID string, since time.Time) (time.Time, error)
	// RecordSubmission persists the submission and, when winner is non-nil,
	// attempts the history insert that arbitrates first-correct-wins. The
	// submission row is always written; the history insert silently loses
	// to an existing row for the same phase. Returns whether this call won.
	RecordSubmission(ctx context.Context, sub Submission, winner *History) (firstCorrect bool, err error)
	ListSubmissions(ctx context.Context, limit int) ([]Submission, error)
	ListSubmissionsByUser(ctx context.Context, userID string) ([]Submission, error)
	ListHistories(ctx context.Context) ([]History, error)
	GetHistoryByPhase(ctx context.Context, phaseID string) (History, error)

	// Users.
	CreateUser(ctx context.Context, u User) error
	UserByID(ctx context.Context, id string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UpdateNickname(ctx context.Context, userID, nickname string) error
	UserStats(ctx context.Context, userID string) (UserStats, error)
	CreateAuthProvider(ctx context.Context, id, userID, provider, providerUserID string) error
	UserByProvider(ctx context.Context, provider, providerUserID string) (User, error)
}
