package game

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrPhaseNotFound  = errors.New("phase not found")
	ErrPhaseNotActive = errors.New("phase is not active")
	ErrBadDistance    = errors.New("failed to calculate distance")
)

// RateLimitError carries the denial reason and when the window frees up.
type RateLimitError struct {
	Reason       string
	NextWindowAt time.Time
}

func (e *RateLimitError) Error() string { return e.Reason }

// PhaseStatus is the lifecycle state of a phase.
type PhaseStatus string

const (
	StatusPrepared PhaseStatus = "prepared"
	StatusActive   PhaseStatus = "active"
	StatusSolved   PhaseStatus = "solved"
)

// Phase is one round of the game, pinned to one secret coordinate.
type Phase struct {
	ID           string
	Lat          float64
	Lng          float64
	StreetViewID string
	HintText     string
	Status       PhaseStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	SolvedAt     *time.Time
}

// PreparedPhase marks a phase as admin-approved and eligible for automatic
// activation. Retained after promotion as an audit record.
type PreparedPhase struct {
	ID         string
	PhaseID    string
	ApprovedBy string
	ApprovedAt time.Time

	// Joined from the phase for listings.
	PhaseStatus PhaseStatus
	HintText    string
}

// Submission is one player guess. Immutable once created.
type Submission struct {
	ID          string
	UserID      string
	PhaseID     string
	Lat         float64
	Lng         float64
	Distance    float64 // meters, rounded to 2 decimals as persisted
	IsCorrect   bool
	SubmittedAt time.Time
}

// History records who first solved a phase and with which guess. At most one
// row per phase.
type History struct {
	ID           string
	PhaseID      string
	WinnerID     string
	WinnerName   string
	SubmittedLat float64
	SubmittedLng float64
	SolvedAt     time.Time
}

// HintVersion is one entry in the append-only log of generated hints.
type HintVersion struct {
	ID        string
	PhaseID   string
	HintType  string
	HintText  string
	Version   string
	Prompt    string
	CreatedAt time.Time
}

// User is the account referenced by submissions and histories.
type User struct {
	ID           string
	Email        string
	Nickname     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// UserStats aggregates a player's submission record.
type UserStats struct {
	TotalSubmissions int
	CorrectCount     int
	Wins             int
	BestDistance     *float64
}
