package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/playgeo/geohunt/internal/database"
	"github.com/playgeo/geohunt/internal/geo"
	"github.com/playgeo/geohunt/internal/hint"
	"github.com/playgeo/geohunt/internal/migrations"
	"github.com/playgeo/geohunt/internal/oracle"
	"github.com/playgeo/geohunt/internal/search"
)

// Secret coordinate used across tests: Seoul City Hall. guessNear is ~11 m
// away (inside the answer radius), guessFar is ~167 m away (outside).
const (
	secretLat = 37.5665
	secretLng = 126.9780
	nearLat   = 37.5666
	farLat    = 37.5680
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Every pooled connection to :memory: would get its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return NewSQLiteStore(db)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// playableOracle says yes to everything, so the finder succeeds on the first
// sample and phase creation is fast and deterministic enough for tests.
type playableOracle struct{}

func (playableOracle) IsLand(context.Context, float64, float64) (bool, error) { return true, nil }
func (playableOracle) HasStreetLevelImagery(context.Context, float64, float64) (bool, error) {
	return true, nil
}
func (playableOracle) NearestPano(context.Context, float64, float64) (*oracle.PanoInfo, error) {
	return &oracle.PanoInfo{PanoID: "pano-1"}, nil
}
func (playableOracle) Describe(context.Context, float64, float64) (*oracle.LocationInfo, error) {
	return &oracle.LocationInfo{Country: "South Korea", PlaceTypes: []string{"route"}}, nil
}

type capturedEvents struct {
	mu        sync.Mutex
	activated []Phase
	solved    []History
}

func (c *capturedEvents) PhaseActivated(p Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activated = append(c.activated, p)
}

func (c *capturedEvents) PhaseSolved(h History) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.solved = append(c.solved, h)
}

func newTestLifecycle(t *testing.T, store Store, opts ...LifecycleOption) *Lifecycle {
	t.Helper()
	o := playableOracle{}
	finder := search.NewFinder(o, discardLogger())
	return NewLifecycle(store, finder, o, discardLogger(), opts...)
}

func seedUser(t *testing.T, store Store, email, nickname string) User {
	t.Helper()
	u := User{ID: uuid.NewString(), Email: email, Nickname: nickname, Role: "user"}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func seedPhase(t *testing.T, store Store, status PhaseStatus) Phase {
	t.Helper()
	p := Phase{ID: uuid.NewString(), Lat: secretLat, Lng: secretLng, HintText: "a hint", Status: status}
	if err := store.CreatePhase(context.Background(), p); err != nil {
		t.Fatalf("create phase: %v", err)
	}
	return p
}

func approve(t *testing.T, store Store, phaseID, adminID string) {
	t.Helper()
	pp := PreparedPhase{ID: uuid.NewString(), PhaseID: phaseID, ApprovedBy: adminID}
	if err := store.CreatePreparedPhase(context.Background(), pp); err != nil {
		t.Fatalf("approve phase: %v", err)
	}
}

func TestCreatePhaseStartsPrepared(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)

	p, err := lc.CreatePhase(context.Background())
	if err != nil {
		t.Fatalf("CreatePhase: %v", err)
	}

	if p.Status != StatusPrepared {
		t.Errorf("status = %s, want prepared", p.Status)
	}
	if p.HintText == "" {
		t.Error("expected a generated hint")
	}
	if p.StreetViewID != "pano-1" {
		t.Errorf("street view id = %q, want pano-1", p.StreetViewID)
	}

	versions, err := store.ListHintVersions(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ListHintVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("expected 1 hint version, got %d", len(versions))
	}
	if versions[0].HintText != p.HintText {
		t.Error("hint version text should match the phase hint")
	}
}

func TestActivateDemotesPreviousActive(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	a := seedPhase(t, store, StatusPrepared)
	b := seedPhase(t, store, StatusPrepared)

	if _, err := lc.Activate(ctx, a.ID); err != nil {
		t.Fatalf("activate a: %v", err)
	}
	if _, err := lc.Activate(ctx, b.ID); err != nil {
		t.Fatalf("activate b: %v", err)
	}

	active, err := store.ActivePhase(ctx)
	if err != nil {
		t.Fatalf("ActivePhase: %v", err)
	}
	if active.ID != b.ID {
		t.Errorf("active phase = %s, want %s", active.ID, b.ID)
	}

	demoted, _ := store.GetPhase(ctx, a.ID)
	if demoted.Status != StatusSolved {
		t.Errorf("previous active phase = %s, want solved", demoted.Status)
	}
}

func TestActivateUnknownPhase(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)

	if _, err := lc.Activate(context.Background(), "nope"); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("err = %v, want ErrPhaseNotFound", err)
	}
}

func TestActivateNextFromPool(t *testing.T) {
	store := newTestStore(t)
	events := &capturedEvents{}
	lc := newTestLifecycle(t, store, WithEvents(events))
	ctx := context.Background()

	admin := seedUser(t, store, "admin@example.com", "admin")
	p := seedPhase(t, store, StatusPrepared)
	approve(t, store, p.ID, admin.ID)

	got, err := lc.ActivateNext(ctx)
	if err != nil {
		t.Fatalf("ActivateNext: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("activated %s, want %s", got.ID, p.ID)
	}
	if got.Status != StatusActive {
		t.Errorf("status = %s, want active", got.Status)
	}
	if len(events.activated) != 1 {
		t.Errorf("expected 1 activation event, got %d", len(events.activated))
	}
}

func TestActivateFromPreparedPoolEmpty(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)

	if _, err := lc.ActivateFromPreparedPool(context.Background()); !errors.Is(err, ErrNoPreparedPhase) {
		t.Errorf("err = %v, want ErrNoPreparedPhase", err)
	}
}

func TestActivateNextCreatesWhenPoolEmpty(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	p, err := lc.ActivateNext(ctx)
	if err != nil {
		t.Fatalf("ActivateNext: %v", err)
	}
	if p.Status != StatusActive {
		t.Errorf("status = %s, want active", p.Status)
	}
	if p.HintText == "" {
		t.Error("created phase should carry a hint")
	}

	active, err := store.ActivePhase(ctx)
	if err != nil || active.ID != p.ID {
		t.Errorf("ActivePhase = %v/%v, want %s", active.ID, err, p.ID)
	}
}

func TestSolveChainsNextPhase(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	admin := seedUser(t, store, "admin@example.com", "admin")
	active := seedPhase(t, store, StatusActive)
	next := seedPhase(t, store, StatusPrepared)
	approve(t, store, next.ID, admin.ID)

	p, err := lc.Solve(ctx, active.ID)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if p.Status != StatusSolved || p.SolvedAt == nil {
		t.Errorf("phase = %s/%v, want solved with timestamp", p.Status, p.SolvedAt)
	}

	newActive, err := store.ActivePhase(ctx)
	if err != nil {
		t.Fatalf("ActivePhase: %v", err)
	}
	if newActive.ID != next.ID {
		t.Errorf("next active = %s, want %s", newActive.ID, next.ID)
	}
}

func TestActiveLazyActivation(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	admin := seedUser(t, store, "admin@example.com", "admin")
	p := seedPhase(t, store, StatusPrepared)
	approve(t, store, p.ID, admin.ID)

	got, err := lc.Active(ctx)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if got.ID != p.ID || got.Status != StatusActive {
		t.Errorf("lazy activation got %s (%s), want %s active", got.ID, got.Status, p.ID)
	}
}

func TestApproveRequiresPreparedStatus(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	admin := seedUser(t, store, "admin@example.com", "admin")
	p := seedPhase(t, store, StatusPrepared)
	if _, err := lc.Activate(ctx, p.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if _, err := lc.Approve(ctx, p.ID, admin.ID); err == nil {
		t.Error("expected error approving an active phase")
	}
}

func TestRegenerateAndUseHintVersion(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	p := seedPhase(t, store, StatusPrepared)

	hv, err := lc.RegenerateHint(ctx, p.ID, hint.TypeRiddle)
	if err != nil {
		t.Fatalf("RegenerateHint: %v", err)
	}
	if hv.HintType != string(hint.TypeRiddle) {
		t.Errorf("hint type = %s, want riddle", hv.HintType)
	}

	updated, _ := store.GetPhase(ctx, p.ID)
	if updated.HintText != hv.HintText {
		t.Error("phase hint should be the regenerated text")
	}

	hv2, err := lc.RegenerateHint(ctx, p.ID, hint.TypeNegative)
	if err != nil {
		t.Fatalf("RegenerateHint: %v", err)
	}

	// Switch back to the first version.
	reverted, err := lc.UseHintVersion(ctx, p.ID, hv.ID)
	if err != nil {
		t.Fatalf("UseHintVersion: %v", err)
	}
	if reverted.HintText != hv.HintText {
		t.Error("phase hint should revert to the selected version")
	}
	if reverted.HintText == hv2.HintText {
		t.Error("reverted hint should differ from the latest one")
	}

	versions, _ := store.ListHintVersions(ctx, p.ID)
	if len(versions) != 2 {
		t.Errorf("expected 2 hint versions, got %d", len(versions))
	}
}

func TestRegenerateHintRejectsUnknownType(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)

	p := seedPhase(t, store, StatusPrepared)
	if _, err := lc.RegenerateHint(context.Background(), p.ID, hint.Type("haiku")); err == nil {
		t.Error("expected error for unknown hint type")
	}
}

func newTestSubmitter(t *testing.T, store Store, lc *Lifecycle, opts ...SubmitterOption) *Submitter {
	t.Helper()
	return NewSubmitter(store, lc, discardLogger(), opts...)
}

func TestSubmitFirstCorrectWins(t *testing.T) {
	store := newTestStore(t)
	events := &capturedEvents{}
	lc := newTestLifecycle(t, store, WithEvents(events))
	sub := newTestSubmitter(t, store, lc)
	ctx := context.Background()

	admin := seedUser(t, store, "admin@example.com", "admin")
	player := seedUser(t, store, "player@example.com", "ace")

	active := seedPhase(t, store, StatusActive)
	next := seedPhase(t, store, StatusPrepared)
	approve(t, store, next.ID, admin.ID)

	res, err := sub.Submit(ctx, player, active.ID, nearLat, secretLng)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !res.IsCorrect || !res.IsFirstCorrect {
		t.Errorf("correct=%v first=%v, want both true", res.IsCorrect, res.IsFirstCorrect)
	}
	if res.Distance > geo.AnswerRadiusMeters {
		t.Errorf("distance = %.2f, want <= %d", res.Distance, geo.AnswerRadiusMeters)
	}

	h, err := store.GetHistoryByPhase(ctx, active.ID)
	if err != nil {
		t.Fatalf("GetHistoryByPhase: %v", err)
	}
	if h.WinnerID != player.ID || h.WinnerName != "ace" {
		t.Errorf("history winner = %s/%s, want %s/ace", h.WinnerID, h.WinnerName, player.ID)
	}
	if h.SubmittedLat != nearLat || h.SubmittedLng != secretLng {
		t.Error("history should record the winning guess coordinate")
	}

	solved, _ := store.GetPhase(ctx, active.ID)
	if solved.Status != StatusSolved {
		t.Errorf("phase status = %s, want solved", solved.Status)
	}
	if solved.SolvedAt == nil {
		t.Error("solved phase should carry solved_at")
	}

	// Winning chains the next prepared phase in.
	newActive, err := store.ActivePhase(ctx)
	if err != nil {
		t.Fatalf("ActivePhase after win: %v", err)
	}
	if newActive.ID != next.ID {
		t.Errorf("next active = %s, want %s", newActive.ID, next.ID)
	}

	if len(events.solved) != 1 {
		t.Errorf("expected 1 solved event, got %d", len(events.solved))
	}
}

func TestSubmitIncorrectKeepsPhaseActive(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	sub := newTestSubmitter(t, store, lc)
	ctx := context.Background()

	player := seedUser(t, store, "player@example.com", "ace")
	active := seedPhase(t, store, StatusActive)

	res, err := sub.Submit(ctx, player, active.ID, farLat, secretLng)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if res.IsCorrect || res.IsFirstCorrect {
		t.Errorf("correct=%v first=%v, want both false", res.IsCorrect, res.IsFirstCorrect)
	}
	if res.Distance <= geo.AnswerRadiusMeters {
		t.Errorf("distance = %.2f, want > %d", res.Distance, geo.AnswerRadiusMeters)
	}

	if _, err := store.GetHistoryByPhase(ctx, active.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("history err = %v, want ErrNotFound", err)
	}

	p, _ := store.GetPhase(ctx, active.ID)
	if p.Status != StatusActive {
		t.Errorf("phase status = %s, want active", p.Status)
	}

	subs, _ := store.ListSubmissionsByUser(ctx, player.ID)
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	if subs[0].IsCorrect {
		t.Error("stored submission should be incorrect")
	}
}

func TestSubmitToSolvedPhase(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	sub := newTestSubmitter(t, store, lc)
	ctx := context.Background()

	player := seedUser(t, store, "player@example.com", "ace")
	p := seedPhase(t, store, StatusSolved)

	if _, err := sub.Submit(ctx, player, p.ID, nearLat, secretLng); !errors.Is(err, ErrPhaseNotActive) {
		t.Errorf("err = %v, want ErrPhaseNotActive", err)
	}
}

func TestSubmitUnknownPhase(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	sub := newTestSubmitter(t, store, lc)

	player := seedUser(t, store, "player@example.com", "ace")
	if _, err := sub.Submit(context.Background(), player, "nope", nearLat, secretLng); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("err = %v, want ErrPhaseNotFound", err)
	}
}

func TestSubmitRateLimit(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	sub := newTestSubmitter(t, store, lc, WithSubmitClock(clock))
	ctx := context.Background()

	player := seedUser(t, store, "player@example.com", "ace")
	p := seedPhase(t, store, StatusActive)

	for i := 0; i < submitLimit; i++ {
		now = now.Add(time.Second)
		if _, err := sub.Submit(ctx, player, p.ID, farLat, secretLng); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}

	// The 11th inside the window is denied and does not consume budget.
	_, err := sub.Submit(ctx, player, p.ID, farLat, secretLng)
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
	wantNext := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC).Add(submitWindow)
	if !rle.NextWindowAt.Equal(wantNext) {
		t.Errorf("NextWindowAt = %v, want %v", rle.NextWindowAt, wantNext)
	}

	count, _ := store.CountSubmissionsSince(ctx, player.ID, p.ID, now.Add(-submitWindow))
	if count != submitLimit {
		t.Errorf("committed submissions = %d, want %d", count, submitLimit)
	}

	// A different player is unaffected.
	other := seedUser(t, store, "other@example.com", "rival")
	if _, err := sub.Submit(ctx, other, p.ID, farLat, secretLng); err != nil {
		t.Errorf("other player blocked: %v", err)
	}

	// Once the window slides past the oldest submission, guessing resumes.
	now = now.Add(submitWindow)
	if _, err := sub.Submit(ctx, player, p.ID, farLat, secretLng); err != nil {
		t.Errorf("after window: %v", err)
	}
}

func TestSubmitBadCoordinate(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	sub := newTestSubmitter(t, store, lc)

	player := seedUser(t, store, "player@example.com", "ace")
	p := seedPhase(t, store, StatusActive)

	if _, err := sub.Submit(context.Background(), player, p.ID, math.NaN(), secretLng); !errors.Is(err, ErrBadDistance) {
		t.Errorf("err = %v, want ErrBadDistance", err)
	}
}

func TestRecordSubmissionSecondWinnerLoses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedUser(t, store, "a@example.com", "a")
	b := seedUser(t, store, "b@example.com", "b")
	p := seedPhase(t, store, StatusActive)
	now := time.Now()

	mk := func(u User) (Submission, *History) {
		return Submission{
				ID: uuid.NewString(), UserID: u.ID, PhaseID: p.ID,
				Lat: nearLat, Lng: secretLng, Distance: 11.07, IsCorrect: true, SubmittedAt: now,
			}, &History{
				ID: uuid.NewString(), PhaseID: p.ID, WinnerID: u.ID, WinnerName: u.Nickname,
				SubmittedLat: nearLat, SubmittedLng: secretLng, SolvedAt: now,
			}
	}

	subA, winA := mk(a)
	first, err := store.RecordSubmission(ctx, subA, winA)
	if err != nil {
		t.Fatalf("first RecordSubmission: %v", err)
	}
	if !first {
		t.Fatal("first correct submission should win")
	}

	subB, winB := mk(b)
	second, err := store.RecordSubmission(ctx, subB, winB)
	if err != nil {
		t.Fatalf("second RecordSubmission: %v", err)
	}
	if second {
		t.Error("second correct submission must not win")
	}

	h, err := store.GetHistoryByPhase(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetHistoryByPhase: %v", err)
	}
	if h.WinnerID != a.ID {
		t.Errorf("history winner = %s, want first submitter %s", h.WinnerID, a.ID)
	}

	// The loser's submission is still on record as correct.
	subs, _ := store.ListSubmissionsByUser(ctx, b.ID)
	if len(subs) != 1 || !subs[0].IsCorrect {
		t.Error("losing correct submission should still be recorded")
	}
}

func TestConcurrentCorrectSubmissionsOneHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := seedPhase(t, store, StatusActive)
	now := time.Now()

	const n = 8
	users := make([]User, n)
	for i := range users {
		users[i] = seedUser(t, store, uuid.NewString()+"@example.com", "racer")
	}

	wins := make(chan bool, n)
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u User) {
			defer wg.Done()
			sub := Submission{
				ID: uuid.NewString(), UserID: u.ID, PhaseID: p.ID,
				Lat: nearLat, Lng: secretLng, Distance: 11.07, IsCorrect: true, SubmittedAt: now,
			}
			win := &History{
				ID: uuid.NewString(), PhaseID: p.ID, WinnerID: u.ID, WinnerName: u.Nickname,
				SubmittedLat: nearLat, SubmittedLng: secretLng, SolvedAt: now,
			}
			first, err := store.RecordSubmission(ctx, sub, win)
			if err != nil {
				t.Errorf("RecordSubmission: %v", err)
				return
			}
			wins <- first
		}(u)
	}
	wg.Wait()
	close(wins)

	winners := 0
	for w := range wins {
		if w {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}

	histories, _ := store.ListHistories(ctx)
	if len(histories) != 1 {
		t.Errorf("histories = %d, want 1", len(histories))
	}

	subs, _ := store.ListSubmissions(ctx, 100)
	if len(subs) != n {
		t.Errorf("submissions = %d, want %d", len(subs), n)
	}
}

func TestUserStats(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	sub := newTestSubmitter(t, store, lc)
	ctx := context.Background()

	player := seedUser(t, store, "player@example.com", "ace")
	p := seedPhase(t, store, StatusActive)

	if _, err := sub.Submit(ctx, player, p.ID, farLat, secretLng); err != nil {
		t.Fatalf("incorrect submit: %v", err)
	}
	if _, err := sub.Submit(ctx, player, p.ID, nearLat, secretLng); err != nil {
		t.Fatalf("correct submit: %v", err)
	}

	stats, err := store.UserStats(ctx, player.ID)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if stats.TotalSubmissions != 2 {
		t.Errorf("total = %d, want 2", stats.TotalSubmissions)
	}
	if stats.CorrectCount != 1 {
		t.Errorf("correct = %d, want 1", stats.CorrectCount)
	}
	if stats.Wins != 1 {
		t.Errorf("wins = %d, want 1", stats.Wins)
	}
	if stats.BestDistance == nil || *stats.BestDistance > geo.AnswerRadiusMeters {
		t.Errorf("best distance = %v, want within radius", stats.BestDistance)
	}
}

func TestDeletePhaseCascades(t *testing.T) {
	store := newTestStore(t)
	lc := newTestLifecycle(t, store)
	ctx := context.Background()

	p := seedPhase(t, store, StatusPrepared)
	if _, err := lc.RegenerateHint(ctx, p.ID, hint.TypePoem); err != nil {
		t.Fatalf("RegenerateHint: %v", err)
	}

	if err := store.DeletePhase(ctx, p.ID); err != nil {
		t.Fatalf("DeletePhase: %v", err)
	}
	if _, err := store.GetPhase(ctx, p.ID); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("err = %v, want ErrPhaseNotFound", err)
	}
	if versions, _ := store.ListHintVersions(ctx, p.ID); len(versions) != 0 {
		t.Errorf("hint versions after delete = %d, want 0", len(versions))
	}

	if err := store.DeletePhase(ctx, p.ID); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("double delete err = %v, want ErrPhaseNotFound", err)
	}
}
