package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/playgeo/geohunt/internal/hint"
	"github.com/playgeo/geohunt/internal/oracle"
	"github.com/playgeo/geohunt/internal/search"
)

// ErrNoPreparedPhase means the prepared pool has no phase left to activate.
var ErrNoPreparedPhase = errors.New("no prepared phase available")

// HintGenerator produces a hint for a location summary. Satisfied by the
// model-backed composer; the deterministic template composer is adapted to it
// below and used as the fallback.
type HintGenerator interface {
	Compose(ctx context.Context, s hint.Summary, t hint.Type) (hint.Hint, error)
}

type templateGenerator struct{ c hint.Composer }

func (g templateGenerator) Compose(_ context.Context, s hint.Summary, t hint.Type) (hint.Hint, error) {
	return g.c.Compose(s, t)
}

// Events receives phase transitions for fan-out to connected clients.
type Events interface {
	PhaseActivated(p Phase)
	PhaseSolved(h History)
}

type noEvents struct{}

func (noEvents) PhaseActivated(Phase) {}
func (noEvents) PhaseSolved(History)  {}

// PhasePreview is the admin view of a phase: the full record including the
// secret coordinate, place metadata, and the latest hint version.
type PhasePreview struct {
	Phase      Phase
	Location   *oracle.LocationInfo
	LatestHint *HintVersion
}

// Lifecycle drives phases through prepared, active, and solved.
type Lifecycle struct {
	store     Store
	finder    *search.Finder
	oracle    oracle.Oracle
	generator HintGenerator
	fallback  HintGenerator
	events    Events
	logger    *slog.Logger

	now      func() time.Time
	newID    func() string
	randIntN func(int) int
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithHintGenerator sets the primary hint generator. The deterministic
// template composer remains the fallback.
func WithHintGenerator(g HintGenerator) LifecycleOption {
	return func(l *Lifecycle) { l.generator = g }
}

// WithEvents attaches a phase-transition sink.
func WithEvents(e Events) LifecycleOption {
	return func(l *Lifecycle) { l.events = e }
}

// WithClock fixes the time source. Used by tests.
func WithClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) { l.now = now }
}

// WithIDSource fixes id generation. Used by tests.
func WithIDSource(f func() string) LifecycleOption {
	return func(l *Lifecycle) { l.newID = f }
}

func NewLifecycle(store Store, finder *search.Finder, o oracle.Oracle, logger *slog.Logger, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		store:    store,
		finder:   finder,
		oracle:   o,
		fallback: templateGenerator{},
		events:   noEvents{},
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		randIntN: rand.IntN,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.generator == nil {
		l.generator = l.fallback
	}
	return l
}

// CreatePhase finds a playable coordinate, generates a hint for it, and
// persists the phase in the prepared state. Pano lookup and place metadata
// are best effort: a phase with a vaguer hint beats no phase.
func (l *Lifecycle) CreatePhase(ctx context.Context) (Phase, error) {
	coord, err := l.finder.FindPlayableCoordinate(ctx, search.DefaultMaxAttempts)
	if err != nil {
		return Phase{}, fmt.Errorf("creating phase: %w", err)
	}

	var panoID string
	if pano, err := l.oracle.NearestPano(ctx, coord.Lat, coord.Lng); err != nil {
		l.logger.Warn("pano lookup failed", "error", err)
	} else if pano != nil {
		panoID = pano.PanoID
	}

	h, prompt := l.composeHint(ctx, coord.Lat, coord.Lng, hint.RandomType())

	p := Phase{
		ID:           l.newID(),
		Lat:          coord.Lat,
		Lng:          coord.Lng,
		StreetViewID: panoID,
		HintText:     h.Text,
		Status:       StatusPrepared,
	}
	if err := l.store.CreatePhase(ctx, p); err != nil {
		return Phase{}, fmt.Errorf("creating phase: %w", err)
	}
	if err := l.recordHintVersion(ctx, p.ID, h, prompt); err != nil {
		l.logger.Warn("recording hint version failed", "phase_id", p.ID, "error", err)
	}

	l.logger.Info("phase created", "phase_id", p.ID, "hint_type", h.Type)
	return l.store.GetPhase(ctx, p.ID)
}

// PreviewPhase assembles the admin preview. The place description is best
// effort: the preview is still useful without it.
func (l *Lifecycle) PreviewPhase(ctx context.Context, phaseID string) (PhasePreview, error) {
	p, err := l.store.GetPhase(ctx, phaseID)
	if err != nil {
		return PhasePreview{}, err
	}

	pv := PhasePreview{Phase: p}
	if info, err := l.oracle.Describe(ctx, p.Lat, p.Lng); err == nil {
		pv.Location = info
	} else {
		l.logger.Warn("describing phase coordinate failed", "phase_id", phaseID, "error", err)
	}

	versions, err := l.store.ListHintVersions(ctx, phaseID)
	if err == nil && len(versions) > 0 {
		pv.LatestHint = &versions[0]
	}
	return pv, nil
}

// Approve moves a prepared phase into the activation pool.
func (l *Lifecycle) Approve(ctx context.Context, phaseID, adminID string) (PreparedPhase, error) {
	p, err := l.store.GetPhase(ctx, phaseID)
	if err != nil {
		return PreparedPhase{}, err
	}
	if p.Status != StatusPrepared {
		return PreparedPhase{}, fmt.Errorf("phase %s is %s, only prepared phases can be approved", phaseID, p.Status)
	}

	pp := PreparedPhase{
		ID:         l.newID(),
		PhaseID:    phaseID,
		ApprovedBy: adminID,
	}
	if err := l.store.CreatePreparedPhase(ctx, pp); err != nil {
		return PreparedPhase{}, fmt.Errorf("approving phase: %w", err)
	}
	return pp, nil
}

// Activate makes the given phase the single active one, demoting any
// currently active phase.
func (l *Lifecycle) Activate(ctx context.Context, phaseID string) (Phase, error) {
	if err := l.store.PromotePhase(ctx, phaseID, l.now()); err != nil {
		return Phase{}, err
	}
	p, err := l.store.GetPhase(ctx, phaseID)
	if err != nil {
		return Phase{}, err
	}
	l.events.PhaseActivated(p)
	l.logger.Info("phase activated", "phase_id", p.ID)
	return p, nil
}

// ActivateFromPreparedPool picks a random approved phase that is still
// prepared and activates it. ErrNoPreparedPhase when the pool is empty.
func (l *Lifecycle) ActivateFromPreparedPool(ctx context.Context) (Phase, error) {
	ids, err := l.store.EligiblePreparedPhaseIDs(ctx)
	if err != nil {
		return Phase{}, err
	}
	if len(ids) == 0 {
		return Phase{}, ErrNoPreparedPhase
	}
	return l.Activate(ctx, ids[l.randIntN(len(ids))])
}

// ActivateNext keeps the game running: it prefers the approved pool and falls
// back to creating a brand-new phase when the pool is dry.
func (l *Lifecycle) ActivateNext(ctx context.Context) (Phase, error) {
	p, err := l.ActivateFromPreparedPool(ctx)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNoPreparedPhase) {
		return Phase{}, err
	}

	l.logger.Info("prepared pool empty, creating a phase")
	p, err = l.CreatePhase(ctx)
	if err != nil {
		return Phase{}, err
	}
	return l.Activate(ctx, p.ID)
}

// Solve stamps the phase solved and chains the next activation. The
// submission path solves phases inside its own transaction; this is the
// lifecycle-level operation for closing a phase without a winning guess.
func (l *Lifecycle) Solve(ctx context.Context, phaseID string) (Phase, error) {
	if err := l.store.SolvePhase(ctx, phaseID, l.now()); err != nil {
		return Phase{}, err
	}
	p, err := l.store.GetPhase(ctx, phaseID)
	if err != nil {
		return Phase{}, err
	}
	if _, err := l.ActivateNext(ctx); err != nil {
		l.logger.Error("activating next phase failed", "error", err)
	}
	return p, nil
}

// Active returns the current active phase, lazily promoting one from the
// prepared pool when none is active.
func (l *Lifecycle) Active(ctx context.Context) (Phase, error) {
	p, err := l.store.ActivePhase(ctx)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Phase{}, err
	}
	return l.ActivateNext(ctx)
}

// RegenerateHint generates a fresh hint of the requested type for the phase,
// appends it to the version log, and makes it the phase's current hint.
func (l *Lifecycle) RegenerateHint(ctx context.Context, phaseID string, t hint.Type) (HintVersion, error) {
	if !t.Valid() {
		return HintVersion{}, fmt.Errorf("unknown hint type %q", t)
	}
	p, err := l.store.GetPhase(ctx, phaseID)
	if err != nil {
		return HintVersion{}, err
	}

	h, prompt := l.composeHint(ctx, p.Lat, p.Lng, t)
	hv := HintVersion{
		ID:       l.newID(),
		PhaseID:  phaseID,
		HintType: string(h.Type),
		HintText: h.Text,
		Version:  h.Version,
		Prompt:   prompt,
	}
	if err := l.store.CreateHintVersion(ctx, hv); err != nil {
		return HintVersion{}, fmt.Errorf("recording hint version: %w", err)
	}
	if err := l.store.UpdateHintText(ctx, phaseID, h.Text); err != nil {
		return HintVersion{}, err
	}
	return hv, nil
}

// UseHintVersion makes a previously generated hint the phase's current one.
func (l *Lifecycle) UseHintVersion(ctx context.Context, phaseID, versionID string) (Phase, error) {
	hv, err := l.store.GetHintVersion(ctx, phaseID, versionID)
	if err != nil {
		return Phase{}, err
	}
	if err := l.store.UpdateHintText(ctx, phaseID, hv.HintText); err != nil {
		return Phase{}, err
	}
	return l.store.GetPhase(ctx, phaseID)
}

// composeHint describes the coordinate and generates a hint, degrading in two
// steps: metadata failure yields an empty summary, generator failure falls
// back to the deterministic templates. Never fails.
func (l *Lifecycle) composeHint(ctx context.Context, lat, lng float64, t hint.Type) (hint.Hint, string) {
	info, err := l.oracle.Describe(ctx, lat, lng)
	if err != nil {
		l.logger.Warn("describing coordinate failed, composing from empty summary", "error", err)
		info = nil
	}
	s := hint.Summarize(info)

	h, err := l.generator.Compose(ctx, s, t)
	if err != nil {
		l.logger.Warn("hint generation failed, using template composer", "hint_type", t, "error", err)
		h, _ = l.fallback.Compose(ctx, s, t)
	}
	return h, h.Prompt
}

func (l *Lifecycle) recordHintVersion(ctx context.Context, phaseID string, h hint.Hint, prompt string) error {
	return l.store.CreateHintVersion(ctx, HintVersion{
		ID:       l.newID(),
		PhaseID:  phaseID,
		HintType: string(h.Type),
		HintText: h.Text,
		Version:  h.Version,
		Prompt:   prompt,
	})
}
