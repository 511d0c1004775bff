// Package search produces random playable coordinates: points that are on
// land and covered by street-level imagery, found by sampling bounded
// regions and asking the oracle about each candidate.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/playgeo/geohunt/internal/oracle"
)

// ErrNoCoordinateFound means the attempt budget ran out before any sample
// passed both the land and imagery checks. Retryable: the sampling is
// stochastic and a later run may succeed.
var ErrNoCoordinateFound = errors.New("search: no playable coordinate found within attempt budget")

// DefaultMaxAttempts bounds the total number of samples per search.
const DefaultMaxAttempts = 150

// stageABudget caps how many samples are spent on imagery-rich regions
// before widening to whole continents.
const stageABudget = 80

// Coordinate is a candidate location.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Region is a lat/lng bounding box to sample within.
type Region struct {
	Name   string
	LatMin float64
	LatMax float64
	LngMin float64
	LngMax float64
}

// Regions with dense street-level imagery coverage. Sampling here first
// maximizes the expected success rate per oracle call.
var imageryRichRegions = []Region{
	{Name: "north america coasts", LatMin: 35, LatMax: 45, LngMin: -125, LngMax: -70},
	{Name: "western europe", LatMin: 40, LatMax: 55, LngMin: -10, LngMax: 30},
	{Name: "japan and korea", LatMin: 30, LatMax: 40, LngMin: 120, LngMax: 140},
	{Name: "eastern australia", LatMin: -40, LatMax: -25, LngMin: 140, LngMax: 155},
	{Name: "eastern china", LatMin: 25, LatMax: 35, LngMin: 100, LngMax: 120},
}

// Whole-continent fallback boxes for the second stage.
var continentalRegions = []Region{
	{Name: "north america", LatMin: 25, LatMax: 50, LngMin: -125, LngMax: -65},
	{Name: "europe", LatMin: 35, LatMax: 70, LngMin: -10, LngMax: 40},
	{Name: "asia", LatMin: 20, LatMax: 50, LngMin: 70, LngMax: 140},
	{Name: "australia", LatMin: -35, LatMax: -10, LngMin: 110, LngMax: 155},
	{Name: "south america", LatMin: -35, LatMax: 5, LngMin: -80, LngMax: -35},
}

// Candidate is one sampled coordinate along with the stage that produced it.
type Candidate struct {
	Coordinate
	Attempt int // 1-based
	Stage   int // 1 for imagery-rich regions, 2 for continental fallback
	Region  string
}

// Sampler lazily yields candidate coordinates, switching from imagery-rich
// regions to continental ones once the first-stage budget is spent. It holds
// its own random source so searches are reproducible under test.
type Sampler struct {
	rng    *rand.Rand
	budget int
	richN  int
	drawn  int
}

func NewSampler(budget int, rng *rand.Rand) *Sampler {
	richN := budget
	if richN > stageABudget {
		richN = stageABudget
	}
	return &Sampler{rng: rng, budget: budget, richN: richN}
}

// Next returns the next candidate, or ok=false when the budget is exhausted.
func (s *Sampler) Next() (Candidate, bool) {
	if s.drawn >= s.budget {
		return Candidate{}, false
	}
	s.drawn++

	stage := 1
	regions := imageryRichRegions
	if s.drawn > s.richN {
		stage = 2
		regions = continentalRegions
	}

	r := regions[s.rng.IntN(len(regions))]
	return Candidate{
		Coordinate: Coordinate{
			Lat: r.LatMin + s.rng.Float64()*(r.LatMax-r.LatMin),
			Lng: r.LngMin + s.rng.Float64()*(r.LngMax-r.LngMin),
		},
		Attempt: s.drawn,
		Stage:   stage,
		Region:  r.Name,
	}, true
}

// Finder runs the sampling loop against an oracle.
type Finder struct {
	oracle  oracle.Oracle
	logger  *slog.Logger
	newRand func() *rand.Rand
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithRandSource fixes the random source factory. Used by tests.
func WithRandSource(f func() *rand.Rand) FinderOption {
	return func(s *Finder) { s.newRand = f }
}

func NewFinder(o oracle.Oracle, logger *slog.Logger, opts ...FinderOption) *Finder {
	f := &Finder{
		oracle: o,
		logger: logger,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindPlayableCoordinate samples until a candidate is both land and covered
// by imagery, returning the first such coordinate. A fatal oracle error
// (quota, authorization) aborts the whole search; exhausting maxAttempts
// returns ErrNoCoordinateFound.
func (f *Finder) FindPlayableCoordinate(ctx context.Context, maxAttempts int) (Coordinate, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	sampler := NewSampler(maxAttempts, f.newRand())

	var notLand, noImagery int
	for {
		cand, ok := sampler.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return Coordinate{}, err
		}

		land, err := f.oracle.IsLand(ctx, cand.Lat, cand.Lng)
		if err != nil {
			return Coordinate{}, fmt.Errorf("attempt %d: %w", cand.Attempt, err)
		}
		if !land {
			notLand++
			continue
		}

		hasImagery, err := f.oracle.HasStreetLevelImagery(ctx, cand.Lat, cand.Lng)
		if err != nil {
			return Coordinate{}, fmt.Errorf("attempt %d: %w", cand.Attempt, err)
		}
		if !hasImagery {
			noImagery++
			continue
		}

		f.logger.Info("found playable coordinate",
			"attempt", cand.Attempt,
			"stage", cand.Stage,
			"region", cand.Region,
			"lat", cand.Lat,
			"lng", cand.Lng,
		)
		return cand.Coordinate, nil
	}

	f.logger.Warn("coordinate search exhausted",
		"attempts", maxAttempts,
		"not_land", notLand,
		"no_imagery", noImagery,
	)
	return Coordinate{}, ErrNoCoordinateFound
}
