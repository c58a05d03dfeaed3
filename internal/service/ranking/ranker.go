package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/easymo/marketplace-core/internal/domain/candidate"
	"github.com/easymo/marketplace-core/pkg/logger"
)

// Strategy selects which signals dominate the ranking score
type Strategy string

const (
	StrategyBalanced  Strategy = "balanced"
	StrategyQuality   Strategy = "quality"
	StrategyProximity Strategy = "proximity"
)

// ErrUnknownStrategy is returned for strategy strings outside the known
// set. An omitted strategy defaults to balanced; an invalid one is a
// caller error and is rejected rather than silently defaulted.
type ErrUnknownStrategy struct {
	Strategy string
}

func (e *ErrUnknownStrategy) Error() string {
	return fmt.Sprintf("unknown ranking strategy %q", e.Strategy)
}

// ParseStrategy maps the wire value to a Strategy. Empty means the
// caller omitted the field and gets the balanced default.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "":
		return StrategyBalanced, nil
	case string(StrategyBalanced):
		return StrategyBalanced, nil
	case string(StrategyQuality):
		return StrategyQuality, nil
	case string(StrategyProximity):
		return StrategyProximity, nil
	}
	return "", &ErrUnknownStrategy{Strategy: s}
}

// Weights is a per-strategy weighting profile. Rating, acceptance and
// completion weigh the base sum; distance and recency are additive
// bonus multipliers and stay zero outside the proximity strategy.
type Weights struct {
	Rating     float64
	Acceptance float64
	Completion float64
	Distance   float64
	Recency    float64
}

var strategyWeights = map[Strategy]Weights{
	StrategyBalanced:  {Rating: 0.4, Acceptance: 0.3, Completion: 0.3},
	StrategyQuality:   {Rating: 0.5, Acceptance: 0.3, Completion: 0.2},
	StrategyProximity: {Rating: 0.2, Acceptance: 0.2, Completion: 0.1, Distance: 0.3, Recency: 0.2},
}

// Scoring defaults. A new driver with no metrics row scores a flat
// neutral base; partial metrics fall back per-signal.
const (
	neutralBaseScore      = 0.5
	defaultRatingNorm     = 0.6
	defaultAcceptanceNorm = 1.0
	defaultCompletionNorm = 0.8

	// Display-side fallbacks for the echoed metrics snapshot. These are
	// deliberately independent from the scoring defaults above.
	displayDefaultAcceptance = 100.0
	displayDefaultCompletion = 80.0
)

// Result is the ranked output for one request
type Result struct {
	Items    []candidate.Ranked `json:"items"`
	Count    int                `json:"count"`
	Strategy Strategy           `json:"strategy"`
}

// Service ranks driver candidates against historical metrics
type Service struct {
	metrics candidate.MetricsRepository
	logger  *logger.Logger
}

// NewService creates a new ranking service
func NewService(metrics candidate.MetricsRepository, log *logger.Logger) *Service {
	return &Service{
		metrics: metrics,
		logger:  log,
	}
}

// RankDrivers scores and sorts candidates under the given strategy.
// limit <= 0 means no truncation. Empty input short-circuits before the
// metrics repository is touched.
func (s *Service) RankDrivers(ctx context.Context, candidates []candidate.Candidate, strategy Strategy, limit int) (*Result, error) {
	if len(candidates) == 0 {
		return &Result{Items: []candidate.Ranked{}, Count: 0, Strategy: strategy}, nil
	}

	weights, ok := strategyWeights[strategy]
	if !ok {
		return nil, &ErrUnknownStrategy{Strategy: string(strategy)}
	}

	startTime := time.Now()

	userIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		userIDs = append(userIDs, c.UserID)
	}

	metricsByUser, err := s.metrics.GetBatch(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch driver metrics: %w", err)
	}

	ranked := make([]candidate.Ranked, 0, len(candidates))
	for _, c := range candidates {
		var m *candidate.DriverMetrics
		if found, ok := metricsByUser[c.UserID]; ok {
			mCopy := found
			m = &mCopy
		}
		ranked = append(ranked, candidate.Ranked{
			Candidate: c,
			Score:     Score(c, m, weights),
			Metrics:   snapshot(m),
		})
	}

	// Stable sort keeps input order for equal scores; that tie-break is
	// part of the contract, not an accident.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	if s.logger != nil {
		s.logger.Info("Candidates ranked",
			logger.Int("candidates", len(candidates)),
			logger.Int("returned", len(ranked)),
			logger.String("strategy", string(strategy)),
			logger.Int64("latency_ms", time.Since(startTime).Milliseconds()),
		)
	}

	return &Result{Items: ranked, Count: len(ranked), Strategy: strategy}, nil
}

// Score computes the bounded [0,1] suitability score for one candidate.
// nil metrics means no history at all and yields the neutral base.
func Score(c candidate.Candidate, m *candidate.DriverMetrics, w Weights) float64 {
	base := neutralBaseScore
	if m != nil {
		ratingNorm := defaultRatingNorm
		if m.AvgRating != nil {
			ratingNorm = *m.AvgRating / 5.0
		}
		acceptanceNorm := defaultAcceptanceNorm
		if m.AcceptanceRate != nil {
			acceptanceNorm = *m.AcceptanceRate / 100.0
		}
		completionNorm := defaultCompletionNorm
		if m.TotalTrips > 0 {
			completionNorm = float64(m.CompletedTrips) / float64(m.TotalTrips)
		}
		base = w.Rating*ratingNorm + w.Acceptance*acceptanceNorm + w.Completion*completionNorm
	}

	score := base + distanceBonus(c.DistanceKm) + recencyBonus(c.LocationAgeMinutes)

	// Proximity strategy earns extra additive credit for being close and
	// fresh on top of the tier bonuses; the weights are zero elsewhere.
	score += w.Distance * proximityFactor(c.DistanceKm)
	score += w.Recency * freshnessFactor(c.LocationAgeMinutes)

	return round4(math.Min(1.0, score))
}

// distanceBonus applies tiered credit for geographic closeness.
// Tier bounds are inclusive, first match wins.
func distanceBonus(distanceKm float64) float64 {
	switch {
	case distanceKm <= 2:
		return 0.20
	case distanceKm <= 5:
		return 0.10
	case distanceKm <= 10:
		return 0.05
	}
	return 0
}

// recencyBonus applies tiered credit for location freshness.
// Tier bounds are exclusive at the upper end.
func recencyBonus(ageMinutes float64) float64 {
	switch {
	case ageMinutes < 5:
		return 0.15
	case ageMinutes < 15:
		return 0.10
	case ageMinutes < 30:
		return 0.05
	}
	return 0
}

// proximityFactor linearly decays from 1 at 0km to 0 at 10km and beyond
func proximityFactor(distanceKm float64) float64 {
	return math.Max(0, 1-distanceKm/10.0)
}

// freshnessFactor linearly decays from 1 at 0min to 0 at 30min and beyond
func freshnessFactor(ageMinutes float64) float64 {
	return math.Max(0, 1-ageMinutes/30.0)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// snapshot builds the display view of the metrics actually used
func snapshot(m *candidate.DriverMetrics) candidate.MetricsSnapshot {
	snap := candidate.MetricsSnapshot{
		AcceptanceRate: displayDefaultAcceptance,
		CompletionRate: displayDefaultCompletion,
	}
	if m == nil {
		return snap
	}
	snap.AvgRating = m.AvgRating
	if m.AcceptanceRate != nil {
		snap.AcceptanceRate = *m.AcceptanceRate
	}
	if m.TotalTrips > 0 {
		snap.CompletionRate = round4(float64(m.CompletedTrips) / float64(m.TotalTrips) * 100)
	}
	return snap
}
