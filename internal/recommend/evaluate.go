// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package recommend

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
	"github.com/tomtom215/wayfarer/internal/recommend/algorithms"
	"github.com/tomtom215/wayfarer/internal/recommend/storage"
)

// minEvalPositives is the fewest positives a user needs to be evaluated:
// at least one held out and one left for training.
const minEvalPositives = 2

// EvaluateOptions controls an offline evaluation run. Zero fields take the
// values from Config.Evaluate.
type EvaluateOptions struct {
	K       int
	Holdout float64
	Seed    uint64
}

// Report summarizes an offline evaluation. Ranking metrics are averaged
// over evaluated users.
type Report struct {
	K       int     `json:"k"`
	Holdout float64 `json:"holdout"`
	Seed    uint64  `json:"seed"`

	UsersEvaluated int `json:"users_evaluated"`
	UsersSkipped   int `json:"users_skipped"`
	HeldOut        int `json:"held_out"`

	Precision float64 `json:"precision_at_k"`
	Recall    float64 `json:"recall_at_k"`
	HitRate   float64 `json:"hit_rate_at_k"`
	NDCG      float64 `json:"ndcg_at_k"`

	// Coverage is the fraction of the catalog recommended to anyone.
	Coverage float64 `json:"coverage"`

	Duration time.Duration `json:"duration_ns"`
}

// Evaluate measures ranking quality with a per-user holdout of positively
// rated places. Artifacts are rebuilt from the training feedback only, in
// memory; fb and the configured artifact store are not modified.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Evaluate(ctx context.Context, cat catalog.Store, fb feedback.Store, cfg *Config, opts EvaluateOptions, logger zerolog.Logger) (*Report, error) {
	const op = "recommend.Evaluate"
	start := time.Now()

	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts = withEvaluateDefaults(opts, cfg.Evaluate)
	if opts.K < 1 {
		return nil, apperr.InvalidArgument(op, "k must be positive, got %d", opts.K)
	}
	if opts.Holdout <= 0 || opts.Holdout >= 1 {
		return nil, apperr.InvalidArgument(op, "holdout must be in (0, 1), got %v", opts.Holdout)
	}

	d, err := algorithms.LoadDataset(ctx, cat, fb)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, op, err)
	}

	positive := cfg.Popularity.PositiveScore
	if positive <= 0 {
		positive = algorithms.DefaultPositiveScore
	}

	report := &Report{K: opts.K, Holdout: opts.Holdout, Seed: opts.Seed}
	heldOut := make(map[string]map[string]struct{})
	var users []string
	for _, u := range d.Users() {
		var pos []string
		for _, r := range d.UserRatings(u) {
			if r.Score >= positive {
				pos = append(pos, r.PlaceID)
			}
		}
		if len(pos) < minEvalPositives {
			report.UsersSkipped++
			continue
		}
		held := holdout(u, pos, opts.Holdout, opts.Seed)
		heldOut[u] = held
		report.HeldOut += len(held)
		users = append(users, u)
	}

	train, err := trainingFeedback(ctx, d, heldOut)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, op, err)
	}

	evalCfg := cfg.Clone()
	evalCfg.Cache.Enabled = false
	nop := logger.Level(zerolog.WarnLevel)

	manager := NewManager(cat, train, storage.NewMemoryStore(), evalCfg, nop)
	if _, err := manager.Rebuild(ctx, KindAll); err != nil {
		return nil, err
	}
	engine, err := NewEngine(evalCfg, manager, train, nil, nop)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, op, err)
	}

	recommended := make(map[string]struct{})
	var precision, recall, hits, ndcg float64
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := engine.Recommend(ctx, Request{UserID: u, K: opts.K})
		if err != nil {
			return nil, err
		}
		held := heldOut[u]
		var hit int
		var dcg float64
		for i, item := range resp.Items {
			recommended[item.PlaceID] = struct{}{}
			if _, ok := held[item.PlaceID]; ok {
				hit++
				dcg += 1 / math.Log2(float64(i+2))
			}
		}
		precision += float64(hit) / float64(opts.K)
		recall += float64(hit) / float64(len(held))
		if hit > 0 {
			hits++
		}
		if ideal := idealDCG(min(len(held), opts.K)); ideal > 0 {
			ndcg += dcg / ideal
		}
	}

	report.UsersEvaluated = len(users)
	if n := float64(len(users)); n > 0 {
		report.Precision = precision / n
		report.Recall = recall / n
		report.HitRate = hits / n
		report.NDCG = ndcg / n
	}
	if len(d.Places) > 0 {
		report.Coverage = float64(len(recommended)) / float64(len(d.Places))
	}
	report.Duration = time.Since(start)

	logger.Info().
		Int("k", report.K).
		Int("users_evaluated", report.UsersEvaluated).
		Int("users_skipped", report.UsersSkipped).
		Float64("precision", report.Precision).
		Float64("recall", report.Recall).
		Float64("ndcg", report.NDCG).
		Dur("duration", report.Duration).
		Msg("Evaluation complete")

	return report, nil
}

func withEvaluateDefaults(o EvaluateOptions, def EvaluateConfig) EvaluateOptions {
	if o.K == 0 {
		o.K = def.K
	}
	if o.Holdout == 0 {
		o.Holdout = def.Holdout
	}
	if o.Seed == 0 {
		o.Seed = def.Seed
	}
	return o
}

// holdout picks max(1, floor(fraction*n)) of a user's positives, never all
// of them. The choice depends only on the user id, the positives and seed.
func holdout(userID string, positives []string, fraction float64, seed uint64) map[string]struct{} {
	n := int(math.Floor(fraction * float64(len(positives))))
	n = max(n, 1)
	n = min(n, len(positives)-1)

	h := fnv.New64a()
	_, _ = h.Write([]byte(userID)) //nolint:errcheck // hash writes never fail
	rng := rand.New(rand.NewPCG(seed, h.Sum64())) //nolint:gosec // reproducible split, not security

	shuffled := append([]string(nil), positives...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	out := make(map[string]struct{}, n)
	for _, id := range shuffled[:n] {
		out[id] = struct{}{}
	}
	return out
}

// trainingFeedback copies d's stored feedback into a memory store, leaving
// out held-out pairs entirely (ratings and like marks).
func trainingFeedback(ctx context.Context, d *algorithms.Dataset, held map[string]map[string]struct{}) (*feedback.MemoryStore, error) {
	isHeld := func(user, place string) bool {
		_, ok := held[user][place]
		return ok
	}

	train := feedback.NewMemoryStore()
	for _, r := range d.Ratings {
		if isHeld(r.UserID, r.PlaceID) {
			continue
		}
		if err := train.UpsertRating(ctx, r.UserID, r.PlaceID, r.Score); err != nil {
			return nil, fmt.Errorf("copy rating: %w", err)
		}
	}
	for _, m := range d.Likes {
		if isHeld(m.UserID, m.PlaceID) {
			continue
		}
		if err := train.SetLike(ctx, m.UserID, m.PlaceID, m.IsLike); err != nil {
			return nil, fmt.Errorf("copy like: %w", err)
		}
	}
	return train, nil
}

// idealDCG is the binary-relevance DCG of n relevant items at the top.
func idealDCG(n int) float64 {
	var v float64
	for i := 0; i < n; i++ {
		v += 1 / math.Log2(float64(i+2))
	}
	return v
}
