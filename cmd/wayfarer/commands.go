// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/rating"
	"github.com/tomtom215/wayfarer/internal/recommend"
)

// withApp loads configuration, opens the app, runs fn and closes it.
func withApp(e *env, fn func(a *app) error) (err error) {
	cfg, err := loadConfig(e, false)
	if err != nil {
		return err
	}
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = apperr.Wrap(apperr.CodeInternal, "close", cerr)
		}
	}()
	return fn(a)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runBuild(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	kinds, helped, err := parseArgs(e, fs, args)
	if helped || err != nil {
		return err
	}
	if len(kinds) > 1 {
		return apperr.InvalidArgument("build", "expected at most one artifact kind, got %d", len(kinds))
	}
	kind := recommend.KindAll
	if len(kinds) == 1 {
		k, err := recommend.ParseKind(kinds[0])
		if err != nil {
			return err
		}
		kind = k
	}

	return withApp(e, func(a *app) error {
		snap, err := a.manager.Rebuild(ctx, kind)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(snap.Blobs))
		for name := range snap.Blobs {
			names = append(names, name)
		}
		sort.Strings(names)

		if *asJSON {
			out := make([]interface{}, 0, len(names))
			for _, name := range names {
				out = append(out, snap.Blobs[name])
			}
			return writeJSON(e.stdout, map[string]interface{}{
				"kind":      kind,
				"rule_set":  snap.RuleSet,
				"artifacts": out,
			})
		}
		for _, name := range names {
			info := snap.Blobs[name]
			checksum := info.Checksum
			if len(checksum) > 12 {
				checksum = checksum[:12]
			}
			_, _ = fmt.Fprintf(e.stdout, "%-14s generation %-4d %8d bytes  sha256:%s\n",
				name, info.Generation, info.SizeBytes, checksum)
		}
		return nil
	})
}

func runEvaluate(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	k := fs.Int("k", 0, "cutoff for the ranking metrics (default from config)")
	holdout := fs.Float64("holdout", 0, "fraction of each user's positives held out (default from config)")
	seed := fs.Uint64("seed", 0, "split seed (default from config)")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if helped, err := parseFlags(e, fs, args); helped || err != nil {
		return err
	}

	return withApp(e, func(a *app) error {
		report, err := recommend.Evaluate(ctx, a.catalog, a.feedback, &a.cfg.Recommend,
			recommend.EvaluateOptions{K: *k, Holdout: *holdout, Seed: *seed}, a.logger)
		if err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(e.stdout, report)
		}
		w := e.stdout
		_, _ = fmt.Fprintf(w, "users evaluated   %d (skipped %d, held out %d)\n", report.UsersEvaluated, report.UsersSkipped, report.HeldOut)
		_, _ = fmt.Fprintf(w, "precision@%-7d %.4f\n", report.K, report.Precision)
		_, _ = fmt.Fprintf(w, "recall@%-10d %.4f\n", report.K, report.Recall)
		_, _ = fmt.Fprintf(w, "hit_rate@%-8d %.4f\n", report.K, report.HitRate)
		_, _ = fmt.Fprintf(w, "ndcg@%-12d %.4f\n", report.K, report.NDCG)
		_, _ = fmt.Fprintf(w, "coverage          %.4f\n", report.Coverage)
		return nil
	})
}

func runRecommend(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	tags := fs.String("tags", "", "comma-separated preference tags")
	q := fs.String("q", "", "free-text query")
	provinces := fs.String("provinces", "", "comma-separated province filter")
	k := fs.Int("k", 0, "number of results (default from config)")
	filterExpr := fs.String("filter", "", "CEL filter over place fields")
	includeSeen := fs.Bool("include-seen", false, "keep places the user already rated highly")
	asJSON := fs.Bool("json", false, "print the response as JSON")
	if helped, err := parseFlags(e, fs, args); helped || err != nil {
		return err
	}

	return withApp(e, func(a *app) error {
		if _, err := a.manager.Load(ctx); err != nil {
			return err
		}
		resp, err := a.engine.Recommend(ctx, recommend.Request{
			UserID:      *user,
			Tags:        splitList(*tags),
			Query:       *q,
			Provinces:   splitList(*provinces),
			K:           *k,
			Filter:      *filterExpr,
			IncludeSeen: *includeSeen,
		})
		if err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(e.stdout, resp)
		}
		printRecommendations(e.stdout, resp)
		return nil
	})
}

func printRecommendations(w io.Writer, resp *recommend.Response) {
	for i, item := range resp.Items {
		name := item.Name
		if item.Province != "" {
			name += " (" + item.Province + ")"
		}
		_, _ = fmt.Fprintf(w, "%2d. %-12s %-40s %.4f  %s\n", i+1, item.PlaceID, name, item.Score, item.Reason)
	}
	md := resp.Metadata
	line := fmt.Sprintf("mode=%s generation=%d candidates=%d", md.Mode, md.Generation, md.Candidates)
	if len(md.SignalsUsed) > 0 {
		line += " signals=" + strings.Join(md.SignalsUsed, ",")
	}
	if md.Fallback != "" {
		line += " fallback=" + md.Fallback
	}
	if md.Degraded {
		line += " degraded"
	}
	_, _ = fmt.Fprintln(w, line)
}

func runRecord(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	place := fs.String("place", "", "place id")
	event := fs.String("event", "", "like, dislike, comment, search or watch=<seconds>")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if helped, err := parseFlags(e, fs, args); helped || err != nil {
		return err
	}
	ev, err := rating.ParseEvent(*event)
	if err != nil {
		return err
	}

	return withApp(e, func(a *app) error {
		res, err := a.ratings.Record(ctx, *user, *place, ev)
		if err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(e.stdout, res)
		}
		_, _ = fmt.Fprintf(e.stdout, "%s score=%.2f changed=%t\n", res.Status, res.Score, res.Changed)
		return nil
	})
}

func runRating(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("rating", flag.ContinueOnError)
	user := fs.String("user", "", "user id")
	place := fs.String("place", "", "place id")
	if helped, err := parseFlags(e, fs, args); helped || err != nil {
		return err
	}

	return withApp(e, func(a *app) error {
		score, ok, err := a.ratings.GetRating(ctx, *user, *place)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("rating", "no rating for user %q and place %q", *user, *place)
		}
		_, _ = fmt.Fprintf(e.stdout, "%.2f\n", score)
		return nil
	})
}
