// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package algorithms

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
)

// Effective rating values assigned to explicit marks.
const (
	LikeScore    = feedback.MaxScore
	DislikeScore = feedback.MinScore
)

// Dataset is a point-in-time snapshot of the catalog and feedback store.
// Every artifact built from the same Dataset is mutually consistent.
type Dataset struct {
	// Places is the catalog in id order.
	Places []catalog.Place
	// Ratings is every stored rating in (user, place) order.
	Ratings []feedback.Rating
	// Likes is every like mark in (user, place) order.
	Likes []feedback.LikeMark

	once      sync.Once
	placeIdx  map[string]int
	users     []string
	effective []feedback.Rating
	byUser    map[string][]feedback.Rating
}

// LoadDataset snapshots a catalog and a feedback store.
func LoadDataset(ctx context.Context, cat catalog.Store, fb feedback.Store) (*Dataset, error) {
	places, err := catalog.All(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	d := &Dataset{Places: places}
	if err := fb.IterRatings(ctx, "", func(r feedback.Rating) error {
		d.Ratings = append(d.Ratings, r)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	if err := fb.IterLikes(ctx, func(m feedback.LikeMark) error {
		d.Likes = append(d.Likes, m)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load likes: %w", err)
	}
	return d, nil
}

// NewDataset builds a dataset from in-memory slices. Places are sorted by id;
// ratings and likes are sorted by (user, place).
func NewDataset(places []catalog.Place, ratings []feedback.Rating, likes []feedback.LikeMark) *Dataset {
	p := append([]catalog.Place(nil), places...)
	sort.Slice(p, func(i, j int) bool { return p[i].ID < p[j].ID })
	r := append([]feedback.Rating(nil), ratings...)
	sort.Slice(r, func(i, j int) bool {
		if r[i].UserID != r[j].UserID {
			return r[i].UserID < r[j].UserID
		}
		return r[i].PlaceID < r[j].PlaceID
	})
	l := append([]feedback.LikeMark(nil), likes...)
	sort.Slice(l, func(i, j int) bool {
		if l[i].UserID != l[j].UserID {
			return l[i].UserID < l[j].UserID
		}
		return l[i].PlaceID < l[j].PlaceID
	})
	return &Dataset{Places: p, Ratings: r, Likes: l}
}

func (d *Dataset) init() {
	d.once.Do(func() {
		d.placeIdx = make(map[string]int, len(d.Places))
		for i := range d.Places {
			d.placeIdx[d.Places[i].ID] = i
		}

		type key struct{ user, place string }
		merged := make(map[key]float64, len(d.Ratings)+len(d.Likes))
		for _, r := range d.Ratings {
			if _, ok := d.placeIdx[r.PlaceID]; ok {
				merged[key{r.UserID, r.PlaceID}] = r.Score
			}
		}
		// Explicit marks override the stored score.
		for _, m := range d.Likes {
			if _, ok := d.placeIdx[m.PlaceID]; !ok {
				continue
			}
			if m.IsLike {
				merged[key{m.UserID, m.PlaceID}] = LikeScore
			} else {
				merged[key{m.UserID, m.PlaceID}] = DislikeScore
			}
		}

		d.effective = make([]feedback.Rating, 0, len(merged))
		for k, s := range merged {
			d.effective = append(d.effective, feedback.Rating{UserID: k.user, PlaceID: k.place, Score: s})
		}
		sort.Slice(d.effective, func(i, j int) bool {
			if d.effective[i].UserID != d.effective[j].UserID {
				return d.effective[i].UserID < d.effective[j].UserID
			}
			return d.effective[i].PlaceID < d.effective[j].PlaceID
		})

		d.byUser = make(map[string][]feedback.Rating)
		for _, r := range d.effective {
			if _, ok := d.byUser[r.UserID]; !ok {
				d.users = append(d.users, r.UserID)
			}
			d.byUser[r.UserID] = append(d.byUser[r.UserID], r)
		}
	})
}

// PlaceIndex returns the row of a place id in Places.
func (d *Dataset) PlaceIndex(id string) (int, bool) {
	d.init()
	i, ok := d.placeIdx[id]
	return i, ok
}

// Users returns user ids with at least one effective rating, sorted.
func (d *Dataset) Users() []string {
	d.init()
	return d.users
}

// Effective returns ratings merged with like marks (like = 5.0,
// dislike = 1.0), restricted to catalog places, in (user, place) order.
func (d *Dataset) Effective() []feedback.Rating {
	d.init()
	return d.effective
}

// UserRatings returns a user's effective ratings in place order.
func (d *Dataset) UserRatings(userID string) []feedback.Rating {
	d.init()
	return d.byUser[userID]
}

// EffectiveRatings merges one user's stored ratings and like marks the same
// way Dataset does. Marks for places outside known are dropped when known is
// non-nil.
func EffectiveRatings(ratings []feedback.Rating, likes []feedback.LikeMark, known func(string) bool) map[string]float64 {
	out := make(map[string]float64, len(ratings)+len(likes))
	for _, r := range ratings {
		if known == nil || known(r.PlaceID) {
			out[r.PlaceID] = r.Score
		}
	}
	for _, m := range likes {
		if known != nil && !known(m.PlaceID) {
			continue
		}
		if m.IsLike {
			out[m.PlaceID] = LikeScore
		} else {
			out[m.PlaceID] = DislikeScore
		}
	}
	return out
}
