// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package algorithms

import (
	"math"

	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
)

// miniWorld is the five-place, three-user fixture.
func miniWorld() *Dataset {
	places := []catalog.Place{
		{ID: "p1", Name: "Ha Long Bay", Tags: []string{"Quang Ninh", "Beach", "Island"}},
		{ID: "p2", Name: "Tra Co", Tags: []string{"Quang Ninh", "Beach", "Seafood"}},
		{ID: "p3", Name: "Da Lat", Tags: []string{"Lam Dong", "Mountain", "Cool"}},
		{ID: "p4", Name: "Old Quarter", Tags: []string{"Ha Noi", "Historical", "Cultural"}},
		{ID: "p5", Name: "Datanla", Tags: []string{"Lam Dong", "Mountain", "Waterfall"}},
	}
	ratings := []feedback.Rating{
		{UserID: "u1", PlaceID: "p1", Score: 5.0},
		{UserID: "u1", PlaceID: "p2", Score: 4.5},
		{UserID: "u1", PlaceID: "p3", Score: 2.0},
		{UserID: "u2", PlaceID: "p3", Score: 5.0},
		{UserID: "u2", PlaceID: "p5", Score: 4.5},
		{UserID: "u2", PlaceID: "p1", Score: 2.5},
		{UserID: "u3", PlaceID: "p4", Score: 5.0},
	}
	return NewDataset(places, ratings, nil)
}

// twoTribes builds a world with two clearly separated taste groups of four
// users each: beach lovers and mountain lovers.
func twoTribes() *Dataset {
	places := []catalog.Place{
		{ID: "b1", Name: "Beach 1", Tags: []string{"Khanh Hoa", "Beach", "Diving"}},
		{ID: "b2", Name: "Beach 2", Tags: []string{"Khanh Hoa", "Beach", "Seafood"}},
		{ID: "m1", Name: "Mountain 1", Tags: []string{"Lao Cai", "Mountain", "Trekking"}},
		{ID: "m2", Name: "Mountain 2", Tags: []string{"Lao Cai", "Mountain", "Cool"}},
	}
	var ratings []feedback.Rating
	for _, u := range []string{"a1", "a2", "a3", "a4"} {
		ratings = append(ratings,
			feedback.Rating{UserID: u, PlaceID: "b1", Score: 5},
			feedback.Rating{UserID: u, PlaceID: "b2", Score: 4.5},
			feedback.Rating{UserID: u, PlaceID: "m1", Score: 1.5},
		)
	}
	for _, u := range []string{"z1", "z2", "z3", "z4"} {
		ratings = append(ratings,
			feedback.Rating{UserID: u, PlaceID: "m1", Score: 5},
			feedback.Rating{UserID: u, PlaceID: "m2", Score: 4.5},
			feedback.Rating{UserID: u, PlaceID: "b2", Score: 1.5},
		)
	}
	return NewDataset(places, ratings, nil)
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
