// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package algorithms

import (
	"context"
	"math"
	"math/rand/v2"
)

// kmeansTolerance stops Lloyd iterations once no centroid moves further
// than this (squared Euclidean).
const kmeansTolerance = 1e-8

// kmeansResult is the best of several seeded k-means runs.
type kmeansResult struct {
	centroids [][]float64
	labels    []int
	inertia   float64
}

// kmeans clusters points with k-means++ seeding and Lloyd iterations. All
// nInit runs draw from a single generator seeded with seed, so a fixed seed
// and fixed input order reproduce the same labels. The run with the lowest
// inertia wins; earlier runs win ties.
func kmeans(ctx context.Context, points [][]float64, k int, seed uint64, nInit, maxIter int) (kmeansResult, error) {
	if len(points) == 0 || k <= 0 {
		return kmeansResult{}, nil
	}
	if k > len(points) {
		k = len(points)
	}
	if nInit <= 0 {
		nInit = 1
	}
	if maxIter <= 0 {
		maxIter = 1
	}

	rng := rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // reproducible clustering, not security

	var best kmeansResult
	for run := 0; run < nInit; run++ {
		if ContextCancelled(ctx) {
			return kmeansResult{}, ctx.Err()
		}
		res := lloyd(points, seedCentroids(points, k, rng), maxIter)
		if run == 0 || res.inertia < best.inertia {
			best = res
		}
	}
	return best, nil
}

// seedCentroids picks k initial centroids with k-means++: the first
// uniformly, each next one with probability proportional to its squared
// distance from the nearest centroid chosen so far.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVec(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = squaredDistance(p, centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range dist {
			total += d
		}

		next := rng.IntN(len(points))
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}

		c := cloneVec(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := squaredDistance(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

// lloyd refines centroids until labels stop changing, centroids stop
// moving or maxIter is reached. A cluster that loses every member keeps its
// previous centroid.
func lloyd(points, centroids [][]float64, maxIter int) kmeansResult {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	dim := len(points[0])

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			if c, _ := nearestCentroid(p, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			counts[labels[i]]++
			for j, x := range p {
				sums[labels[i]][j] += x
			}
		}

		var shift float64
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for j := range sums[c] {
				sums[c][j] /= float64(counts[c])
			}
			shift += squaredDistance(sums[c], centroids[c])
			centroids[c] = sums[c]
		}
		if shift <= kmeansTolerance {
			for i, p := range points {
				labels[i], _ = nearestCentroid(p, centroids)
			}
			break
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += squaredDistance(p, centroids[labels[i]])
	}
	return kmeansResult{centroids: centroids, labels: labels, inertia: inertia}
}

// nearestCentroid returns the index of the closest centroid, lowest index
// on ties, and the squared distance to it.
func nearestCentroid(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
