// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package cache provides the in-memory data structures shared by the query
adapter and the recommender.

# Overview

The package provides:
  - LRU: a generic, thread-safe least-recently-used cache with TTL
  - AhoCorasick: a multi-pattern matcher used to spot known tags and
    province names inside free-text queries

# LRU

LRU backs the recommendation response cache. Entries expire lazily on Get
and can be swept with CleanupExpired. The recommender keys entries by
artifact generation, so publishing a new snapshot makes older entries
unreachable without an explicit flush:

	c := cache.NewLRU[*Response](10000, 5*time.Minute)
	c.Add("g3|u1|beach|k=10", resp)
	if resp, ok := c.Get("g3|u1|beach|k=10"); ok {
	    // served from cache
	}

# Aho-Corasick

AhoCorasick finds all occurrences of many patterns in one pass over the
text. With WholeWords enabled a match must start and end on a word
boundary, so the tag "hue" matches "visit hue" but not "hues":

	ac := cache.NewAhoCorasick()
	ac.WholeWords = true
	ac.AddPattern("lam dong", "province")
	ac.AddPattern("waterfall", "tag")
	ac.Build()

	matches := ac.Search("waterfalls near lam dong")
	// [{Pattern: "lam dong", Data: "province", Position: 16}]

# Thread Safety

All exported types are safe for concurrent use. AhoCorasick must be built
before it is searched; Search on an unbuilt automaton returns no matches.
*/
package cache
