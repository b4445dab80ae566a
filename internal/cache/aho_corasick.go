// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package cache

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// AhoCorasick implements the Aho-Corasick string matching algorithm.
// It finds all occurrences of multiple patterns in a text in
// O(n + m + z) time, where:
//   - n = length of text
//   - m = total length of all patterns
//   - z = number of matches
//
// The query adapter uses it to detect catalog tags and province names in
// free-text queries with one pass per query.
//
// Example:
//
//	ac := NewAhoCorasick()
//	ac.AddPattern("beach", "tag")
//	ac.AddPattern("da nang", "province")
//	ac.Build()
//
//	matches := ac.Search("quiet beach near da nang")
//	// [{beach tag 6} {da nang province 17}]
type AhoCorasick struct {
	// WholeWords restricts matches to those bounded by non-alphanumeric
	// runes (or the text edges). Set before Build.
	WholeWords bool

	mu            sync.RWMutex
	root          *acNode
	patterns      []Pattern
	keys          []string
	built         bool
	caseSensitive bool
}

// acNode represents a node in the automaton.
type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	output   []int
	depth    int
}

// Pattern represents a search pattern with associated data.
type Pattern struct {
	Text string // The pattern text as added
	Data any    // Optional associated data (e.g., "tag", "province")
}

// Match represents a pattern match in the text.
type Match struct {
	Pattern  string // The matched pattern as added
	Data     any    // Associated data from the pattern
	Position int    // Start byte offset in the (lowercased) text
}

// NewAhoCorasick creates a case-insensitive automaton.
func NewAhoCorasick() *AhoCorasick {
	return &AhoCorasick{root: newACNode(0)}
}

// NewAhoCorasickCaseSensitive creates a case-sensitive automaton.
func NewAhoCorasickCaseSensitive() *AhoCorasick {
	return &AhoCorasick{root: newACNode(0), caseSensitive: true}
}

func newACNode(depth int) *acNode {
	return &acNode{children: make(map[rune]*acNode), depth: depth}
}

// AddPattern adds a pattern. Adding after Build marks the automaton for
// rebuild.
func (ac *AhoCorasick) AddPattern(pattern string, data any) {
	if pattern == "" {
		return
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.built = false
	ac.patterns = append(ac.patterns, Pattern{Text: pattern, Data: data})
	ac.keys = append(ac.keys, ac.fold(pattern))
}

// AddPatterns adds multiple patterns sharing the same data.
func (ac *AhoCorasick) AddPatterns(patterns []string, data any) {
	for _, p := range patterns {
		ac.AddPattern(p, data)
	}
}

// Build constructs the trie and failure links.
func (ac *AhoCorasick) Build() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.built {
		return
	}

	ac.root = newACNode(0)
	for i, key := range ac.keys {
		ac.insertPattern(i, key)
	}
	ac.buildFailureLinks()
	ac.built = true
}

func (ac *AhoCorasick) fold(s string) string {
	if ac.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (ac *AhoCorasick) insertPattern(index int, key string) {
	node := ac.root
	for _, ch := range key {
		if node.children[ch] == nil {
			node.children[ch] = newACNode(node.depth + 1)
		}
		node = node.children[ch]
	}
	node.output = append(node.output, index)
}

// buildFailureLinks builds failure links breadth first. Children are
// visited in rune order so output order is deterministic.
func (ac *AhoCorasick) buildFailureLinks() {
	queue := make([]*acNode, 0)
	for _, ch := range sortedRunes(ac.root.children) {
		child := ac.root.children[ch]
		child.failure = ac.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, ch := range sortedRunes(current.children) {
			child := current.children[ch]
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}

			if fail == nil {
				child.failure = ac.root
			} else {
				child.failure = fail.children[ch]
				child.output = append(child.output, child.failure.output...)
			}
		}
	}
}

func sortedRunes(m map[rune]*acNode) []rune {
	out := make([]rune, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Search finds all pattern matches in text, ordered by end position.
func (ac *AhoCorasick) Search(text string) []Match {
	var matches []Match
	ac.scan(text, func(m Match) bool {
		matches = append(matches, m)
		return true
	})
	return matches
}

// SearchFirst returns the match that ends first in text.
func (ac *AhoCorasick) SearchFirst(text string) (Match, bool) {
	var first Match
	found := false
	ac.scan(text, func(m Match) bool {
		first, found = m, true
		return false
	})
	return first, found
}

// Contains reports whether any pattern matches.
func (ac *AhoCorasick) Contains(text string) bool {
	_, found := ac.SearchFirst(text)
	return found
}

// scan walks the automaton over text and calls emit for each match until
// emit returns false.
func (ac *AhoCorasick) scan(text string, emit func(Match) bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if !ac.built || len(ac.patterns) == 0 {
		return
	}

	searchText := ac.fold(text)
	node := ac.root

	for i, ch := range searchText {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = ac.root
			continue
		}
		node = node.children[ch]

		end := i + utf8.RuneLen(ch)
		for _, idx := range node.output {
			start := end - len(ac.keys[idx])
			if ac.WholeWords && !isBoundary(searchText, start, end) {
				continue
			}
			p := ac.patterns[idx]
			if !emit(Match{Pattern: p.Text, Data: p.Data, Position: start}) {
				return
			}
		}
	}
}

// isBoundary reports whether text[start:end] is delimited by
// non-alphanumeric runes or the edges of text.
func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// PatternCount returns the number of patterns added.
func (ac *AhoCorasick) PatternCount() int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return len(ac.patterns)
}

// Clear removes all patterns and resets the automaton.
func (ac *AhoCorasick) Clear() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.root = newACNode(0)
	ac.patterns = nil
	ac.keys = nil
	ac.built = false
}
