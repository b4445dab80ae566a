// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package query

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/wayfarer/internal/catalog"
)

// englishStopWords are function words, travel verbs and filler nouns.
var englishStopWords = []string{
	"a", "an", "the", "and", "or", "but", "of", "in", "on", "at", "to", "for",
	"from", "with", "without", "near", "by", "about", "into", "around", "some",
	"any", "is", "are", "be", "am", "was", "were", "it", "its", "this", "that",
	"these", "those", "there", "here", "i", "me", "my", "we", "us", "our",
	"you", "your", "can", "could", "would", "should", "will", "please", "what",
	"where", "which", "who", "how", "very", "really", "so", "too", "also",
	"just", "more", "most", "than", "then", "if", "not", "no", "do", "does",
	"have", "has", "get",

	"want", "wanna", "like", "love", "visit", "visiting", "go", "going",
	"travel", "traveling", "travelling", "find", "looking", "look", "search",
	"recommend", "recommendation", "recommendations", "suggest", "suggestion",
	"show", "tell", "need", "place", "places", "spot", "spots", "trip",
	"trips", "tour", "tours", "destination", "destinations", "somewhere",
	"something", "vacation", "holiday", "holidays", "weekend", "good", "best",
	"nice", "great",
}

// vietnameseStopWords are written with their diacritics.
var vietnameseStopWords = []string{
	"tôi", "mình", "chúng", "ta", "bạn", "muốn", "thích", "đi", "đến", "tới",
	"ở", "tại", "cho", "của", "và", "với", "là", "có", "không", "một",
	"những", "các", "này", "kia", "đó", "nào", "gì", "đâu", "nơi", "chỗ",
	"tìm", "kiếm", "gợi", "ý", "giới", "thiệu", "du", "lịch", "địa", "điểm",
	"chơi", "thăm", "hãy", "giúp", "xin", "ạ", "nhé", "vào",
	"gần", "khu", "vực", "nên", "được", "rất", "hơn", "nhất",
}

// stopWords holds lowercased, accented tokens dropped from free-text
// queries.
var stopWords = lowerSet(englishStopWords, vietnameseStopWords)

// plainVietnamese holds the folded forms of the Vietnamese stop words. It
// only applies to tokens typed without diacritics ("toi muon di").
var plainVietnamese = foldedSet(vietnameseStopWords)

func lowerSet(groups ...[]string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range groups {
		for _, w := range g {
			out[norm.NFC.String(strings.ToLower(w))] = struct{}{}
		}
	}
	return out
}

func foldedSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[catalog.FoldTag(w)] = struct{}{}
	}
	return out
}

// IsStopWord reports whether a lowercased token is dropped from queries.
// Accented tokens only match accented stop words.
func IsStopWord(token string) bool {
	token = norm.NFC.String(token)
	if _, ok := stopWords[token]; ok {
		return true
	}
	if catalog.FoldTag(token) != token {
		return false
	}
	_, ok := plainVietnamese[token]
	return ok
}
