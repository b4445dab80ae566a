// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package query

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/wayfarer/internal/catalog"
)

// words splits NFC-composed text on every rune that is not a letter or
// digit, keeping case and diacritics.
func words(text string) []string {
	return strings.FieldsFunc(norm.NFC.String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Tokens lowercases and folds text and splits it on every rune that is not
// a letter or digit.
func Tokens(text string) []string {
	ws := words(text)
	for i, w := range ws {
		ws[i] = catalog.FoldTag(w)
	}
	return ws
}

// ExtractPhrase returns the longest contiguous run of non-stop tokens in
// text, folded and joined by single spaces. On ties the earliest run wins.
// A query made only of stop words yields "".
//
// Stop words are matched before folding, so accented syllables such as
// "Cần" or "Chợ" never collide with "can" or "cho". A capitalized stop
// word directly after a capitalized name word is kept as part of the name
// ("Hội An").
func ExtractPhrase(text string) string {
	ws := words(text)
	stop := make([]bool, len(ws))
	for i, w := range ws {
		stop[i] = IsStopWord(strings.ToLower(w)) &&
			!(i > 0 && !stop[i-1] && isCapitalized(ws[i-1]) && isCapitalized(w))
	}

	bestStart, bestLen := 0, 0
	start := -1
	for i := 0; i <= len(ws); i++ {
		if i < len(ws) && !stop[i] {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if n := i - start; n > bestLen {
				bestStart, bestLen = start, n
			}
			start = -1
		}
	}

	if bestLen == 0 {
		return ""
	}
	return strings.Join(Tokens(strings.Join(ws[bestStart:bestStart+bestLen], " ")), " ")
}

func isCapitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}

// NormalizeTags lowercases and trims tags, collapses interior whitespace,
// drops empties and removes duplicates keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := catalog.NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
