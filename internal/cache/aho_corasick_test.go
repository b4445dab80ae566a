// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package cache

import (
	"strings"
	"sync"
	"testing"
)

func TestAhoCorasick_BasicOperations(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("he", nil)
	ac.AddPattern("she", nil)
	ac.AddPattern("his", nil)
	ac.AddPattern("hers", nil)
	ac.Build()

	matches := ac.Search("ushers")

	want := map[string]int{"she": 1, "he": 2, "hers": 2}
	if len(matches) != len(want) {
		t.Fatalf("Search(ushers) = %v, want %d matches", matches, len(want))
	}
	for _, m := range matches {
		if pos, ok := want[m.Pattern]; !ok || pos != m.Position {
			t.Errorf("match %q at %d, want position %d", m.Pattern, m.Position, pos)
		}
	}
}

func TestAhoCorasick_CaseSensitivity(t *testing.T) {
	t.Parallel()

	insensitive := NewAhoCorasick()
	insensitive.AddPattern("Ha Long", nil)
	insensitive.Build()
	if !insensitive.Contains("cruise in HA LONG bay") {
		t.Error("case-insensitive Contains() = false, want true")
	}

	sensitive := NewAhoCorasickCaseSensitive()
	sensitive.AddPattern("Ha Long", nil)
	sensitive.Build()
	if sensitive.Contains("cruise in ha long bay") {
		t.Error("case-sensitive Contains() = true, want false")
	}
}

func TestAhoCorasick_WholeWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "inside word rejected", text: "hues and beaches", want: nil},
		{name: "bounded by space", text: "visit hue by the beach", want: []string{"hue", "beach"}},
		{name: "punctuation is a boundary", text: "hue, beach!", want: []string{"hue", "beach"}},
		{name: "multi-word pattern", text: "trip to lam dong now", want: []string{"lam dong"}},
		{name: "precomposed vowel does not match", text: "huế", want: nil},
	}

	ac := NewAhoCorasick()
	ac.WholeWords = true
	ac.AddPatterns([]string{"hue", "beach", "lam dong"}, "tag")
	ac.Build()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range ac.Search(tt.text) {
				got = append(got, m.Pattern)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Search(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAhoCorasick_MultiBytePositions(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("đà lạt", nil)
	ac.Build()

	text := "đi đà lạt"
	m, ok := ac.SearchFirst(text)
	if !ok {
		t.Fatal("SearchFirst() found nothing")
	}
	if got := text[m.Position:]; got != "đà lạt" {
		t.Errorf("text[Position:] = %q, want %q", got, "đà lạt")
	}
}

func TestAhoCorasick_SearchFirst(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.AddPattern("mountain", 1)
	ac.AddPattern("cool", 2)
	ac.Build()

	m, ok := ac.SearchFirst("cool mountain air")
	if !ok || m.Pattern != "cool" || m.Data != 2 || m.Position != 0 {
		t.Errorf("SearchFirst() = %+v, %v, want cool at 0", m, ok)
	}
	if _, ok := ac.SearchFirst("desert"); ok {
		t.Error("SearchFirst(desert) found a match, want none")
	}
}

func TestAhoCorasick_EdgeCases(t *testing.T) {
	t.Parallel()

	t.Run("empty pattern ignored", func(t *testing.T) {
		ac := NewAhoCorasick()
		ac.AddPattern("", nil)
		if ac.PatternCount() != 0 {
			t.Errorf("PatternCount() = %d, want 0", ac.PatternCount())
		}
	})

	t.Run("no patterns", func(t *testing.T) {
		ac := NewAhoCorasick()
		ac.Build()
		if got := ac.Search("anything"); len(got) != 0 {
			t.Errorf("Search() = %v, want empty", got)
		}
	})

	t.Run("not built", func(t *testing.T) {
		ac := NewAhoCorasick()
		ac.AddPattern("beach", nil)
		if ac.Contains("beach") {
			t.Error("Contains() before Build = true, want false")
		}
	})

	t.Run("rebuild after add", func(t *testing.T) {
		ac := NewAhoCorasick()
		ac.AddPattern("beach", nil)
		ac.Build()
		ac.AddPattern("island", nil)
		ac.Build()
		if !ac.Contains("island") {
			t.Error("Contains(island) after rebuild = false, want true")
		}
	})

	t.Run("clear", func(t *testing.T) {
		ac := NewAhoCorasick()
		ac.AddPattern("beach", nil)
		ac.Build()
		ac.Clear()
		if ac.PatternCount() != 0 || ac.Contains("beach") {
			t.Error("Clear() left patterns behind")
		}
	})
}

func TestAhoCorasick_Concurrent(t *testing.T) {
	t.Parallel()

	ac := NewAhoCorasick()
	ac.WholeWords = true
	ac.AddPatterns([]string{"beach", "island", "mountain", "waterfall"}, "tag")
	ac.Build()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := len(ac.Search("beach island mountain")); got != 3 {
					t.Errorf("Search() = %d matches, want 3", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkAhoCorasick_Search(b *testing.B) {
	ac := NewAhoCorasick()
	ac.WholeWords = true
	for _, p := range []string{"beach", "island", "mountain", "waterfall", "cultural", "historical", "lam dong", "quang ninh", "ha noi"} {
		ac.AddPattern(p, nil)
	}
	ac.Build()
	text := "looking for a quiet beach or a waterfall near lam dong with cool weather"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ac.Search(text)
	}
}
