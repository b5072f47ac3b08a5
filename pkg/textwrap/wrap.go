// Package textwrap implements greedy word wrapping against a measured width budget.
//
// The wrapper is independent of any font library: callers supply a measure
// function (typically a font face's string advance) and receive the lines in
// order. Words are never split; a single word wider than the budget occupies
// its own line.
//
//	lines := textwrap.Wrap(caption, 0.85*width, dc.MeasureString)
package textwrap

import "strings"

// MeasureFunc returns the rendered width of s in pixels.
type MeasureFunc func(s string) float64

// Wrap breaks text into lines whose measured width stays below maxWidth.
//
// Text is split on whitespace. A line starts with its first word; each further
// word is appended when the candidate "current + ' ' + word" measures strictly
// less than maxWidth, otherwise the current line is closed and the word starts
// a new one. Empty or blank input yields a single empty line.
func Wrap(text string, maxWidth float64, measure MeasureFunc) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, 4)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) < maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// Fits reports whether every line is within maxWidth, allowing single-word
// lines to overflow.
func Fits(lines []string, maxWidth float64, measure MeasureFunc) bool {
	for _, line := range lines {
		if measure(line) <= maxWidth {
			continue
		}
		if strings.ContainsAny(line, " \t") {
			return false
		}
	}
	return true
}

// Monospace returns a MeasureFunc that charges advance pixels per rune.
// Used for tests and for sizing captions before a font face is available.
func Monospace(advance float64) MeasureFunc {
	return func(s string) float64 {
		return float64(len([]rune(s))) * advance
	}
}
