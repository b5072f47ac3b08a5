package textwrap

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	measure := Monospace(10) // 10px per rune

	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     []string
	}{
		{
			name:     "empty",
			text:     "",
			maxWidth: 100,
			want:     []string{""},
		},
		{
			name:     "whitespace only",
			text:     "  \t\n ",
			maxWidth: 100,
			want:     []string{""},
		},
		{
			name:     "single line",
			text:     "big sale",
			maxWidth: 100,
			want:     []string{"big sale"},
		},
		{
			name:     "greedy break",
			text:     "summer sale now on",
			maxWidth: 100,
			want:     []string{"summer", "sale now", "on"},
		},
		{
			name:     "strict comparison closes line at exact budget",
			text:     "abcd efghi",
			maxWidth: 100, // "abcd efghi" is exactly 100px
			want:     []string{"abcd", "efghi"},
		},
		{
			name:     "over-wide word kept whole",
			text:     "get supercalifragilistic deals",
			maxWidth: 80,
			want:     []string{"get", "supercalifragilistic", "deals"},
		},
		{
			name:     "collapses repeated whitespace",
			text:     "a   b\n\nc",
			maxWidth: 1000,
			want:     []string{"a b c"},
		},
		{
			name:     "no case folding",
			text:     "Mixed Case",
			maxWidth: 1000,
			want:     []string{"Mixed Case"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.maxWidth, measure)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestWrapWidthInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := strings.Fields("the quick brown fox jumps over lazy dogs while an extraordinarily verbose caption continues")
	measure := Monospace(9)

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(25)
		words := make([]string, n)
		for j := range words {
			words[j] = vocab[rng.Intn(len(vocab))]
		}
		text := strings.Join(words, " ")
		maxWidth := float64(40 + rng.Intn(300))

		lines := Wrap(text, maxWidth, measure)
		if !Fits(lines, maxWidth, measure) {
			t.Fatalf("lines exceed %v: %q", maxWidth, lines)
		}
		if got := strings.Join(lines, " "); got != text {
			t.Fatalf("wrapping lost words: %q != %q", got, text)
		}
	}
}

func TestWrapDeterministic(t *testing.T) {
	measure := Monospace(7)
	a := Wrap("one two three four five six", 60, measure)
	b := Wrap("one two three four five six", 60, measure)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Wrap not deterministic: %q vs %q", a, b)
	}
}

func TestFits(t *testing.T) {
	measure := Monospace(10)
	if !Fits([]string{"verylongword"}, 50, measure) {
		t.Error("single over-wide word should be allowed")
	}
	if Fits([]string{"two words"}, 50, measure) {
		t.Error("multi-word line over budget should not fit")
	}
}
