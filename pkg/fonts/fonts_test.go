package fonts

import "testing"

func TestFontFallback(t *testing.T) {
	known, err := Font("Go Bold")
	if err != nil {
		t.Fatalf("Font: %v", err)
	}
	fallback, err := Font("Comic Sans MS")
	if err != nil {
		t.Fatalf("Font fallback: %v", err)
	}
	if known != fallback {
		t.Error("unknown family should resolve to the DefaultFamily font")
	}
}

func TestKnown(t *testing.T) {
	tests := []struct {
		family string
		want   bool
	}{
		{"Inter", true},
		{"  MONOSPACE ", true},
		{"Comic Sans MS", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Known(tt.family); got != tt.want {
			t.Errorf("Known(%q) = %v, want %v", tt.family, got, tt.want)
		}
	}
}

func TestFaceMeasures(t *testing.T) {
	face, err := Face("Go Mono", 20)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	defer face.Close()

	adv, ok := face.GlyphAdvance('M')
	if !ok || adv <= 0 {
		t.Errorf("GlyphAdvance('M') = %v, %v; want positive advance", adv, ok)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Names not sorted at %d: %q > %q", i, names[i-1], names[i])
		}
	}
}
