package design

import (
	"image/color"
	"sync"
	"testing"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"top-left", TopLeft, false},
		{"Bottom-Right", BottomRight, false},
		{" top-right ", TopRight, false},
		{"center", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePosition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePosition(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePattern(t *testing.T) {
	for _, p := range Patterns {
		got, err := ParsePattern(string(p))
		if err != nil || got != p {
			t.Errorf("ParsePattern(%q) = %q, %v", p, got, err)
		}
	}
	if _, err := ParsePattern("plaid"); !errors.Is(err, errors.ErrCodeInvalidSettings) {
		t.Errorf("ParsePattern(plaid) error = %v, want INVALID_SETTINGS", err)
	}
	if _, ok := PatternNone.Tint(); ok {
		t.Error("none should have no tint")
	}
	if c, ok := PatternNoir.Tint(); !ok || c.A == 0 || c.A == 0xff {
		t.Errorf("noir tint = %v, %v; want translucent", c, ok)
	}
}

func TestClampOpacity(t *testing.T) {
	tests := map[int]int{-5: 10, 0: 10, 10: 10, 73: 73, 100: 100, 250: 100}
	for in, want := range tests {
		if got := ClampOpacity(in); got != want {
			t.Errorf("ClampOpacity(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSettingsQuality(t *testing.T) {
	s := DefaultSettings()
	s.Opacity = 73
	if got := s.Quality(); got != 0.73 {
		t.Errorf("Quality() = %v, want 0.73", got)
	}
	s.Opacity = 5
	if got := s.Quality(); got != 0.1 {
		t.Errorf("Quality() = %v, want 0.1", got)
	}
}

func TestNormalize(t *testing.T) {
	got := Settings{Opacity: 400}.Normalize()
	if got.Opacity != 100 {
		t.Errorf("Opacity = %d, want 100", got.Opacity)
	}
	if got.LogoPosition != BottomRight || got.Pattern != PatternNone || got.FontFamily == "" || got.TextColor == "" {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestNormalizeCanonicalEnums(t *testing.T) {
	s := DefaultSettings()
	s.LogoPosition = "Top-Left"
	s.Pattern = " Sunset "
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	got := s.Normalize()
	if got.LogoPosition != TopLeft {
		t.Errorf("LogoPosition = %q, want %q", got.LogoPosition, TopLeft)
	}
	if got.Pattern != PatternSunset {
		t.Errorf("Pattern = %q, want %q", got.Pattern, PatternSunset)
	}
	if _, ok := got.Pattern.Tint(); !ok {
		t.Error("normalized pattern should resolve to a tint")
	}

	bad := Settings{LogoPosition: "center", Pattern: "plaid"}.Normalize()
	if bad.LogoPosition != "center" || bad.Pattern != "plaid" {
		t.Errorf("unknown values should be kept for Validate, got %+v", bad)
	}
}

func TestValidate(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	s.TextColor = "white"
	if err := s.Validate(); !errors.Is(err, errors.ErrCodeInvalidSettings) {
		t.Errorf("Validate() = %v, want INVALID_SETTINGS", err)
	}
}

func TestColorParse(t *testing.T) {
	tests := []struct {
		in   Color
		want color.NRGBA
	}{
		{"#FFFFFF", color.NRGBA{255, 255, 255, 255}},
		{"#f80", color.NRGBA{0xff, 0x88, 0x00, 255}},
		{"#102030", color.NRGBA{0x10, 0x20, 0x30, 255}},
	}
	for _, tt := range tests {
		got, err := tt.in.Parse()
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAssetDataURLRoundTrip(t *testing.T) {
	a := Asset{Data: []byte("\xff\xd8\xffpayload"), MIMEType: "image/jpeg"}
	url := a.DataURL()
	got, err := ParseAssetURL(url)
	if err != nil {
		t.Fatalf("ParseAssetURL: %v", err)
	}
	if string(got.Data) != string(a.Data) || got.MIMEType != "image/jpeg" {
		t.Errorf("round trip = %+v", got)
	}
	if a.Hash() == "" || (Asset{}).Hash() != "" {
		t.Error("Hash: want non-empty for data, empty for empty asset")
	}
}

func TestParseAssetURLRemote(t *testing.T) {
	got, err := ParseAssetURL("https://cdn.example.com/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Empty() || got.Source != "https://cdn.example.com/a.jpg" {
		t.Errorf("got %+v", got)
	}
	if _, err := ParseAssetURL("data:image/png,rawbytes"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("non-base64 data URL error = %v", err)
	}
}

func TestStoreGenerationAndSubscribe(t *testing.T) {
	s := NewStore(DefaultSettings())
	var (
		mu   sync.Mutex
		seen []uint64
	)
	cancel := s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap.Generation)
		mu.Unlock()
	})

	s.SetBase(NewAsset([]byte("base"), "base.jpg"))
	if _, err := s.Update(func(st *Settings) { st.OverlayText = "Sale" }); err != nil {
		t.Fatal(err)
	}
	cancel()
	s.SetLogo(nil)

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("notifications = %v, want [1 2]", seen)
	}
	if got := s.Snapshot().Generation; got != 3 {
		t.Errorf("Generation = %d, want 3", got)
	}
}

func TestStoreRejectsInvalidSettings(t *testing.T) {
	s := NewStore(DefaultSettings())
	before := s.Snapshot().Generation
	if _, err := s.Update(func(st *Settings) { st.Pattern = "plaid" }); err == nil {
		t.Fatal("expected error")
	}
	if s.Snapshot().Generation != before {
		t.Error("rejected update must not bump generation")
	}
}

func TestStoreResetKeepsLogo(t *testing.T) {
	s := NewStore(DefaultSettings())
	logo := NewAsset([]byte("logo"), "logo.png")
	s.SetLogo(&logo)
	s.SetBase(NewAsset([]byte("base"), "base.jpg"))

	snap := s.Reset(DefaultSettings())
	if snap.HasBase() {
		t.Error("Reset should clear the base")
	}
	if snap.Logo == nil || string(snap.Logo.Data) != "logo" {
		t.Error("Reset should keep the logo")
	}
}

func TestStoreApplyFragment(t *testing.T) {
	s := NewStore(DefaultSettings())
	base := Asset{Source: "https://cdn.example.com/q4.jpg"}
	snap := s.Apply(Fragment{Base: &base})
	if snap.Base.Source != base.Source {
		t.Errorf("Base = %+v", snap.Base)
	}
	snap = s.Apply(Fragment{})
	if snap.HasBase() || snap.Base.Source != "" {
		t.Errorf("fragment without a base should clear it, got %+v", snap.Base)
	}
}
