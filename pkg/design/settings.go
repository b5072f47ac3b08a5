// Package design holds the editable configuration that drives the compositor.
//
// A [Settings] value describes the caption, tint and logo layers; an [Asset] is
// an opaque raster (the base photo or the logo). The [Store] owns the current
// settings and assets for one campaign and stamps every mutation with a
// monotonically increasing generation, which the compositor uses to discard
// stale renders.
package design

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Opacity bounds. Opacity doubles as the export quality percentage.
const (
	MinOpacity     = 10
	MaxOpacity     = 100
	DefaultOpacity = 90
)

// Position anchors the logo to a canvas corner.
type Position string

// Logo positions.
const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
)

// Positions lists all valid logo positions.
var Positions = []Position{TopLeft, TopRight, BottomLeft, BottomRight}

// ParsePosition parses a logo position name.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Positions {
		if p == valid {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidSettings, "invalid logo position %q (must be top-left, top-right, bottom-left or bottom-right)", s)
}

// Settings configures the compositor layers.
// LogoPosition is only meaningful when ShowLogo is true.
type Settings struct {
	ShowLogo     bool     `json:"show_logo" toml:"show_logo"`
	LogoPosition Position `json:"logo_position" toml:"logo_position"`
	OverlayText  string   `json:"overlay_text" toml:"overlay_text"`
	FontFamily   string   `json:"font_family" toml:"font_family"`
	TextColor    Color    `json:"text_color" toml:"text_color"`
	Pattern      Pattern  `json:"pattern" toml:"pattern"`
	Opacity      int      `json:"opacity" toml:"opacity"`
}

// DefaultSettings returns the settings used for a new campaign.
func DefaultSettings() Settings {
	return Settings{
		ShowLogo:     true,
		LogoPosition: BottomRight,
		FontFamily:   "Go Bold",
		TextColor:    "#FFFFFF",
		Pattern:      PatternNone,
		Opacity:      DefaultOpacity,
	}
}

// ClampOpacity limits v to [MinOpacity, MaxOpacity].
func ClampOpacity(v int) int {
	return max(MinOpacity, min(MaxOpacity, v))
}

// Normalize returns a copy with opacity clamped, enum values in canonical
// lowercase form and empty fields defaulted. Unknown enum values are left as
// they are for Validate to report.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	s.Opacity = ClampOpacity(s.Opacity)
	if p, err := ParsePosition(string(s.LogoPosition)); err == nil {
		s.LogoPosition = p
	} else if strings.TrimSpace(string(s.LogoPosition)) == "" {
		s.LogoPosition = d.LogoPosition
	}
	if p, err := ParsePattern(string(s.Pattern)); err == nil {
		s.Pattern = p
	} else if strings.TrimSpace(string(s.Pattern)) == "" {
		s.Pattern = PatternNone
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		s.FontFamily = d.FontFamily
	}
	if s.TextColor == "" {
		s.TextColor = d.TextColor
	}
	return s
}

// Validate checks enum and colour fields. Opacity is clamped, never rejected.
func (s Settings) Validate() error {
	if strings.TrimSpace(string(s.LogoPosition)) != "" {
		if _, err := ParsePosition(string(s.LogoPosition)); err != nil {
			return err
		}
	}
	if strings.TrimSpace(string(s.Pattern)) != "" {
		if _, err := ParsePattern(string(s.Pattern)); err != nil {
			return err
		}
	}
	if s.TextColor != "" {
		if _, err := s.TextColor.Parse(); err != nil {
			return err
		}
	}
	return nil
}

// Quality returns the export quality factor in (0, 1].
func (s Settings) Quality() float64 {
	return float64(ClampOpacity(s.Opacity)) / 100
}

// Color is a caption colour in #RGB or #RRGGBB form.
type Color string

// Parse converts the colour literal to an opaque NRGBA.
func (c Color) Parse() (color.NRGBA, error) {
	s := string(c)
	if err := errors.ValidateHexColor(s); err != nil {
		return color.NRGBA{}, err
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "parse color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// String implements fmt.Stringer.
func (c Color) String() string { return string(c) }

// Pattern names a tint preset.
type Pattern string

// Tint presets.
const (
	PatternNone     Pattern = "none"
	PatternMidnight Pattern = "midnight"
	PatternSunset   Pattern = "sunset"
	PatternForest   Pattern = "forest"
	PatternOcean    Pattern = "ocean"
	PatternRose     Pattern = "rose"
	PatternNoir     Pattern = "noir"
)

// tints holds the translucent fill for each preset.
var tints = map[Pattern]color.NRGBA{
	PatternMidnight: {R: 15, G: 23, B: 42, A: 110},
	PatternSunset:   {R: 249, G: 115, B: 22, A: 90},
	PatternForest:   {R: 22, G: 101, B: 52, A: 90},
	PatternOcean:    {R: 14, G: 116, B: 144, A: 90},
	PatternRose:     {R: 225, G: 29, B: 72, A: 80},
	PatternNoir:     {R: 0, G: 0, B: 0, A: 120},
}

// Patterns lists all presets, "none" first.
var Patterns = []Pattern{PatternNone, PatternMidnight, PatternSunset, PatternForest, PatternOcean, PatternRose, PatternNoir}

// ParsePattern parses a preset name.
func ParsePattern(s string) (Pattern, error) {
	p := Pattern(strings.ToLower(strings.TrimSpace(s)))
	if p == PatternNone {
		return p, nil
	}
	if _, ok := tints[p]; ok {
		return p, nil
	}
	return "", errors.New(errors.ErrCodeInvalidSettings, "unknown pattern %q", s)
}

// Tint returns the preset's translucent colour; ok is false for "none".
func (p Pattern) Tint() (c color.NRGBA, ok bool) {
	c, ok = tints[p]
	return c, ok
}

// String implements fmt.Stringer.
func (p Pattern) String() string {
	if p == "" {
		return string(PatternNone)
	}
	return string(p)
}

// Summary is a compact one-line description used in logs.
func (s Settings) Summary() string {
	logo := "off"
	if s.ShowLogo {
		logo = string(s.LogoPosition)
	}
	return fmt.Sprintf("pattern=%s logo=%s font=%q opacity=%d text=%d chars",
		s.Pattern, logo, s.FontFamily, s.Opacity, len(s.OverlayText))
}
