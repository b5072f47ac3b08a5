package compose

import "github.com/matzehuels/campaignkit/pkg/design"

// Layout proportions, relative to canvas width.
const (
	FontScale     = 0.06 // caption font size
	WrapScale     = 0.85 // caption width budget
	LineHeight    = 1.1  // line advance as a multiple of font size
	LogoScale     = 0.12 // logo width
	MarginScale   = 0.04 // logo inset from the canvas edge
	PlatePadding  = 30.0 // total plate padding in pixels (15 per side)
	PlateRadius   = 12.0
	ShadowOffset  = 3.0
	ShadowSigma   = 4.0
	MaxCanvasSide = 16384
)

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X, Y, W, H float64
}

// LogoPlacement returns where a logo of natural size logoW×logoH is drawn on a
// canvasW×canvasH canvas. The logo is scaled to LogoScale of the canvas width,
// keeping its aspect ratio, and anchored to pos with an inward margin of
// MarginScale of the canvas width.
func LogoPlacement(canvasW, canvasH, logoW, logoH int, pos design.Position) Rect {
	W, H := float64(canvasW), float64(canvasH)
	w := LogoScale * W
	h := 0.0
	if logoW > 0 {
		h = float64(logoH) / float64(logoW) * w
	}
	m := MarginScale * W

	r := Rect{W: w, H: h}
	switch pos {
	case design.TopLeft:
		r.X, r.Y = m, m
	case design.TopRight:
		r.X, r.Y = W-w-m, m
	case design.BottomLeft:
		r.X, r.Y = m, H-h-m
	default:
		r.X, r.Y = W-w-m, H-h-m
	}
	return r
}

// Plate returns the backing plate for a logo rect: the rect grown by
// PlatePadding and centred on it.
func Plate(logo Rect) Rect {
	pad := PlatePadding / 2
	return Rect{X: logo.X - pad, Y: logo.Y - pad, W: logo.W + PlatePadding, H: logo.H + PlatePadding}
}

// CaptionBlock returns the top of a vertically centred caption block and the
// line advance for n lines at fontSize.
func CaptionBlock(canvasH int, n int, fontSize float64) (top, advance float64) {
	advance = fontSize * LineHeight
	total := float64(n) * advance
	return (float64(canvasH) - total) / 2, advance
}
