// Package compose rasterizes campaign visuals.
//
// [Engine.Compose] is a pure function of (base, settings, logo): it decodes
// both rasters, then draws the layers in order onto a canvas the size of the
// base image and exports a JPEG whose quality equals the opacity setting:
//
//  1. base photo, unscaled
//  2. translucent pattern tint
//  3. wrapped, centred, uppercase caption with a blurred drop shadow
//  4. logo on a rounded backing plate
//
// Nothing is drawn until every decode has finished, so an exported asset can
// never silently miss its logo. [Renderer] wraps the engine with generation
// tracking for interactive editing: a newer request cancels the older one and
// a superseded result is never published.
package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/campaignkit/pkg/cache"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/fonts"
	"github.com/matzehuels/campaignkit/pkg/observability"
	"github.com/matzehuels/campaignkit/pkg/textwrap"
)

// MIMEType of every composed asset.
const MIMEType = "image/jpeg"

// Composed is the exported raster for one input tuple.
type Composed struct {
	design.Asset
	Width      int
	Height     int
	Quality    int
	Key        string
	Generation uint64
	CacheHit   bool
}

// Engine composes campaign images, caching results by input hash.
// It holds no per-render state and is safe for concurrent use.
type Engine struct {
	Decoder Decoder
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewEngine returns an engine. Nil arguments select ImageDecoder, NullCache,
// DefaultKeyer and the default logger.
func NewEngine(dec Decoder, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Engine {
	if dec == nil {
		dec = ImageDecoder{}
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{Decoder: dec, Cache: c, Keyer: keyer, Logger: logger}
}

// Key returns the cache key for an input tuple.
func (e *Engine) Key(base design.Asset, s design.Settings, logo *design.Asset) string {
	s = s.Normalize()
	opts := cache.ComposeKeyOpts{
		BaseHash:     base.Hash(),
		ShowLogo:     s.ShowLogo,
		LogoPosition: string(s.LogoPosition),
		OverlayText:  s.OverlayText,
		FontFamily:   s.FontFamily,
		TextColor:    string(s.TextColor),
		Pattern:      string(s.Pattern),
		Opacity:      s.Opacity,
	}
	if s.ShowLogo && logo != nil {
		opts.LogoHash = logo.Hash()
	}
	return e.Keyer.ComposeKey(opts)
}

// Compose renders base with settings and an optional logo.
//
// Errors are DECODE_FAILED when either raster cannot be decoded,
// CANVAS_UNAVAILABLE when the base has unusable dimensions, and
// INVALID_SETTINGS for malformed settings. On error no asset is produced.
func (e *Engine) Compose(ctx context.Context, base design.Asset, settings design.Settings, logo *design.Asset) (*Composed, error) {
	if base.Empty() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no base image")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := settings.Normalize()
	if !s.ShowLogo || (logo != nil && logo.Empty()) {
		logo = nil
	}

	key := e.Key(base, s, logo)
	if data, hit, err := e.Cache.Get(ctx, key); err == nil && hit {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			observability.Cache().OnCacheHit(ctx, "compose")
			return &Composed{
				Asset:    design.Asset{Data: data, MIMEType: MIMEType},
				Width:    cfg.Width,
				Height:   cfg.Height,
				Quality:  s.Opacity,
				Key:      key,
				CacheHit: true,
			}, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "compose")

	start := time.Now()
	baseImg, logoImg, err := e.decodeAll(ctx, base, logo)
	if err != nil {
		return nil, err
	}

	b := baseImg.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > MaxCanvasSide || b.Dy() > MaxCanvasSide {
		return nil, errors.New(errors.ErrCodeCanvas, "cannot allocate %dx%d canvas", b.Dx(), b.Dy())
	}

	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(baseImg, -b.Min.X, -b.Min.Y)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	drawTint(dc, s.Pattern)
	if err := drawCaption(dc, s); err != nil {
		return nil, err
	}
	if logoImg != nil {
		drawLogo(dc, logoImg, s.LogoPosition)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dc.Image(), imaging.JPEG, imaging.JPEGQuality(s.Opacity)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCanvas, err, "encode jpeg")
	}
	out := &Composed{
		Asset:   design.Asset{Data: buf.Bytes(), MIMEType: MIMEType},
		Width:   b.Dx(),
		Height:  b.Dy(),
		Quality: s.Opacity,
		Key:     key,
	}

	if err := e.Cache.Set(ctx, key, out.Data, cache.TTLCompose); err != nil {
		e.Logger.Warn("cache write failed", "key", key, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "compose", len(out.Data))
	}

	e.Logger.Debug("composed",
		"size", b.Size(),
		"logo", logoImg != nil,
		"quality", s.Opacity,
		"bytes", len(out.Data),
		"duration", time.Since(start))
	return out, nil
}

// decodeAll decodes the base and the logo concurrently and returns only when
// both are done.
func (e *Engine) decodeAll(ctx context.Context, base design.Asset, logo *design.Asset) (image.Image, image.Image, error) {
	var baseImg, logoImg image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := e.Decoder.Decode(gctx, base)
		if err != nil {
			return err
		}
		baseImg = img
		return nil
	})
	if logo != nil {
		g.Go(func() error {
			img, err := e.Decoder.Decode(gctx, *logo)
			if err != nil {
				return err
			}
			logoImg = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}
	return baseImg, logoImg, nil
}

func drawTint(dc *gg.Context, p design.Pattern) {
	tint, ok := p.Tint()
	if !ok {
		return
	}
	dc.SetColor(tint)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()
}

// drawCaption wraps and draws the overlay text. Lines are measured in their
// uppercase form, which is how they are drawn.
func drawCaption(dc *gg.Context, s design.Settings) error {
	// Blank text would wrap to a single empty line; nothing to draw.
	if strings.TrimSpace(s.OverlayText) == "" {
		return nil
	}
	textColor, err := s.TextColor.Parse()
	if err != nil {
		return err
	}

	W, H := dc.Width(), dc.Height()
	size := FontScale * float64(W)
	face, err := fonts.Face(s.FontFamily, size)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCanvas, err, "load font %q", s.FontFamily)
	}
	dc.SetFontFace(face)

	measure := func(line string) float64 {
		w, _ := dc.MeasureString(strings.ToUpper(line))
		return w
	}
	lines := textwrap.Wrap(s.OverlayText, WrapScale*float64(W), measure)
	top, advance := CaptionBlock(H, len(lines), size)
	cx := float64(W) / 2

	shadow := gg.NewContext(W, H)
	shadow.SetFontFace(face)
	shadow.SetColor(color.NRGBA{A: 160})
	for i, line := range lines {
		y := top + (float64(i)+0.5)*advance
		shadow.DrawStringAnchored(strings.ToUpper(line), cx+ShadowOffset, y+ShadowOffset, 0.5, 0.5)
	}
	dc.DrawImage(imaging.Blur(shadow.Image(), ShadowSigma), 0, 0)

	dc.SetColor(textColor)
	for i, line := range lines {
		y := top + (float64(i)+0.5)*advance
		dc.DrawStringAnchored(strings.ToUpper(line), cx, y, 0.5, 0.5)
	}
	return nil
}

func drawLogo(dc *gg.Context, logo image.Image, pos design.Position) {
	lb := logo.Bounds()
	r := LogoPlacement(dc.Width(), dc.Height(), lb.Dx(), lb.Dy(), pos)
	w, h := max(1, int(r.W+0.5)), max(1, int(r.H+0.5))

	plate := Plate(r)
	dc.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 217})
	dc.DrawRoundedRectangle(plate.X, plate.Y, plate.W, plate.H, PlateRadius)
	dc.Fill()

	scaled := imaging.Resize(logo, w, h, imaging.Lanczos)
	dc.DrawImage(scaled, int(r.X+0.5), int(r.Y+0.5))
}
