package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/campaignkit/pkg/cache"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

func solidPNG(t *testing.T, w, h int, c color.Color) design.Asset {
	t.Helper()
	img := imaging.New(w, h, c)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return design.NewAsset(buf.Bytes(), "")
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func testEngine() *Engine {
	return NewEngine(nil, nil, nil, quietLogger())
}

func decodeOut(t *testing.T, c *Composed) image.Image {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(c.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLogoPlacement(t *testing.T) {
	const W, H = 1000, 800
	tests := []struct {
		pos  design.Position
		x, y float64
	}{
		{design.TopLeft, 40, 40},
		{design.TopRight, 840, 40},
		{design.BottomLeft, 40, 700},
		{design.BottomRight, 840, 700},
	}
	for _, tt := range tests {
		t.Run(string(tt.pos), func(t *testing.T) {
			r := LogoPlacement(W, H, 200, 100, tt.pos)
			if !approx(r.X, tt.x) || !approx(r.Y, tt.y) {
				t.Errorf("origin = (%v, %v), want (%v, %v)", r.X, r.Y, tt.x, tt.y)
			}
			if !approx(r.W, 120) || !approx(r.H, 60) {
				t.Errorf("size = %vx%v, want 120x60", r.W, r.H)
			}
		})
	}
}

func TestLogoPlacementBottomRightFormula(t *testing.T) {
	W, H, w, h := 1234, 777, 300, 90
	r := LogoPlacement(W, H, w, h, design.BottomRight)

	fw, fh := float64(W), float64(H)
	m := 0.04 * fw
	wantX := fw - 0.12*fw - m
	wantY := fh - (float64(h)/float64(w))*(0.12*fw) - m
	if !approx(r.X, wantX) || !approx(r.Y, wantY) {
		t.Errorf("origin = (%v, %v), want (%v, %v)", r.X, r.Y, wantX, wantY)
	}
}

func TestPlate(t *testing.T) {
	p := Plate(Rect{X: 100, Y: 50, W: 120, H: 60})
	if p != (Rect{X: 85, Y: 35, W: 150, H: 90}) {
		t.Errorf("Plate = %+v", p)
	}
}

func TestCaptionBlock(t *testing.T) {
	top, adv := CaptionBlock(1000, 3, 60)
	if !approx(adv, 66) {
		t.Errorf("advance = %v, want 66", adv)
	}
	if !approx(top, (1000-198)/2.0) {
		t.Errorf("top = %v", top)
	}
}

func TestExportQuality(t *testing.T) {
	tests := map[int]float64{73: 0.73, 100: 1, 10: 0.1, 0: 0.1, 150: 1}
	for in, want := range tests {
		if got := ExportQuality(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("ExportQuality(%d) = %v, want %v", in, got, want)
		}
	}
}

func TestArtifactName(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	if got := ArtifactName("Q4 Promo!", at); got != "campaign-q4-promo-20250309-140507.jpg" {
		t.Errorf("got %q", got)
	}
	if got := ArtifactName("  ", at); got != "campaign-20250309-140507.jpg" {
		t.Errorf("got %q", got)
	}
}

func TestComposeKeepsBaseDimensions(t *testing.T) {
	base := solidPNG(t, 320, 200, color.NRGBA{40, 80, 120, 255})
	logo := solidPNG(t, 64, 32, color.White)
	s := design.DefaultSettings()
	s.OverlayText = "Summer sale now on"
	s.Opacity = 73

	out, err := testEngine().Compose(context.Background(), base, s, &logo)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 320 || out.Height != 200 || out.MIMEType != "image/jpeg" {
		t.Errorf("out = %dx%d %s", out.Width, out.Height, out.MIMEType)
	}
	if out.Quality != 73 {
		t.Errorf("Quality = %d, want 73", out.Quality)
	}
	if b := decodeOut(t, out).Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("decoded bounds = %v", b)
	}
}

func TestComposeDrawsLogo(t *testing.T) {
	base := solidPNG(t, 400, 400, color.Black)
	logo := solidPNG(t, 100, 50, color.NRGBA{255, 0, 0, 255})
	s := design.DefaultSettings()
	s.LogoPosition = design.BottomRight
	s.Opacity = 95

	out, err := testEngine().Compose(context.Background(), base, s, &logo)
	if err != nil {
		t.Fatal(err)
	}
	img := decodeOut(t, out)

	r := LogoPlacement(400, 400, 100, 50, design.BottomRight)
	cx, cy := int(r.X+r.W/2), int(r.Y+r.H/2)
	cr, cg, _, _ := img.At(cx, cy).RGBA()
	if cr>>8 < 180 || cg>>8 > 80 {
		t.Errorf("logo centre (%d,%d) = r%d g%d, want red", cx, cy, cr>>8, cg>>8)
	}
	tr, _, _, _ := img.At(10, 10).RGBA()
	if tr>>8 > 40 {
		t.Errorf("corner pixel r%d, want dark base", tr>>8)
	}
}

func TestComposeMixedCaseSettings(t *testing.T) {
	base := solidPNG(t, 400, 400, color.White)
	logo := solidPNG(t, 100, 50, color.NRGBA{255, 0, 0, 255})
	s := design.DefaultSettings()
	s.LogoPosition = "Top-Left"
	s.Pattern = "Noir"
	s.Opacity = 95

	out, err := testEngine().Compose(context.Background(), base, s, &logo)
	if err != nil {
		t.Fatal(err)
	}
	img := decodeOut(t, out)

	r := LogoPlacement(400, 400, 100, 50, design.TopLeft)
	cx, cy := int(r.X+r.W/2), int(r.Y+r.H/2)
	cr, cg, _, _ := img.At(cx, cy).RGBA()
	if cr>>8 < 180 || cg>>8 > 80 {
		t.Errorf("logo centre (%d,%d) = r%d g%d, want red at top-left", cx, cy, cr>>8, cg>>8)
	}
	br, _, _, _ := img.At(200, 390).RGBA()
	if v := br >> 8; v > 200 {
		t.Errorf("untinted white r%d at (200,390), want the noir tint", v)
	}
}

func TestComposeHiddenLogoIsNotDecoded(t *testing.T) {
	base := solidPNG(t, 100, 100, color.Black)
	garbage := design.Asset{Data: []byte("not an image")}
	s := design.DefaultSettings()
	s.ShowLogo = false

	if _, err := testEngine().Compose(context.Background(), base, s, &garbage); err != nil {
		t.Errorf("hidden logo should be ignored: %v", err)
	}
}

func TestComposeTint(t *testing.T) {
	base := solidPNG(t, 64, 64, color.White)
	s := design.DefaultSettings()
	s.ShowLogo = false
	s.Pattern = design.PatternNoir
	s.Opacity = 100

	out, err := testEngine().Compose(context.Background(), base, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, _, _, _ := decodeOut(t, out).At(32, 32).RGBA()
	if v := r >> 8; v < 110 || v > 160 {
		t.Errorf("tinted white = %d, want about 135", v)
	}
}

func TestComposeCaptionChangesOutput(t *testing.T) {
	base := solidPNG(t, 300, 300, color.NRGBA{0, 90, 0, 255})
	s := design.DefaultSettings()
	s.ShowLogo = false
	e := testEngine()

	plain, err := e.Compose(context.Background(), base, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.OverlayText = "big autumn deals"
	captioned, err := e.Compose(context.Background(), base, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(plain.Data, captioned.Data) {
		t.Error("caption did not change the output")
	}
}

func TestComposeBlankCaptionDrawsNothing(t *testing.T) {
	base := solidPNG(t, 200, 200, color.NRGBA{0, 90, 0, 255})
	s := design.DefaultSettings()
	s.ShowLogo = false
	e := testEngine()

	plain, err := e.Compose(context.Background(), base, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.OverlayText = " \t "
	blank, err := e.Compose(context.Background(), base, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plain.Data, blank.Data) {
		t.Error("whitespace caption changed the output")
	}
}

func TestComposeErrors(t *testing.T) {
	ctx := context.Background()
	e := testEngine()
	s := design.DefaultSettings()

	if _, err := e.Compose(ctx, design.Asset{}, s, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("no base: %v", err)
	}
	if _, err := e.Compose(ctx, design.Asset{Data: []byte("junk")}, s, nil); !errors.Is(err, errors.ErrCodeDecode) {
		t.Errorf("junk base: %v", err)
	}

	base := solidPNG(t, 10, 10, color.Black)
	bad := design.Asset{Data: []byte("junk")}
	if _, err := e.Compose(ctx, base, s, &bad); !errors.Is(err, errors.ErrCodeDecode) {
		t.Errorf("junk logo: %v", err)
	}

	s.TextColor = "red"
	if _, err := e.Compose(ctx, base, s, nil); !errors.Is(err, errors.ErrCodeInvalidSettings) {
		t.Errorf("bad colour: %v", err)
	}
}

func TestComposeCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(nil, fc, nil, quietLogger())
	base := solidPNG(t, 50, 40, color.Black)
	s := design.DefaultSettings()
	s.OverlayText = "cached"

	first, err := e.Compose(context.Background(), base, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Compose(context.Background(), base, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Errorf("CacheHit = %v, %v; want false, true", first.CacheHit, second.CacheHit)
	}
	if !bytes.Equal(first.Data, second.Data) || second.Width != 50 || second.Height != 40 {
		t.Error("cached result differs")
	}
}

func TestEngineKey(t *testing.T) {
	e := testEngine()
	base := design.Asset{Data: []byte("base")}
	logo := design.Asset{Data: []byte("logo")}
	s := design.DefaultSettings()

	withLogo := e.Key(base, s, &logo)
	s.ShowLogo = false
	if e.Key(base, s, &logo) == withLogo {
		t.Error("hidden logo should change the key")
	}
	if e.Key(base, s, &logo) != e.Key(base, s, nil) {
		t.Error("hidden logo bytes should not influence the key")
	}
}
