package generate

import (
	"bytes"
	"context"
	"hash/fnv"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Mock is an offline generator. Output is deterministic in the request.
type Mock struct {
	// Err, when set, is returned wrapped as AI_SERVICE by every call.
	Err error
}

// NewMock returns a Mock.
func NewMock() *Mock { return &Mock{} }

// Name implements Generator.
func (m *Mock) Name() string { return "mock" }

// Copy implements Generator.
func (m *Mock) Copy(ctx context.Context, req CopyRequest) (Copy, error) {
	if err := req.Validate(); err != nil {
		return Copy{}, err
	}
	if m.Err != nil {
		return Copy{}, serviceError("mock", m.Err)
	}
	brief := strings.TrimSpace(req.Brief)
	c := Copy{Body: "Hi! " + brief + " Reply to this message to learn more."}
	if req.Channel != campaign.WhatsApp {
		c.Subject = title(brief)
	}
	return c, ctx.Err()
}

// Image implements Generator: a two-colour gradient seeded by the prompt.
func (m *Mock) Image(ctx context.Context, req ImageRequest) (design.Asset, error) {
	if err := req.Validate(); err != nil {
		return design.Asset{}, err
	}
	if m.Err != nil {
		return design.Asset{}, serviceError("mock", m.Err)
	}
	w, h := 640, 640
	switch req.Aspect {
	case AspectLandscape:
		w, h = 960, 540
	case AspectPortrait:
		w, h = 540, 960
	}

	f := fnv.New32a()
	f.Write([]byte(req.Prompt))
	seed := f.Sum32()
	from := color.NRGBA{uint8(seed), uint8(seed >> 8), uint8(seed >> 16), 255}
	to := color.NRGBA{255 - from.R, 255 - from.G, 255 - from.B, 255}

	dc := gg.NewContext(w, h)
	grad := gg.NewLinearGradient(0, 0, float64(w), float64(h))
	grad.AddColorStop(0, from)
	grad.AddColorStop(1, to)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dc.Image(), imaging.PNG); err != nil {
		return design.Asset{}, errors.Wrap(errors.ErrCodeInternal, err, "encode mock image")
	}
	return design.Asset{Data: buf.Bytes(), MIMEType: "image/png", Source: "mock:" + req.Aspect}, ctx.Err()
}

func title(s string) string {
	words := strings.Fields(s)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.TrimRight(strings.Join(words, " "), ".!,;:")
}

var _ Generator = (*Mock)(nil)
