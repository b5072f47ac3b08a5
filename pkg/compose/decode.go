package compose

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Decoder turns an asset into pixels.
type Decoder interface {
	Decode(ctx context.Context, a design.Asset) (image.Image, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, a design.Asset) (image.Image, error)

// Decode implements Decoder.
func (f DecoderFunc) Decode(ctx context.Context, a design.Asset) (image.Image, error) {
	return f(ctx, a)
}

// ImageDecoder decodes JPEG, PNG, GIF and WebP, applying EXIF orientation.
type ImageDecoder struct{}

// Decode implements Decoder.
func (ImageDecoder) Decode(ctx context.Context, a design.Asset) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.Empty() {
		return nil, errors.New(errors.ErrCodeDecode, "asset %q has no data", a.Source)
	}
	img, err := imaging.Decode(bytes.NewReader(a.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", describe(a))
	}
	return img, nil
}

func describe(a design.Asset) string {
	if a.Source != "" {
		return a.Source
	}
	if a.MIMEType != "" {
		return a.MIMEType
	}
	return "asset"
}
