package design

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Asset is an opaque raster handle: a base photo, a logo, or a composed output.
// Data may be empty when only a remote Source is known (e.g. a recalled URL).
type Asset struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
	Source   string `json:"source,omitempty"`
}

// NewAsset wraps raw bytes, sniffing the MIME type.
func NewAsset(data []byte, source string) Asset {
	return Asset{Data: data, MIMEType: http.DetectContentType(data), Source: source}
}

// Empty reports whether the asset carries no pixel data.
func (a Asset) Empty() bool { return len(a.Data) == 0 }

// Hash returns the SHA-256 of the asset bytes (hex), or "" for an empty asset.
func (a Asset) Hash() string {
	if a.Empty() {
		return ""
	}
	sum := sha256.Sum256(a.Data)
	return hex.EncodeToString(sum[:])
}

// DataURL encodes the asset as a data: URI, the form stored in campaign records.
func (a Asset) DataURL() string {
	if a.Empty() {
		return a.Source
	}
	mime := a.MIMEType
	if mime == "" {
		mime = http.DetectContentType(a.Data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// ParseAssetURL turns a stored asset reference back into an Asset.
// data: URIs are decoded; any other URL is kept as Source only.
func ParseAssetURL(ref string) (Asset, error) {
	if ref == "" {
		return Asset{}, nil
	}
	if !strings.HasPrefix(ref, "data:") {
		return Asset{Source: ref}, nil
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return Asset{}, errors.New(errors.ErrCodeInvalidInput, "malformed data URL")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Asset{}, errors.New(errors.ErrCodeUnsupported, "only base64 data URLs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Asset{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode data URL")
	}
	return Asset{Data: data, MIMEType: mime}, nil
}
