package compose

import (
	"strings"
	"time"
	"unicode"

	"github.com/matzehuels/campaignkit/pkg/design"
)

// ExportQuality converts an opacity percentage to the JPEG quality factor.
func ExportQuality(opacity int) float64 {
	return float64(design.ClampOpacity(opacity)) / 100
}

// ArtifactName returns the download file name for a composed asset:
// campaign-<label>-<yyyymmdd-hhmmss>.jpg, or campaign-<timestamp>.jpg when
// label has no usable characters.
func ArtifactName(label string, at time.Time) string {
	stamp := at.Format("20060102-150405")
	if slug := slugify(label, 32); slug != "" {
		return "campaign-" + slug + "-" + stamp + ".jpg"
	}
	return "campaign-" + stamp + ".jpg"
}

func slugify(s string, limit int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= limit {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
