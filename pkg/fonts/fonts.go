// Package fonts provides the caption font families used by the compositor.
//
// The Go font family (golang.org/x/image/font/gofont) is compiled into the
// binary, so captions render without any system fonts installed. Operator-facing
// family names are resolved case-insensitively; unknown names fall back to
// [DefaultFamily].
package fonts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// DefaultFamily is used when a requested family is unknown.
const DefaultFamily = "Go Bold"

// families maps lowercase family names to TTF data.
var families = map[string][]byte{
	"go":           goregular.TTF,
	"go regular":   goregular.TTF,
	"go bold":      gobold.TTF,
	"go medium":    gomedium.TTF,
	"go mono":      gomono.TTF,
	"go mono bold": gomonobold.TTF,
	"go smallcaps": gosmallcaps.TTF,

	// CSS generic families and common dashboard picks.
	"sans-serif": gobold.TTF,
	"serif":      goregular.TTF,
	"monospace":  gomonobold.TTF,
	"system-ui":  gomedium.TTF,
	"impact":     gobold.TTF,
	"inter":      gomedium.TTF,
	"montserrat": gobold.TTF,
	"bebas neue": gosmallcaps.TTF,
	"space mono": gomono.TTF,
}

// Parsed fonts, cached per family (parsing a TTF is not free).
var (
	parsedMu sync.Mutex
	parsed   = map[string]*truetype.Font{}
)

// Known reports whether family resolves to a bundled font without falling back.
func Known(family string) bool {
	_, ok := families[normalize(family)]
	return ok
}

// Names returns the supported family names, sorted.
func Names() []string {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Font returns the parsed font for family, falling back to DefaultFamily.
func Font(family string) (*truetype.Font, error) {
	key := normalize(family)
	if _, ok := families[key]; !ok {
		key = normalize(DefaultFamily)
	}

	parsedMu.Lock()
	defer parsedMu.Unlock()

	if f, ok := parsed[key]; ok {
		return f, nil
	}
	f, err := truetype.Parse(families[key])
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", key, err)
	}
	parsed[key] = f
	return f, nil
}

// Face returns a font face for family at size pixels (72 DPI, so points == pixels).
func Face(family string, size float64) (font.Face, error) {
	f, err := Font(family)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

func normalize(family string) string {
	return strings.ToLower(strings.TrimSpace(family))
}
