// Package cache provides byte-level caching for composed previews and
// generated AI content.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entry files on disk, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: disables caching
//
// Keys are produced by a [Keyer] so that every input influencing an output is
// hashed into its key. [ScopedKeyer] namespaces keys per workspace.
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind.
const (
	TTLCompose = 24 * time.Hour
	TTLCopy    = 7 * 24 * time.Hour
	TTLImage   = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key. hit is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// ComposeKey keys a composed preview by its inputs.
	ComposeKey(opts ComposeKeyOpts) string

	// CopyKey keys generated marketing copy.
	CopyKey(opts CopyKeyOpts) string

	// ImageKey keys a generated base image.
	ImageKey(opts ImageKeyOpts) string
}

// ComposeKeyOpts lists every input of a compose call.
type ComposeKeyOpts struct {
	BaseHash     string `json:"base"`
	LogoHash     string `json:"logo,omitempty"`
	ShowLogo     bool   `json:"show_logo"`
	LogoPosition string `json:"logo_position"`
	OverlayText  string `json:"text"`
	FontFamily   string `json:"font"`
	TextColor    string `json:"color"`
	Pattern      string `json:"pattern"`
	Opacity      int    `json:"opacity"`
}

// CopyKeyOpts lists the inputs of a copy generation request.
type CopyKeyOpts struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Channel  string `json:"channel"`
	Brief    string `json:"brief"`
	Tone     string `json:"tone,omitempty"`
}

// ImageKeyOpts lists the inputs of an image generation request.
type ImageKeyOpts struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	Aspect    string `json:"aspect"`
	Reference string `json:"reference,omitempty"` // hash of the reference image
}

// DefaultKeyer is the unscoped Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ComposeKey returns "compose:<sha256>".
func (DefaultKeyer) ComposeKey(opts ComposeKeyOpts) string {
	return hashKey("compose", opts)
}

// CopyKey returns "copy:<sha256>".
func (DefaultKeyer) CopyKey(opts CopyKeyOpts) string {
	return hashKey("copy", opts)
}

// ImageKey returns "image:<sha256>".
func (DefaultKeyer) ImageKey(opts ImageKeyOpts) string {
	return hashKey("image", opts)
}
