package cache

// ScopedKeyer prefixes every key, isolating workspaces that share a backend.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "ws:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ComposeKey returns the prefixed compose key.
func (k *ScopedKeyer) ComposeKey(opts ComposeKeyOpts) string {
	return k.prefix + k.inner.ComposeKey(opts)
}

// CopyKey returns the prefixed copy key.
func (k *ScopedKeyer) CopyKey(opts CopyKeyOpts) string {
	return k.prefix + k.inner.CopyKey(opts)
}

// ImageKey returns the prefixed image key.
func (k *ScopedKeyer) ImageKey(opts ImageKeyOpts) string {
	return k.prefix + k.inner.ImageKey(opts)
}
