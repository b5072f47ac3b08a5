package generate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/campaignkit/pkg/cache"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/observability"
)

// Cached memoizes a Generator. Cache failures are logged and bypassed.
type Cached struct {
	Generator
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewCached wraps g. A nil keyer uses cache.DefaultKeyer.
func NewCached(g Generator, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{Generator: g, Cache: c, Keyer: keyer, Logger: logger}
}

func (c *Cached) provider() (provider, model string) {
	provider, model, _ = strings.Cut(c.Generator.Name(), "/")
	return provider, model
}

// Copy implements Generator.
func (c *Cached) Copy(ctx context.Context, req CopyRequest) (Copy, error) {
	if err := req.Validate(); err != nil {
		return Copy{}, err
	}
	provider, model := c.provider()
	key := c.Keyer.CopyKey(cache.CopyKeyOpts{
		Provider: provider,
		Model:    model,
		Channel:  string(req.Channel),
		Brief:    req.Brief,
		Tone:     req.Tone,
	})
	hooks := observability.Cache()

	if data, hit, err := c.Cache.Get(ctx, key); err != nil {
		c.Logger.Debug("copy cache read failed", "error", err)
	} else if hit {
		var out Copy
		if json.Unmarshal(data, &out) == nil {
			hooks.OnCacheHit(ctx, "copy")
			return out, nil
		}
	}
	hooks.OnCacheMiss(ctx, "copy")

	out, err := c.Generator.Copy(ctx, req)
	if err != nil {
		return Copy{}, err
	}
	if data, err := json.Marshal(out); err == nil {
		if err := c.Cache.Set(ctx, key, data, cache.TTLCopy); err != nil {
			c.Logger.Debug("copy cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "copy", len(data))
		}
	}
	return out, nil
}

// Image implements Generator.
func (c *Cached) Image(ctx context.Context, req ImageRequest) (design.Asset, error) {
	if err := req.Validate(); err != nil {
		return design.Asset{}, err
	}
	provider, model := c.provider()
	opts := cache.ImageKeyOpts{Provider: provider, Model: model, Prompt: req.Prompt, Aspect: req.Aspect}
	if req.Reference != nil {
		opts.Reference = req.Reference.Hash()
	}
	key := c.Keyer.ImageKey(opts)
	hooks := observability.Cache()

	if data, hit, err := c.Cache.Get(ctx, key); err != nil {
		c.Logger.Debug("image cache read failed", "error", err)
	} else if hit && len(data) > 0 {
		hooks.OnCacheHit(ctx, "image")
		return design.NewAsset(data, "cache:"+key), nil
	}
	hooks.OnCacheMiss(ctx, "image")

	out, err := c.Generator.Image(ctx, req)
	if err != nil {
		return design.Asset{}, err
	}
	if err := c.Cache.Set(ctx, key, out.Data, cache.TTLImage); err != nil {
		c.Logger.Debug("image cache write failed", "error", err)
	} else {
		hooks.OnCacheSet(ctx, "image", len(out.Data))
	}
	return out, nil
}
