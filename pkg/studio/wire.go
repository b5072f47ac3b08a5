package studio

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/campaignkit/pkg/archive"
	"github.com/matzehuels/campaignkit/pkg/cache"
	"github.com/matzehuels/campaignkit/pkg/config"
	"github.com/matzehuels/campaignkit/pkg/dispatch"
	"github.com/matzehuels/campaignkit/pkg/effects"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/events"
	"github.com/matzehuels/campaignkit/pkg/generate"
	"github.com/matzehuels/campaignkit/pkg/recipient"
	"github.com/matzehuels/campaignkit/pkg/sqldb"
)

// Open builds a studio from configuration. Backends are opened in order and
// closed again if a later one fails.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (*Studio, error) {
	if logger == nil {
		logger = log.Default()
	}
	var opts Options
	ok := false
	defer func() {
		if ok {
			return
		}
		for i := len(opts.closers) - 1; i >= 0; i-- {
			opts.closers[i]()
		}
	}()

	c, err := OpenCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	opts.closers = append(opts.closers, c.Close)
	opts.Cache = c

	var pub events.Publisher
	if cfg.Dispatch.PublishEvents || cfg.Dispatch.Navigator == "queue" {
		p, err := events.DialAMQP(cfg.Dispatch.AMQPURL)
		if err != nil {
			return nil, err
		}
		opts.closers = append(opts.closers, p.Close)
		pub = p
	}

	arch, err := archive.Open(ctx, cfg.Archive.Driver, cfg.Archive.DSN)
	if err != nil {
		return nil, err
	}
	opts.closers = append(opts.closers, arch.Close)
	if cfg.Dispatch.PublishEvents {
		arch = archive.NewPublishing(arch, pub, logger.WithPrefix("events"))
	}
	opts.Archive = arch

	reg, closeReg, err := OpenRegistry(ctx, cfg.Registry)
	if err != nil {
		return nil, err
	}
	if closeReg != nil {
		opts.closers = append(opts.closers, closeReg)
	}
	opts.Registry = reg

	gen, err := generate.New(ctx, cfg.Generate.Generator(), logger.WithPrefix("generate"))
	if err != nil {
		return nil, err
	}
	opts.Generator = generate.NewCached(gen, c, nil, logger.WithPrefix("generate"))

	opts.Navigator = Navigator(cfg.Dispatch.Navigator, pub, logger)
	if cfg.Dispatch.Clipboard {
		opts.Clipboard = effects.SystemClipboard{}
	}
	opts.Settings = cfg.Design
	opts.Logger = logger

	s, err := New(ctx, opts)
	if err != nil {
		return nil, err
	}
	ok = true
	return s, nil
}

// OpenCache opens the configured cache backend.
func OpenCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch strings.ToLower(cfg.Driver) {
	case "none", "":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   cfg.Prefix,
		})
	case "file":
		dir := cfg.Dir
		if dir == "" {
			dir = config.DefaultCacheDir()
		}
		return cache.NewFileCache(dir)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown cache driver %q", cfg.Driver)
}

// OpenRegistry opens the configured recipient registry. A missing roster file
// is an empty registry. The returned close function is nil when there is
// nothing to release.
func OpenRegistry(ctx context.Context, cfg config.RegistryConfig) (recipient.Registry, func() error, error) {
	switch strings.ToLower(cfg.Driver) {
	case "memory":
		return recipient.NewMemoryRegistry(), nil, nil
	case "toml", "":
		reg, err := recipient.LoadTOML(cfg.DSN)
		if errors.Is(err, errors.ErrCodeNotFound) {
			return recipient.NewMemoryRegistry(), nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
		return reg, nil, nil
	}
	db, err := sqldb.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	reg, err := recipient.NewSQLRegistry(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return reg, db.Close, nil
}

// Navigator returns the configured navigator. "queue" needs pub.
func Navigator(kind string, pub events.Publisher, logger *log.Logger) dispatch.Navigator {
	switch strings.ToLower(kind) {
	case "log":
		return effects.NewLogNavigator(logger.WithPrefix("dispatch"))
	case "queue":
		if pub != nil {
			return effects.NewQueueNavigator(pub)
		}
		logger.Warn("queue navigator without a broker, logging links instead")
		return effects.NewLogNavigator(logger.WithPrefix("dispatch"))
	}
	return effects.NewBrowserNavigator()
}
