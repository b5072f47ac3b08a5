// Package studio ties the campaign components together for one operator
// session: the design store and its live preview, the message draft, the
// recipient registry, the dispatch sequencer, the archive and the AI
// generator.
//
// The CLI and the HTTP server both drive a [Studio]; neither talks to the
// components directly.
package studio

import (
	"context"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/campaignkit/pkg/archive"
	"github.com/matzehuels/campaignkit/pkg/cache"
	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/compose"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/dispatch"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/generate"
	"github.com/matzehuels/campaignkit/pkg/httputil"
	"github.com/matzehuels/campaignkit/pkg/recipient"
)

// Options wires a Studio. Archive, Registry and Navigator are required.
type Options struct {
	Settings  design.Settings
	Archive   archive.Archive
	Registry  recipient.Registry
	Navigator dispatch.Navigator
	Clipboard dispatch.Clipboard
	Generator generate.Generator
	Cache     cache.Cache
	Keyer     cache.Keyer
	Fetcher   *httputil.Fetcher
	Logger    *log.Logger
	Now       func() time.Time

	// closers are released by Close, in reverse order.
	closers []func() error
}

// Studio is one operator session.
type Studio struct {
	Store     *design.Store
	Engine    *compose.Engine
	Renderer  *compose.Renderer
	Sequencer *dispatch.Sequencer
	Archive   archive.Archive
	Registry  recipient.Registry
	Generator generate.Generator

	defaults design.Settings
	fetcher  *httputil.Fetcher
	logger   *log.Logger
	now      func() time.Time
	detach   func()
	closers  []func() error

	mu    sync.Mutex
	draft campaign.Draft
}

// New builds a studio and starts rendering previews.
func New(ctx context.Context, opts Options) (*Studio, error) {
	if opts.Archive == nil || opts.Registry == nil || opts.Navigator == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "studio: archive, registry and navigator are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Generator == nil {
		opts.Generator = generate.NewMock()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = httputil.NewFetcher(httputil.FetcherOptions{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	settings := opts.Settings.Normalize()

	s := &Studio{
		Store:     design.NewStore(settings),
		Engine:    compose.NewEngine(nil, opts.Cache, opts.Keyer, opts.Logger.WithPrefix("compose")),
		Archive:   opts.Archive,
		Registry:  opts.Registry,
		Generator: opts.Generator,
		defaults:  settings,
		fetcher:   opts.Fetcher,
		logger:    opts.Logger,
		now:       opts.Now,
		closers:   opts.closers,
		draft:     campaign.Draft{Channel: campaign.Email, TargetStatus: campaign.StatusAll},
	}

	seq, err := dispatch.New(dispatch.Config{
		Resolver:  opts.Registry,
		Navigator: opts.Navigator,
		Recorder:  opts.Archive,
		Clipboard: opts.Clipboard,
		Assets:    dispatch.AssetFunc(s.dispatchAsset),
		Logger:    opts.Logger.WithPrefix("dispatch"),
		Now:       opts.Now,
	})
	if err != nil {
		return nil, err
	}
	s.Sequencer = seq

	s.Renderer = compose.NewRenderer(ctx, s.Engine, opts.Logger.WithPrefix("preview"))
	s.detach = s.Renderer.Attach(s.Store)
	return s, nil
}

// Close stops rendering and releases the backends opened for this studio.
func (s *Studio) Close() error {
	s.detach()
	s.Renderer.Close()
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Draft returns the current message draft.
func (s *Studio) Draft() campaign.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft validates and replaces the message draft.
func (s *Studio) SetDraft(d campaign.Draft) (campaign.Draft, error) {
	// Empty email copy is accepted while editing; Start rejects it.
	if err := d.Validate(); err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
		return campaign.Draft{}, err
	}
	s.mu.Lock()
	s.draft = d
	s.mu.Unlock()
	return d, nil
}

// NewCampaign clears the draft and the base image and restores default
// settings. The logo is kept.
func (s *Studio) NewCampaign() design.Snapshot {
	s.mu.Lock()
	s.draft = campaign.Draft{Channel: campaign.Email, TargetStatus: campaign.StatusAll}
	s.mu.Unlock()
	return s.Store.Reset(s.defaults)
}

// LoadBase loads the base image from a local path or an http(s) URL.
func (s *Studio) LoadBase(ctx context.Context, ref string) (design.Snapshot, error) {
	a, err := s.loadAsset(ctx, ref)
	if err != nil {
		return design.Snapshot{}, err
	}
	return s.Store.SetBase(a), nil
}

// LoadLogo loads the logo from a local path or an http(s) URL. An empty ref
// removes the logo.
func (s *Studio) LoadLogo(ctx context.Context, ref string) (design.Snapshot, error) {
	if ref == "" {
		return s.Store.SetLogo(nil), nil
	}
	a, err := s.loadAsset(ctx, ref)
	if err != nil {
		return design.Snapshot{}, err
	}
	return s.Store.SetLogo(&a), nil
}

func (s *Studio) loadAsset(ctx context.Context, ref string) (design.Asset, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return design.Asset{}, errors.New(errors.ErrCodeInvalidInput, "no image given")
	}
	if strings.HasPrefix(ref, "data:") {
		return design.ParseAssetURL(ref)
	}
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return s.fetcher.Fetch(ctx, ref)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return design.Asset{}, errors.Wrap(errors.ErrCodeNotFound, err, "image %s", ref)
		}
		return design.Asset{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", ref)
	}
	return design.NewAsset(data, ref), nil
}

// Preview waits for the latest render and returns it. It fails with
// INVALID_STATE when no base image is loaded.
func (s *Studio) Preview(ctx context.Context) (*compose.Composed, error) {
	out, err := s.Renderer.Wait(ctx)
	if err != nil {
		return out, err
	}
	if out == nil {
		return nil, errors.New(errors.ErrCodeInvalidState, "no base image loaded")
	}
	return out, nil
}

// Download returns the composed visual and its artifact file name.
func (s *Studio) Download(ctx context.Context) (name string, out *compose.Composed, err error) {
	out, err = s.Preview(ctx)
	if err != nil {
		return "", nil, err
	}
	label := s.Draft().Subject
	if label == "" {
		label = s.Store.Settings().OverlayText
	}
	return compose.ArtifactName(label, s.now()), out, nil
}

// dispatchAsset is the visual buffered on each dispatch step: the composed
// preview when available, else the raw base.
func (s *Studio) dispatchAsset(context.Context) (design.Asset, bool) {
	if c := s.Renderer.Current(); c != nil {
		return c.Asset, true
	}
	snap := s.Store.Snapshot()
	if snap.HasBase() || snap.Base.Source != "" {
		return snap.Base, true
	}
	return design.Asset{}, false
}

// Eligible lists recipients matching status ("" or ALL matches everyone).
func (s *Studio) Eligible(ctx context.Context, status string) ([]recipient.Recipient, error) {
	list, err := s.Registry.List(ctx)
	if err != nil {
		return nil, err
	}
	return recipient.Eligible(list, status), nil
}

// StartDispatch begins a sequence over ids with the current draft.
func (s *Studio) StartDispatch(ctx context.Context, ids []string) (dispatch.State, error) {
	if err := s.Sequencer.Start(ctx, ids, s.Draft()); err != nil {
		return s.Sequencer.State(), err
	}
	return s.Sequencer.State(), nil
}

// Advance processes the next recipient.
func (s *Studio) Advance(ctx context.Context) (dispatch.Step, error) {
	return s.Sequencer.Advance(ctx)
}

// Abort cancels the running sequence.
func (s *Studio) Abort() error {
	return s.Sequencer.Abort()
}

// Campaigns lists archived campaigns, most recent first.
func (s *Studio) Campaigns(ctx context.Context) ([]campaign.Record, error) {
	return s.Archive.List(ctx)
}

// Recall restores an archived campaign into the draft and the design store.
// The base is always replaced: by the recalled asset, or cleared when the
// record has none. A remote asset reference is downloaded; if that fails the
// draft is still restored, the base is cleared and the error is returned.
func (s *Studio) Recall(ctx context.Context, id string) (campaign.Record, error) {
	rec, err := s.Archive.Get(ctx, id)
	if err != nil {
		return campaign.Record{}, err
	}
	frag, draft, err := archive.Recall(rec)
	s.mu.Lock()
	s.draft = draft
	s.mu.Unlock()
	if err != nil {
		s.Store.Apply(design.Fragment{})
		return rec, err
	}

	if frag.Base != nil && frag.Base.Empty() && frag.Base.Source != "" {
		a, err := s.fetcher.Fetch(ctx, frag.Base.Source)
		if err != nil {
			s.Store.Apply(design.Fragment{})
			return rec, err
		}
		frag.Base = &a
	}
	s.Store.Apply(frag)
	s.logger.Info("campaign recalled", "id", rec.ID, "title", rec.Title())
	return rec, nil
}

// GenerateCopy asks the generator for copy on the draft's channel and, on
// success, fills the draft's subject and body.
func (s *Studio) GenerateCopy(ctx context.Context, brief, tone string) (generate.Copy, error) {
	d := s.Draft()
	out, err := s.Generator.Copy(ctx, generate.CopyRequest{Channel: d.Channel, Brief: brief, Tone: tone})
	if err != nil {
		return generate.Copy{}, err
	}
	s.mu.Lock()
	if s.draft.Channel != campaign.WhatsApp {
		s.draft.Subject = out.Subject
	}
	s.draft.Body = out.Body
	s.mu.Unlock()
	return out, nil
}

// GenerateBase asks the generator for a base image and, on success, makes it
// the base. withReference sends the current base as a reference.
func (s *Studio) GenerateBase(ctx context.Context, prompt, aspect string, withReference bool) (design.Snapshot, error) {
	req := generate.ImageRequest{Prompt: prompt, Aspect: aspect}
	if withReference {
		if snap := s.Store.Snapshot(); snap.HasBase() {
			req.Reference = &snap.Base
		}
	}
	a, err := s.Generator.Image(ctx, req)
	if err != nil {
		return design.Snapshot{}, err
	}
	return s.Store.SetBase(a), nil
}
