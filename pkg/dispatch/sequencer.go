// Package dispatch drives a one-recipient-at-a-time send sequence.
//
// The operator selects recipients and a message draft, then advances through
// them one step at a time. Each step buffers the campaign visual to the
// clipboard (best effort), builds a channel deep link and hands it to a
// [Navigator]. After the last recipient, exactly one [campaign.Record] is
// appended to the archive. Aborting mid-sequence writes nothing.
//
//	Idle --Start--> Dispatching(0) --Advance--> ... --Advance--> Complete
//	  ^                   |                                        |
//	  +------Abort--------+<-----------------Start-----------------+
package dispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/observability"
	"github.com/matzehuels/campaignkit/pkg/recipient"
)

// Phase is the sequencer state.
type Phase int

const (
	Idle Phase = iota
	Dispatching
	Complete
)

func (p Phase) String() string {
	switch p {
	case Dispatching:
		return "dispatching"
	case Complete:
		return "complete"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Navigator opens a deep link. A failed navigation fails the step.
type Navigator interface {
	Navigate(ctx context.Context, uri string, target Target) error
}

// Clipboard buffers the campaign visual. Failures never fail a step.
type Clipboard interface {
	Write(ctx context.Context, data []byte, mimeType string) error
}

// Resolver looks up recipients by id.
type Resolver interface {
	Get(ctx context.Context, id string) (recipient.Recipient, bool, error)
}

// Recorder persists completed sequences.
type Recorder interface {
	Append(ctx context.Context, rec campaign.Record) error
}

// AssetSource returns the visual attached to the campaign, if any.
type AssetSource interface {
	Asset(ctx context.Context) (design.Asset, bool)
}

// AssetFunc adapts a function to AssetSource.
type AssetFunc func(ctx context.Context) (design.Asset, bool)

// Asset implements AssetSource.
func (f AssetFunc) Asset(ctx context.Context) (design.Asset, bool) { return f(ctx) }

// Config wires a Sequencer. Resolver, Navigator and Recorder are required.
type Config struct {
	Resolver  Resolver
	Navigator Navigator
	Recorder  Recorder
	Clipboard Clipboard
	Assets    AssetSource
	Logger    *log.Logger
	Now       func() time.Time
	NewID     func() string
}

// State is a snapshot of the sequencer.
type State struct {
	Phase    Phase          `json:"phase"`
	Draft    campaign.Draft `json:"draft"`
	Selected []string       `json:"selected"`
	Index    int            `json:"index"`
	Visited  []string       `json:"visited"`
	// Last is the record written by the most recent completed sequence.
	Last *campaign.Record `json:"last,omitempty"`
}

// Remaining returns how many recipients are still to be visited.
func (s State) Remaining() int {
	if s.Phase != Dispatching {
		return 0
	}
	return len(s.Selected) - s.Index
}

// Step describes one Advance.
type Step struct {
	Index       int              `json:"index"`
	RecipientID string           `json:"recipient_id"`
	Recipient   string           `json:"recipient,omitempty"`
	URI         string           `json:"uri,omitempty"`
	Skipped     bool             `json:"skipped,omitempty"`
	Clipboard   bool             `json:"clipboard"`
	Completed   bool             `json:"completed,omitempty"`
	Record      *campaign.Record `json:"record,omitempty"`
}

// Sequencer is the dispatch state machine. It is safe for concurrent use;
// at most one Advance runs at a time.
type Sequencer struct {
	resolver  Resolver
	navigator Navigator
	recorder  Recorder
	clipboard Clipboard
	assets    AssetSource
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	mu       sync.Mutex
	phase    Phase
	draft    campaign.Draft
	selected []string
	index    int
	visited  []string
	run      uint64
	busy     bool
	pending  *campaign.Record
	last     *campaign.Record
}

// New returns an idle sequencer.
func New(cfg Config) (*Sequencer, error) {
	if cfg.Resolver == nil || cfg.Navigator == nil || cfg.Recorder == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dispatch: resolver, navigator and recorder are required")
	}
	s := &Sequencer{
		resolver:  cfg.Resolver,
		navigator: cfg.Navigator,
		recorder:  cfg.Recorder,
		clipboard: cfg.Clipboard,
		assets:    cfg.Assets,
		logger:    cfg.Logger,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

// Start begins a sequence over ids with draft.
//
// Duplicate ids are collapsed, keeping first occurrence. Start fails with
// INVALID_STATE while a sequence is running, INVALID_INPUT for an empty
// selection, NOT_FOUND for unknown ids and MISSING_CONTACT when any recipient
// cannot be reached on the draft's channel.
func (s *Sequencer) Start(ctx context.Context, ids []string, draft campaign.Draft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	selected := orderedSet(ids)
	if len(selected) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no recipients selected")
	}

	s.mu.Lock()
	if s.phase == Dispatching {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidState, "a dispatch sequence is already running")
	}
	s.mu.Unlock()

	var unknown, unreachable []string
	for _, id := range selected {
		r, ok, err := s.resolver.Get(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case !ok:
			unknown = append(unknown, id)
		case !r.HasContact(draft.Channel):
			unreachable = append(unreachable, r.Name())
		}
	}
	if len(unknown) > 0 {
		return errors.New(errors.ErrCodeNotFound, "unknown recipients: %s", strings.Join(unknown, ", "))
	}
	if len(unreachable) > 0 {
		field := "email address"
		if draft.Channel == campaign.WhatsApp {
			field = "phone number"
		}
		return errors.New(errors.ErrCodeMissingContact, "no %s for: %s", field, strings.Join(unreachable, ", "))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Dispatching {
		return errors.New(errors.ErrCodeInvalidState, "a dispatch sequence is already running")
	}
	s.phase = Dispatching
	s.draft = draft
	s.selected = selected
	s.index = 0
	s.visited = nil
	s.pending = nil
	s.run++

	s.logger.Info("dispatch started", "channel", draft.Channel, "recipients", len(selected))
	observability.Dispatch().OnDispatchStart(ctx, string(draft.Channel), len(selected))
	return nil
}

// Advance processes the current recipient.
//
// It fails with NOT_DISPATCHING when no sequence is running or another Advance
// is in flight. A recipient that no longer resolves is skipped. Clipboard
// failures are logged and ignored. A navigation failure returns
// NAVIGATION_FAILED and leaves the index unchanged so the step can be retried.
// The final step appends the campaign record; if that append fails the
// sequence stays on the final step and the next Advance retries only the append.
func (s *Sequencer) Advance(ctx context.Context) (Step, error) {
	s.mu.Lock()
	if s.phase != Dispatching || s.busy {
		s.mu.Unlock()
		return Step{}, errors.New(errors.ErrCodeNotDispatching, "no dispatch step available")
	}
	s.busy = true
	run, idx, draft := s.run, s.index, s.draft
	id := s.selected[idx]
	pending := s.pending
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if pending != nil {
		return s.finish(ctx, run, Step{Index: idx, RecipientID: id, Completed: true}, pending)
	}

	hooks := observability.Dispatch()
	step := Step{Index: idx, RecipientID: id}
	asset, hasAsset := s.asset(ctx)

	r, ok, err := s.resolver.Get(ctx, id)
	if err != nil {
		hooks.OnDispatchStep(ctx, string(draft.Channel), idx, false, err)
		return step, err
	}
	if !ok {
		step.Skipped = true
		s.logger.Warn("recipient vanished, skipping", "id", id, "index", idx)
	} else {
		step.Recipient = r.Name()
		if hasAsset && !asset.Empty() && s.clipboard != nil {
			if err := s.clipboard.Write(ctx, asset.Data, asset.MIMEType); err != nil {
				s.logger.Debug("clipboard write failed", "error", err)
			} else {
				step.Clipboard = true
			}
		}
		uri, err := Link(r, draft)
		if err != nil {
			step.Skipped = true
			s.logger.Warn("recipient unreachable, skipping", "id", id, "error", err)
		} else {
			step.URI = uri
			if err := s.navigator.Navigate(ctx, uri, TargetFor(draft.Channel)); err != nil {
				hooks.OnDispatchStep(ctx, string(draft.Channel), idx, false, err)
				return step, errors.Wrap(errors.ErrCodeNavigate, err, "open link for %s", r.Name())
			}
		}
	}
	hooks.OnDispatchStep(ctx, string(draft.Channel), idx, step.Skipped, nil)

	s.mu.Lock()
	if s.run != run || s.phase != Dispatching {
		s.mu.Unlock()
		return step, errors.New(errors.ErrCodeInvalidState, "dispatch was aborted")
	}
	if !step.Skipped {
		s.visited = append(s.visited, id)
	}
	if idx+1 < len(s.selected) {
		s.index++
		s.mu.Unlock()
		return step, nil
	}
	rec := &campaign.Record{
		ID:             s.newID(),
		Channel:        draft.Channel,
		Subject:        draft.Subject,
		Body:           draft.Body,
		RecipientCount: len(s.selected),
		Timestamp:      s.now().UTC(),
		TargetStatus:   draft.TargetStatus,
	}
	if hasAsset {
		rec.AssetURL = asset.DataURL()
	}
	s.pending = rec
	s.mu.Unlock()

	step.Completed = true
	return s.finish(ctx, run, step, rec)
}

func (s *Sequencer) finish(ctx context.Context, run uint64, step Step, rec *campaign.Record) (Step, error) {
	if err := s.recorder.Append(ctx, *rec); err != nil {
		s.logger.Error("campaign record not saved; advance again to retry", "id", rec.ID, "error", err)
		return step, errors.Wrap(errors.ErrCodeStorage, err, "archive campaign")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != run {
		return step, nil
	}
	s.phase = Complete
	s.selected = nil
	s.index = 0
	s.pending = nil
	s.last = rec
	step.Record = rec

	s.logger.Info("dispatch complete", "channel", rec.Channel, "recipients", rec.RecipientCount, "record", rec.ID)
	observability.Dispatch().OnDispatchFinish(ctx, string(rec.Channel), len(s.visited), false)
	return step, nil
}

// Abort cancels a running sequence without writing a record. It fails with
// INVALID_STATE only while the final record is being written.
func (s *Sequencer) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Dispatching {
		s.phase = Idle
		return nil
	}
	if s.busy && s.pending != nil {
		return errors.New(errors.ErrCodeInvalidState, "campaign record is being saved")
	}
	visited, ch := len(s.visited), s.draft.Channel
	s.phase = Idle
	s.selected = nil
	s.index = 0
	s.pending = nil
	s.run++

	s.logger.Info("dispatch aborted", "visited", visited)
	observability.Dispatch().OnDispatchFinish(context.Background(), string(ch), visited, true)
	return nil
}

// State returns a snapshot.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Phase:    s.phase,
		Draft:    s.draft,
		Selected: append([]string(nil), s.selected...),
		Index:    s.index,
		Visited:  append([]string(nil), s.visited...),
		Last:     s.last,
	}
}

// Visited returns the recipients navigated to in the current or most recent
// sequence, in order.
func (s *Sequencer) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

func (s *Sequencer) asset(ctx context.Context) (design.Asset, bool) {
	if s.assets == nil {
		return design.Asset{}, false
	}
	a, ok := s.assets.Asset(ctx)
	if !ok || (a.Empty() && a.Source == "") {
		return design.Asset{}, false
	}
	return a, true
}

func orderedSet(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
