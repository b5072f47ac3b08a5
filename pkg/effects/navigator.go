package effects

import (
	"context"
	"net/url"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/campaignkit/pkg/dispatch"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/events"
)

// allowedSchemes are the deep-link schemes a navigator will open.
var allowedSchemes = map[string]bool{"mailto": true, "https": true, "http": true}

func checkURI(uri string) error {
	parsed, err := url.Parse(uri)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid link")
	}
	if !allowedSchemes[parsed.Scheme] {
		return errors.New(errors.ErrCodeInvalidInput, "link scheme must be mailto, http or https, got %q", parsed.Scheme)
	}
	return nil
}

// BrowserNavigator hands links to the desktop's default handler. Mail links
// open the mail client; web links open a browser window, which is the
// closest a desktop gets to a new tab.
type BrowserNavigator struct {
	// command builds the opener; nil uses the platform default.
	command func(uri string) (*exec.Cmd, error)
}

// NewBrowserNavigator returns a navigator for the current platform.
func NewBrowserNavigator() *BrowserNavigator {
	return &BrowserNavigator{}
}

// Navigate implements dispatch.Navigator.
func (b *BrowserNavigator) Navigate(ctx context.Context, uri string, _ dispatch.Target) error {
	if err := checkURI(uri); err != nil {
		return err
	}
	build := b.command
	if build == nil {
		build = openCommand
	}
	cmd, err := build(uri)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(errors.ErrCodeNavigate, err, "start %s", cmd.Path)
	}
	go cmd.Wait()
	return nil
}

func openCommand(uri string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", uri), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", uri), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", uri), nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported platform: %s", runtime.GOOS)
}

// Visit is one navigation seen by a LogNavigator.
type Visit struct {
	URI    string
	Target dispatch.Target
	At     time.Time
}

// LogNavigator logs links instead of opening them. It is used for dry runs,
// the HTTP server (where the client opens the link) and tests.
type LogNavigator struct {
	Logger *log.Logger

	mu     sync.Mutex
	visits []Visit
}

// NewLogNavigator returns a navigator logging to logger (nil: log.Default()).
func NewLogNavigator(logger *log.Logger) *LogNavigator {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNavigator{Logger: logger}
}

// Navigate implements dispatch.Navigator.
func (n *LogNavigator) Navigate(ctx context.Context, uri string, target dispatch.Target) error {
	if err := checkURI(uri); err != nil {
		return err
	}
	n.Logger.Info("open", "target", target, "uri", uri)
	n.mu.Lock()
	n.visits = append(n.visits, Visit{URI: uri, Target: target, At: time.Now()})
	n.mu.Unlock()
	return ctx.Err()
}

// Visits returns the navigations so far.
func (n *LogNavigator) Visits() []Visit {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Visit(nil), n.visits...)
}

// StepEvent is the payload a QueueNavigator publishes for each link.
type StepEvent struct {
	URI    string          `json:"uri"`
	Target dispatch.Target `json:"target"`
}

// QueueNavigator publishes links to a broker so a separate worker can open
// or deliver them.
type QueueNavigator struct {
	Publisher events.Publisher
	Topic     string
}

// NewQueueNavigator returns a navigator publishing to events.TopicDispatchStep.
func NewQueueNavigator(pub events.Publisher) *QueueNavigator {
	return &QueueNavigator{Publisher: pub, Topic: events.TopicDispatchStep}
}

// Navigate implements dispatch.Navigator. A publish failure fails the step.
func (q *QueueNavigator) Navigate(ctx context.Context, uri string, target dispatch.Target) error {
	if err := checkURI(uri); err != nil {
		return err
	}
	if err := q.Publisher.Publish(ctx, q.Topic, StepEvent{URI: uri, Target: target}); err != nil {
		return errors.Wrap(errors.ErrCodeNavigate, err, "queue link")
	}
	return nil
}

var (
	_ dispatch.Navigator = (*BrowserNavigator)(nil)
	_ dispatch.Navigator = (*LogNavigator)(nil)
	_ dispatch.Navigator = (*QueueNavigator)(nil)
	_ dispatch.Clipboard = SystemClipboard{}
	_ dispatch.Clipboard = (*MemoryClipboard)(nil)
)
