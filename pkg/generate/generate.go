// Package generate asks an AI service for campaign copy and base images.
//
// A [Generator] is a pure collaborator: it never mutates campaign state, and
// failures are returned as AI_SERVICE errors without retry. Callers apply the
// result (e.g. set the draft subject or the design base) themselves.
//
// Backends: [Gemini] (google.golang.org/genai), [OpenAI]
// (github.com/openai/openai-go) and [Mock]. [Cached] memoizes any of them.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Aspect ratio hints for generated images.
const (
	AspectSquare    = "1:1"
	AspectLandscape = "16:9"
	AspectPortrait  = "9:16"
)

// CopyRequest asks for marketing copy.
type CopyRequest struct {
	Channel campaign.Channel `json:"channel"`
	Brief   string           `json:"brief"`
	Tone    string           `json:"tone,omitempty"`
}

// Validate checks the request.
func (r *CopyRequest) Validate() error {
	if strings.TrimSpace(r.Brief) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "brief is empty")
	}
	if r.Channel == "" {
		r.Channel = campaign.Email
	}
	ch, err := campaign.ParseChannel(string(r.Channel))
	if err != nil {
		return err
	}
	r.Channel = ch
	return nil
}

// Copy is generated message text. Subject is empty for chat channels.
type Copy struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ImageRequest asks for a base image.
type ImageRequest struct {
	Prompt    string        `json:"prompt"`
	Reference *design.Asset `json:"-"`
	Aspect    string        `json:"aspect,omitempty"`
}

// Validate checks the request and defaults the aspect to square.
func (r *ImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "image prompt is empty")
	}
	switch r.Aspect {
	case "":
		r.Aspect = AspectSquare
	case AspectSquare, AspectLandscape, AspectPortrait:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported aspect %q (use 1:1, 16:9 or 9:16)", r.Aspect)
	}
	return nil
}

// Generator produces copy and images.
type Generator interface {
	Copy(ctx context.Context, req CopyRequest) (Copy, error)
	Image(ctx context.Context, req ImageRequest) (design.Asset, error)
	// Name identifies provider and model, e.g. "gemini/gemini-2.5-flash".
	Name() string
}

// Config selects and configures a backend.
type Config struct {
	Provider   string `toml:"provider"` // gemini, openai or mock
	APIKey     string `toml:"-"`
	Model      string `toml:"model"`
	ImageModel string `toml:"image_model"`
	BaseURL    string `toml:"base_url"`
}

// New returns the backend named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *log.Logger) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google":
		return NewGemini(ctx, cfg)
	case "openai":
		return NewOpenAI(cfg, logger)
	case "", "mock":
		return NewMock(), nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown generator %q (use gemini, openai or mock)", cfg.Provider)
}

const copySystemPrompt = `You write short outbound marketing messages.
Reply with a single JSON object: {"subject": "...", "body": "..."}.
Keep the body under 600 characters. Do not use markdown.`

func copyPrompt(req CopyRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Channel: %s\n", req.Channel)
	if req.Channel == campaign.WhatsApp {
		b.WriteString("This is a chat message: leave subject empty and keep the body conversational.\n")
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	fmt.Fprintf(&b, "Brief: %s\n", req.Brief)
	return b.String()
}

func imagePrompt(req ImageRequest) string {
	p := fmt.Sprintf("Marketing campaign photo, no text or lettering. Aspect ratio %s. %s", req.Aspect, req.Prompt)
	if req.Reference != nil && !req.Reference.Empty() {
		p += " Use the attached image as the style and subject reference."
	}
	return p
}

// ParseCopy extracts a Copy from a model reply. The reply may wrap the JSON in
// a markdown fence or surround it with prose.
func ParseCopy(reply string) (Copy, error) {
	s := strings.TrimSpace(reply)
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			s = s[i : j+1]
		}
	}
	var c Copy
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return Copy{}, errors.Wrap(errors.ErrCodeAIService, err, "model reply is not valid copy JSON")
	}
	c.Subject = strings.TrimSpace(c.Subject)
	c.Body = strings.TrimSpace(c.Body)
	if c.Body == "" && c.Subject == "" {
		return Copy{}, errors.New(errors.ErrCodeAIService, "model returned empty copy")
	}
	return c, nil
}

func serviceError(provider string, err error) error {
	if errors.GetCode(err) == errors.ErrCodeAIService {
		return err
	}
	return errors.Wrap(errors.ErrCodeAIService, err, "%s request failed", provider)
}
