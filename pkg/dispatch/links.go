package dispatch

import (
	"net/url"
	"strings"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/recipient"
)

// Target says where a deep link should open.
type Target int

const (
	// SameTab replaces the current view; used for mail handlers.
	SameTab Target = iota
	// NewTab opens alongside the current view; used for chat links.
	NewTab
)

func (t Target) String() string {
	if t == NewTab {
		return "new-tab"
	}
	return "same-tab"
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// TargetFor returns the navigation target for ch.
func TargetFor(ch campaign.Channel) Target {
	if ch == campaign.WhatsApp {
		return NewTab
	}
	return SameTab
}

// escape percent-encodes s for a URI query value, spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EmailLink returns mailto:<address>?subject=<enc>&body=<enc>.
func EmailLink(address, subject, body string) string {
	return "mailto:" + strings.TrimSpace(address) + "?subject=" + escape(subject) + "&body=" + escape(body)
}

// DigitsOnly strips every non-digit from phone.
func DigitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink returns https://wa.me/<digits>?text=<enc>.
func WhatsAppLink(phone, text string) string {
	return "https://wa.me/" + DigitsOnly(phone) + "?text=" + escape(text)
}

// Link builds the deep link for r on the draft's channel.
func Link(r recipient.Recipient, d campaign.Draft) (string, error) {
	if !r.HasContact(d.Channel) {
		return "", errors.New(errors.ErrCodeMissingContact, "%s has no %s contact", r.Name(), d.Channel)
	}
	switch d.Channel {
	case campaign.Email:
		return EmailLink(r.Email, d.Subject, d.Body), nil
	case campaign.WhatsApp:
		return WhatsAppLink(r.Phone, d.Body), nil
	}
	return "", errors.New(errors.ErrCodeInvalidChannel, "unknown channel %q", d.Channel)
}
