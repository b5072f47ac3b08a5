// Package campaign defines the value types shared by the dispatch sequencer
// and the campaign archive.
package campaign

import (
	"strings"
	"time"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Channel is an outbound messaging channel.
type Channel string

// Supported channels.
const (
	Email    Channel = "EMAIL"
	WhatsApp Channel = "WHATSAPP"
)

// Channels lists the supported channels.
var Channels = []Channel{Email, WhatsApp}

// ParseChannel parses a channel name case-insensitively.
// "mail" and "wa" are accepted as shorthands.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EMAIL", "MAIL":
		return Email, nil
	case "WHATSAPP", "WA":
		return WhatsApp, nil
	}
	return "", errors.New(errors.ErrCodeInvalidChannel, "unknown channel %q (must be EMAIL or WHATSAPP)", s)
}

// String implements fmt.Stringer.
func (c Channel) String() string { return string(c) }

// StatusAll is the target-status filter that matches every recipient.
const StatusAll = "ALL"

// Draft is the editable message state of a campaign. It seeds a dispatch
// sequence and is what a recalled campaign restores; it never carries
// recipient ids.
type Draft struct {
	Channel      Channel `json:"channel"`
	Subject      string  `json:"subject"`
	Body         string  `json:"body"`
	TargetStatus string  `json:"target_status"`
}

// Validate checks the channel and defaults TargetStatus to ALL.
func (d *Draft) Validate() error {
	ch, err := ParseChannel(string(d.Channel))
	if err != nil {
		return err
	}
	d.Channel = ch
	if strings.TrimSpace(d.TargetStatus) == "" {
		d.TargetStatus = StatusAll
	}
	if ch == Email && strings.TrimSpace(d.Subject) == "" && strings.TrimSpace(d.Body) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "email needs a subject or a body")
	}
	return nil
}

// Record is an immutable log entry for one completed dispatch sequence.
type Record struct {
	ID             string    `json:"id" bson:"_id"`
	Channel        Channel   `json:"channel" bson:"channel"`
	Subject        string    `json:"subject" bson:"subject"`
	Body           string    `json:"body" bson:"body"`
	AssetURL       string    `json:"asset_url,omitempty" bson:"asset_url,omitempty"`
	RecipientCount int       `json:"recipient_count" bson:"recipient_count"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
	TargetStatus   string    `json:"target_status" bson:"target_status"`
}

// Draft returns the editable fields of the record.
func (r Record) Draft() Draft {
	return Draft{
		Channel:      r.Channel,
		Subject:      r.Subject,
		Body:         r.Body,
		TargetStatus: r.TargetStatus,
	}
}

// Title is a short label for listings: the subject, or the start of the body.
func (r Record) Title() string {
	if t := strings.TrimSpace(r.Subject); t != "" {
		return t
	}
	body := strings.Join(strings.Fields(r.Body), " ")
	if len([]rune(body)) > 40 {
		return string([]rune(body)[:40]) + "…"
	}
	return body
}
