// Package recipient is the client registry consulted when a campaign is sent.
//
// Recipients are read live at dispatch time; a campaign never stores its
// recipient list, so recalling an old campaign re-derives the audience from
// the current registry via [Eligible].
package recipient

import (
	"context"
	"sort"
	"strings"

	"github.com/matzehuels/campaignkit/pkg/campaign"
)

// Recipient is one addressable client.
type Recipient struct {
	ID          string `json:"id" toml:"id"`
	DisplayName string `json:"display_name" toml:"display_name"`
	Email       string `json:"email,omitempty" toml:"email"`
	Phone       string `json:"phone,omitempty" toml:"phone"`
	Status      string `json:"status,omitempty" toml:"status"`
}

// Contact returns the address used on ch: the email for EMAIL, the phone for WHATSAPP.
func (r Recipient) Contact(ch campaign.Channel) string {
	switch ch {
	case campaign.Email:
		return strings.TrimSpace(r.Email)
	case campaign.WhatsApp:
		return strings.TrimSpace(r.Phone)
	}
	return ""
}

// HasContact reports whether r can be reached on ch. A phone number must
// contain at least one digit.
func (r Recipient) HasContact(ch campaign.Channel) bool {
	c := r.Contact(ch)
	if ch == campaign.WhatsApp {
		return strings.IndexFunc(c, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
	}
	return c != ""
}

// Name returns DisplayName, falling back to ID.
func (r Recipient) Name() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.ID
}

// Registry lists and resolves recipients.
type Registry interface {
	List(ctx context.Context) ([]Recipient, error)
	// Get returns ok=false when id is unknown.
	Get(ctx context.Context, id string) (r Recipient, ok bool, err error)
}

// Eligible filters list by status. "ALL" (or empty) matches every recipient;
// otherwise statuses compare case-insensitively. Order is preserved.
func Eligible(list []Recipient, status string) []Recipient {
	status = strings.TrimSpace(status)
	if status == "" || strings.EqualFold(status, campaign.StatusAll) {
		return append([]Recipient(nil), list...)
	}
	var out []Recipient
	for _, r := range list {
		if strings.EqualFold(strings.TrimSpace(r.Status), status) {
			out = append(out, r)
		}
	}
	return out
}

// IDs returns the ids of list in order.
func IDs(list []Recipient) []string {
	ids := make([]string, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}
	return ids
}

// Statuses returns the distinct statuses in list, sorted.
func Statuses(list []Recipient) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range list {
		s := strings.ToUpper(strings.TrimSpace(r.Status))
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
