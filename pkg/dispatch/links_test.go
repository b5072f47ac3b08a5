package dispatch

import (
	"testing"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/recipient"
)

func TestDigitsOnly(t *testing.T) {
	tests := map[string]string{
		"+1 (555) 010-2030": "15550102030",
		"07911 123456":      "07911123456",
		"abc":               "",
		"":                  "",
	}
	for in, want := range tests {
		if got := DigitsOnly(in); got != want {
			t.Errorf("DigitsOnly(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmailLink(t *testing.T) {
	got := EmailLink("ada@example.com", "Q4 Promo", "Hi & bye\nSee you")
	want := "mailto:ada@example.com?subject=Q4%20Promo&body=Hi%20%26%20bye%0ASee%20you"
	if got != want {
		t.Errorf("EmailLink = %q, want %q", got, want)
	}
}

func TestWhatsAppLink(t *testing.T) {
	got := WhatsAppLink("+1 (555) 010-2030", "50% off!")
	want := "https://wa.me/15550102030?text=50%25%20off%21"
	if got != want {
		t.Errorf("WhatsAppLink = %q, want %q", got, want)
	}
}

func TestLink(t *testing.T) {
	r := recipient.Recipient{ID: "a", DisplayName: "Ada", Email: "ada@example.com"}

	uri, err := Link(r, campaign.Draft{Channel: campaign.Email, Subject: "S", Body: "B"})
	if err != nil || uri != "mailto:ada@example.com?subject=S&body=B" {
		t.Errorf("Link = %q, %v", uri, err)
	}
	if _, err := Link(r, campaign.Draft{Channel: campaign.WhatsApp, Body: "B"}); !errors.Is(err, errors.ErrCodeMissingContact) {
		t.Errorf("no phone: %v", err)
	}
}

func TestTargetFor(t *testing.T) {
	if TargetFor(campaign.WhatsApp) != NewTab || TargetFor(campaign.Email) != SameTab {
		t.Error("WhatsApp opens a new tab, mail the same tab")
	}
}
