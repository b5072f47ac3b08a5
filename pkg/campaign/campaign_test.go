package campaign

import (
	"testing"
	"time"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in      string
		want    Channel
		wantErr bool
	}{
		{"EMAIL", Email, false},
		{"email", Email, false},
		{"mail", Email, false},
		{"WhatsApp", WhatsApp, false},
		{" wa ", WhatsApp, false},
		{"sms", "", true},
	}
	for _, tt := range tests {
		got, err := ParseChannel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseChannel(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseChannel(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidChannel) {
			t.Errorf("ParseChannel(%q) code = %s", tt.in, errors.GetCode(err))
		}
	}
}

func TestDraftValidate(t *testing.T) {
	d := Draft{Channel: "whatsapp", Body: "hi"}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
	if d.Channel != WhatsApp || d.TargetStatus != StatusAll {
		t.Errorf("normalized draft = %+v", d)
	}

	empty := Draft{Channel: Email}
	if err := empty.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty email err = %v", err)
	}
}

func TestRecordDraft(t *testing.T) {
	r := Record{
		ID: "x", Channel: Email, Subject: "Q4 Promo", Body: "Save 20%",
		RecipientCount: 3, Timestamp: time.Now(), TargetStatus: "ALL",
	}
	want := Draft{Channel: Email, Subject: "Q4 Promo", Body: "Save 20%", TargetStatus: "ALL"}
	if got := r.Draft(); got != want {
		t.Errorf("Draft() = %+v, want %+v", got, want)
	}
}

func TestRecordTitle(t *testing.T) {
	if got := (Record{Subject: " Launch "}).Title(); got != "Launch" {
		t.Errorf("Title = %q", got)
	}
	long := Record{Body: "Hello there, this is a fairly long whatsapp body text that goes on"}
	if got := long.Title(); len([]rune(got)) != 41 {
		t.Errorf("Title = %q (%d runes)", got, len([]rune(got)))
	}
}
