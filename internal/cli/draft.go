package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// draftFile is the on-disk form of a message draft, written by
// "campaigns recall" and "generate copy" and read by "dispatch --draft".
type draftFile struct {
	Channel      string `toml:"channel"`
	Subject      string `toml:"subject,omitempty"`
	Body         string `toml:"body"`
	TargetStatus string `toml:"target_status,omitempty"`
}

func readDraft(path string) (campaign.Draft, error) {
	var f draftFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if os.IsNotExist(err) {
			return campaign.Draft{}, errors.Wrap(errors.ErrCodeNotFound, err, "draft %s", path)
		}
		return campaign.Draft{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse draft %s", path)
	}
	return campaign.Draft{
		Channel:      campaign.Channel(f.Channel),
		Subject:      f.Subject,
		Body:         f.Body,
		TargetStatus: f.TargetStatus,
	}, nil
}

func writeDraft(path string, d campaign.Draft) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create draft dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create draft %s", path)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(draftFile{
		Channel:      string(d.Channel),
		Subject:      d.Subject,
		Body:         d.Body,
		TargetStatus: d.TargetStatus,
	})
}

// =============================================================================
// Design Flags
// =============================================================================

// designFlags are the compositor settings settable from the command line.
// Only flags the user set override the configured settings.
type designFlags struct {
	file     string
	text     string
	font     string
	color    string
	pattern  string
	position string
	opacity  int
	noLogo   bool
}

func (f *designFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.file, "settings", "", "TOML file with design settings")
	fs.StringVarP(&f.text, "text", "t", "", "caption overlay text")
	fs.StringVar(&f.font, "font", "", "caption font family")
	fs.StringVar(&f.color, "color", "", "caption color (#RRGGBB)")
	fs.StringVar(&f.pattern, "pattern", "", "tint pattern (none, midnight, sunset, forest, ocean, rose, noir)")
	fs.StringVar(&f.position, "logo-position", "", "logo corner (top-left, top-right, bottom-left, bottom-right)")
	fs.IntVar(&f.opacity, "opacity", design.DefaultOpacity, "export quality percent (10-100)")
	fs.BoolVar(&f.noLogo, "no-logo", false, "hide the logo")
}

// apply layers the settings file and the changed flags over base.
func (f *designFlags) apply(fs *pflag.FlagSet, base design.Settings) (design.Settings, error) {
	s := base
	if f.file != "" {
		if _, err := toml.DecodeFile(f.file, &s); err != nil {
			return base, errors.Wrap(errors.ErrCodeInvalidSettings, err, "read settings %s", f.file)
		}
	}
	if fs.Changed("text") {
		s.OverlayText = f.text
	}
	if fs.Changed("font") {
		s.FontFamily = f.font
	}
	if fs.Changed("color") {
		s.TextColor = design.Color(f.color)
	}
	if fs.Changed("pattern") {
		p, err := design.ParsePattern(f.pattern)
		if err != nil {
			return base, err
		}
		s.Pattern = p
	}
	if fs.Changed("logo-position") {
		p, err := design.ParsePosition(f.position)
		if err != nil {
			return base, err
		}
		s.LogoPosition = p
	}
	if fs.Changed("opacity") {
		s.Opacity = f.opacity
	}
	if f.noLogo {
		s.ShowLogo = false
	}
	return s, s.Validate()
}
