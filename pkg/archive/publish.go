package archive

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/events"
)

// CompletedEvent is the payload announced after a record is appended. The
// asset itself is not included.
type CompletedEvent struct {
	ID             string           `json:"id"`
	Channel        campaign.Channel `json:"channel"`
	Subject        string           `json:"subject,omitempty"`
	RecipientCount int              `json:"recipient_count"`
	TargetStatus   string           `json:"target_status"`
	Timestamp      time.Time        `json:"timestamp"`
	HasAsset       bool             `json:"has_asset"`
}

// Publishing announces every successful append on a Publisher. Publish
// failures are logged and never fail the append.
type Publishing struct {
	Archive
	Publisher events.Publisher
	Logger    *log.Logger
}

// NewPublishing wraps inner.
func NewPublishing(inner Archive, pub events.Publisher, logger *log.Logger) *Publishing {
	if logger == nil {
		logger = log.Default()
	}
	return &Publishing{Archive: inner, Publisher: pub, Logger: logger}
}

func (p *Publishing) Append(ctx context.Context, rec campaign.Record) error {
	if err := p.Archive.Append(ctx, rec); err != nil {
		return err
	}
	ev := CompletedEvent{
		ID:             rec.ID,
		Channel:        rec.Channel,
		Subject:        rec.Subject,
		RecipientCount: rec.RecipientCount,
		TargetStatus:   rec.TargetStatus,
		Timestamp:      rec.Timestamp,
		HasAsset:       rec.AssetURL != "",
	}
	if err := p.Publisher.Publish(ctx, events.TopicCampaignCompleted, ev); err != nil {
		p.Logger.Warn("campaign event not published", "id", rec.ID, "error", err)
	}
	return nil
}

// Close closes the publisher and the wrapped archive.
func (p *Publishing) Close() error {
	p.Publisher.Close()
	return p.Archive.Close()
}
