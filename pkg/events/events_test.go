package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	if err := r.Publish(context.Background(), TopicCampaignCompleted, map[string]int{"recipients": 3}); err != nil {
		t.Fatal(err)
	}
	msgs := r.Messages()
	if len(msgs) != 1 || msgs[0].Topic != TopicCampaignCompleted {
		t.Fatalf("messages = %+v", msgs)
	}
	var got map[string]int
	json.Unmarshal(msgs[0].Payload, &got)
	if got["recipients"] != 3 {
		t.Errorf("payload = %s", msgs[0].Payload)
	}

	r.Err = errors.New(errors.ErrCodeNetwork, "down")
	if err := r.Publish(context.Background(), TopicDispatchStep, nil); err == nil {
		t.Error("expected error")
	}
}

func TestDialAMQPEmptyURL(t *testing.T) {
	if _, err := DialAMQP(""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestAMQPPublisher(t *testing.T) {
	url := os.Getenv("CAMPAIGNKIT_TEST_AMQP_URL")
	if url == "" {
		t.Skip("CAMPAIGNKIT_TEST_AMQP_URL not set")
	}
	p, err := DialAMQP(url)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Publish(context.Background(), "campaignkit.test", map[string]string{"ok": "yes"}); err != nil {
		t.Fatal(err)
	}
}
