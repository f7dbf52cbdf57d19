package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestKafkaPublisherEncodesEnvelope verifies events are keyed by user and
// carry the type both in a header and in the JSON body.
func TestKafkaPublisherEncodesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, "ironrank.events", discardLogger())
	at := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(),
		New(LevelUp, 42, at, LevelUpPayload{From: 3, To: 4}),
		New(TitleUnlocked, 42, at, TitleUnlockedPayload{TitleID: "spark", Name: "Spark"}),
	)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("wrote %d messages, want 2", len(w.msgs))
	}

	m := w.msgs[0]
	if string(m.Key) != "42" {
		t.Errorf("key = %q, want 42", m.Key)
	}
	if len(m.Headers) != 1 || string(m.Headers[0].Value) != string(LevelUp) {
		t.Errorf("headers = %+v", m.Headers)
	}

	var body struct {
		Type    Type           `json:"type"`
		UserID  int            `json:"user_id"`
		Payload LevelUpPayload `json:"payload"`
	}
	if err := json.Unmarshal(m.Value, &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Type != LevelUp || body.UserID != 42 || body.Payload.To != 4 {
		t.Errorf("body = %+v", body)
	}
}

// TestKafkaPublisherWrapsErrors verifies writer failures surface to the caller.
func TestKafkaPublisherWrapsErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisher(&fakeWriter{err: boom}, "t", discardLogger())
	err := p.Publish(context.Background(), New(SessionFinalized, 1, time.Now(), nil))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapping %v", err, boom)
	}
}

// TestKafkaPublisherEmpty verifies nothing is written for an empty batch.
func TestKafkaPublisherEmpty(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	if err := NewKafkaPublisher(w, "t", discardLogger()).Publish(context.Background()); err != nil {
		t.Errorf("Publish() = %v, want nil", err)
	}
}

// TestNewKafkaWriter verifies the writer is bound to the topic and partitions
// by key, so one user's events stay ordered.
func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"kafka-1:9092", "kafka-2:9092"}, "ironrank.events")
	defer w.Close()

	if w.Topic != "ironrank.events" {
		t.Errorf("topic = %q", w.Topic)
	}
	if _, ok := w.Balancer.(*kafka.Hash); !ok {
		t.Errorf("balancer = %T, want *kafka.Hash", w.Balancer)
	}
	if w.RequiredAcks != kafka.RequireAll {
		t.Errorf("required acks = %v, want all", w.RequiredAcks)
	}
}
