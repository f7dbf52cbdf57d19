// Package events publishes progression events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Type names an event on the wire.
type Type string

const (
	SessionFinalized Type = "session.finalized"
	LevelUp          Type = "level.up"
	TitleUnlocked    Type = "title.unlocked"
	RankUp           Type = "rank.up"
)

// Event is the JSON envelope written to the topic.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Type    Type      `json:"type"`
	UserID  int       `json:"user_id"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// New stamps an event with a fresh id.
func New(t Type, userID int, at time.Time, payload any) Event {
	return Event{ID: uuid.New(), Type: t, UserID: userID, At: at.UTC(), Payload: payload}
}

type SessionFinalizedPayload struct {
	RecordID  uuid.UUID `json:"record_id"`
	Kind      string    `json:"kind"`
	ExpEarned int       `json:"exp_earned"`
	TotalExp  int       `json:"total_exp"`
	Level     int       `json:"level"`
	Streak    int       `json:"streak"`
	PRs       int       `json:"prs"`
}

type LevelUpPayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type TitleUnlockedPayload struct {
	TitleID string `json:"title_id"`
	Name    string `json:"name"`
}

type RankUpPayload struct {
	ExerciseID string `json:"exercise_id"`
	Exercise   string `json:"exercise"`
	Rank       int    `json:"rank"`
	RankName   string `json:"rank_name"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter returns a writer for topic. Messages are hash-partitioned
// by key and acknowledged by all in-sync replicas.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher encodes events as JSON and writes them keyed by user id, so
// one user's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *slog.Logger
}

// NewKafkaPublisher creates a publisher writing through w, which must
// already be bound to topic.
func NewKafkaPublisher(w messageWriter, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, log: log}
}

// Publish writes all events in one batch.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding %s event: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.Itoa(e.UserID)),
			Value: value,
			Time:  e.At,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing %d events to %s: %w", len(msgs), p.topic, err)
	}
	p.log.Debug("events published", "topic", p.topic, "count", len(msgs))
	return nil
}
