// Package kafka streams request log entries to a Kafka topic as JSON,
// keyed by domain so entries for one domain stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"domainwatch/internal/requestlog"
)

// DefaultTopic receives entries when no topic is configured.
const DefaultTopic = "domainwatch.request-log"

// Store produces entries synchronously so Append reports broker failures.
type Store struct {
	client *kgo.Client
	topic  string
}

// New wraps an existing franz-go client. The caller owns the client.
func New(client *kgo.Client, topic string) *Store {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Store{client: client, topic: topic}
}

// NewClient dials the seed brokers with settings suited to this sink.
func NewClient(brokers []string) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return cl, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, topic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}

// message is the JSON payload of one record.
type message struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Domain    string `json:"domain"`
	Method    string `json:"method"`
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Client    string `json:"client,omitempty"`
}

func (s *Store) Append(ctx context.Context, entry requestlog.Entry) error {
	payload, err := json.Marshal(message{
		ID:        entry.ID.String(),
		Timestamp: entry.Timestamp.UTC().Format(time.RFC3339Nano),
		Domain:    entry.Domain,
		Method:    entry.Method,
		Status:    string(entry.Status),
		RequestID: entry.RequestID,
		ClientIP:  entry.ClientIP,
		UserAgent: entry.UserAgent,
		Client:    entry.Client,
	})
	if err != nil {
		return fmt.Errorf("marshal request log entry: %w", err)
	}
	record := &kgo.Record{
		Topic:     s.topic,
		Key:       []byte(entry.Domain),
		Value:     payload,
		Timestamp: entry.Timestamp,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce request log entry: %w", err)
	}
	return nil
}

// Decode parses a record value produced by Append.
func Decode(value []byte) (requestlog.Entry, error) {
	var m message
	if err := json.Unmarshal(value, &m); err != nil {
		return requestlog.Entry{}, fmt.Errorf("decode request log entry: %w", err)
	}
	entry := requestlog.Entry{
		Domain:    m.Domain,
		Method:    m.Method,
		Status:    requestlog.Status(m.Status),
		RequestID: m.RequestID,
		ClientIP:  m.ClientIP,
		UserAgent: m.UserAgent,
		Client:    m.Client,
	}
	if err := entry.ID.UnmarshalText([]byte(m.ID)); err != nil {
		return requestlog.Entry{}, fmt.Errorf("decode request log id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return requestlog.Entry{}, fmt.Errorf("decode request log timestamp: %w", err)
	}
	entry.Timestamp = ts
	return entry, nil
}
