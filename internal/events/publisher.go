// Package events publishes journal lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/worklog/internal/domain"
	"example.com/worklog/internal/observability"
)

// TopicEntryPublished carries one record per explicitly saved entry.
const TopicEntryPublished = "journal.entry.published"

// EntryPublished is the wire payload for TopicEntryPublished.
type EntryPublished struct {
	EntryID     string    `json:"entry_id"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	Format      string    `json:"format"`
	SourceCount int       `json:"source_count"`
	SavedAt     time.Time `json:"saved_at"`
}

// Publisher lazily manages kafka writers per topic.
type Publisher struct {
	brokers []string
	logger  *log.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewPublisher creates a Publisher.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		brokers: brokers,
		logger:  log.New(log.Writer(), "[events] ", log.LstdFlags),
		writers: make(map[string]*kafka.Writer),
	}
}

// PublishEntry emits a journal.entry.published record for a saved entry.
// The partition key groups a user's entries onto one partition.
func (p *Publisher) PublishEntry(ctx context.Context, entry domain.SavedEntry) error {
	payload := EntryPublished{
		EntryID:     entry.ID,
		TenantID:    entry.TenantID,
		UserID:      entry.UserID,
		Format:      entry.Entry.EntryMetadata.Format,
		SourceCount: len(entry.Entry.Context.Sources),
		SavedAt:     entry.SavedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(entry.TenantID + ":" + entry.UserID),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TopicEntryPublished)},
			{Key: "content_type", Value: []byte("application/json")},
		},
	}

	if err := p.writeMessages(ctx, TopicEntryPublished, msg); err != nil {
		recordPublishFailure(TopicEntryPublished)
		return err
	}
	recordPublished(TopicEntryPublished)
	observability.RecordEntryPublished(entry.SavedAt)
	p.logger.Printf("published %s for entry %s", TopicEntryPublished, entry.ID)
	return nil
}

func (p *Publisher) writeMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	writer := p.writerForTopic(topic)
	return writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
