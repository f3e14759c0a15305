package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/segmentio/kafka-go"

	"github.com/ghuser/orderflow/pkg/config"
	"github.com/ghuser/orderflow/pkg/logger"
)

// uuidHeader carries the Watermill message UUID across Kafka.
const uuidHeader = "_watermill_message_uuid"

func newKafkaTransport(cfg *config.Config, log logger.Logger) (transport, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return transport{}, fmt.Errorf("events: kafka driver needs at least one broker")
	}
	return transport{
		publisher:  newKafkaPublisher(brokers),
		subscriber: newKafkaSubscriber(brokers, consumerGroup(cfg), log),
		ping: func(ctx context.Context) error {
			conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
			if err != nil {
				return err
			}
			return conn.Close()
		},
	}, nil
}

// kafkaPublisher adapts a kafka-go Writer to message.Publisher.
// The writer has no fixed topic; every record carries its own.
type kafkaPublisher struct {
	writer *kafka.Writer
}

func newKafkaPublisher(brokers []string) *kafkaPublisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *kafkaPublisher) Publish(topic string, msgs ...*message.Message) error {
	records := make([]kafka.Message, 0, len(msgs))
	ctx := context.Background()
	for _, msg := range msgs {
		headers := make([]kafka.Header, 0, len(msg.Metadata)+1)
		headers = append(headers, kafka.Header{Key: uuidHeader, Value: []byte(msg.UUID)})
		for k, v := range msg.Metadata {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		records = append(records, kafka.Message{
			Topic:   topic,
			Key:     []byte(msg.UUID),
			Value:   msg.Payload,
			Headers: headers,
			Time:    time.Now().UTC(),
		})
		ctx = msg.Context()
	}
	return p.writer.WriteMessages(ctx, records...)
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// kafkaSubscriber adapts consumer-group kafka-go Readers to message.Subscriber.
// An offset is committed only after the message is Acked; a Nack hands the
// same record to the consumer again.
type kafkaSubscriber struct {
	brokers []string
	groupID string
	log     logger.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
	closing chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

func newKafkaSubscriber(brokers []string, groupID string, log logger.Logger) *kafkaSubscriber {
	return &kafkaSubscriber{
		brokers: brokers,
		groupID: groupID,
		log:     log,
		closing: make(chan struct{}),
	}
}

func (s *kafkaSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("kafka subscriber closed")
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     s.brokers,
		GroupID:     s.groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
	})
	s.readers = append(s.readers, r)

	out := make(chan *message.Message)
	s.wg.Add(1)
	go s.consume(ctx, r, topic, out)
	return out, nil
}

func (s *kafkaSubscriber) consume(ctx context.Context, r *kafka.Reader, topic string, out chan<- *message.Message) {
	defer s.wg.Done()
	defer close(out)

	for {
		record, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || s.isClosing() {
				return
			}
			s.log.ErrorContext(ctx, "events: kafka fetch failed", "topic", topic, "error", err)
			continue
		}
		if !s.deliver(ctx, r, record, out) {
			return
		}
	}
}

// deliver hands record to the consumer until it is Acked. It returns false
// when the subscriber is shutting down.
func (s *kafkaSubscriber) deliver(ctx context.Context, r *kafka.Reader, record kafka.Message, out chan<- *message.Message) bool {
	for {
		msg := toWatermillMessage(record)
		msg.SetContext(ctx)

		select {
		case out <- msg:
		case <-ctx.Done():
			return false
		case <-s.closing:
			return false
		}

		select {
		case <-msg.Acked():
			if err := r.CommitMessages(ctx, record); err != nil {
				s.log.ErrorContext(ctx, "events: kafka commit failed",
					"topic", record.Topic, "offset", record.Offset, "error", err)
			}
			return true
		case <-msg.Nacked():
			continue
		case <-ctx.Done():
			return false
		case <-s.closing:
			return false
		}
	}
}

func toWatermillMessage(record kafka.Message) *message.Message {
	id := ""
	metadata := make(message.Metadata, len(record.Headers))
	for _, h := range record.Headers {
		if h.Key == uuidHeader {
			id = string(h.Value)
			continue
		}
		metadata.Set(h.Key, string(h.Value))
	}
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, record.Value)
	msg.Metadata = metadata
	return msg
}

func (s *kafkaSubscriber) isClosing() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *kafkaSubscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closing)
	readers := s.readers
	s.mu.Unlock()

	var errs []error
	for _, r := range readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.wg.Wait()
	return errors.Join(errs...)
}
