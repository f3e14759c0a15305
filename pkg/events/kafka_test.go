package events

import (
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/ghuser/orderflow/pkg/config"
)

func kafkaRecord(id string, headers map[string]string) kafka.Message {
	record := kafka.Message{Topic: "product.created", Value: []byte(`{}`)}
	if id != "" {
		record.Headers = append(record.Headers, kafka.Header{Key: uuidHeader, Value: []byte(id)})
	}
	for k, v := range headers {
		record.Headers = append(record.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return record
}

func TestToWatermillMessage_GeneratesUUIDWhenMissing(t *testing.T) {
	msg := toWatermillMessage(kafkaRecord("", nil))
	if msg.UUID == "" {
		t.Fatal("expected generated uuid")
	}
	if string(msg.Payload) != `{}` {
		t.Errorf("payload: got %s", msg.Payload)
	}
}

func TestKafkaSubscriber_CloseTwice(t *testing.T) {
	sub := newKafkaSubscriber([]string{"localhost:9092"}, "svc-consumer", nopLogger())
	if err := sub.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := sub.Subscribe(t.Context(), "product.created"); err == nil {
		t.Fatal("expected subscribe on closed subscriber to fail")
	}
}

func TestConsumerGroup_PerService(t *testing.T) {
	got := consumerGroup(&config.Config{ServiceName: "order-service"})
	if got != "order-service-consumer" {
		t.Errorf("got %q", got)
	}
}
