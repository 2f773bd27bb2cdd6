package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

func TestConsumer_GetRetryCount(t *testing.T) {
	consumer := &Consumer{logger: log.WithField("component", "kafka-consumer-test")}

	message := &sarama.ConsumerMessage{
		Headers: []*sarama.RecordHeader{
			{Key: []byte(HeaderRetryCount), Value: []byte("2")},
		},
	}
	if got := consumer.getRetryCount(message); got != 2 {
		t.Fatalf("expected retry count 2, got %d", got)
	}

	if got := consumer.getRetryCount(&sarama.ConsumerMessage{}); got != 0 {
		t.Fatalf("expected retry count 0 without header, got %d", got)
	}

	malformed := &sarama.ConsumerMessage{
		Headers: []*sarama.RecordHeader{
			{Key: []byte(HeaderRetryCount), Value: []byte("oops")},
		},
	}
	if got := consumer.getRetryCount(malformed); got != 0 {
		t.Fatalf("expected retry count 0 for malformed header, got %d", got)
	}
}

func TestConsumer_HandleMessageWithRetry(t *testing.T) {
	handlerErr := errors.New("handler failed")

	tests := []struct {
		name       string
		handlerErr error
		retryCount string
		wantErr    bool
	}{
		{"success", nil, "0", false},
		{"failure below retry limit", handlerErr, "0", true},
		{"failure at retry limit without dlq", handlerErr, "3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := &Consumer{
				logger:     log.WithField("component", "kafka-consumer-test"),
				maxRetries: 3,
				handler: func(context.Context, *sarama.ConsumerMessage) error {
					return tt.handlerErr
				},
			}

			message := &sarama.ConsumerMessage{
				Topic: TopicOrderEvents,
				Headers: []*sarama.RecordHeader{
					{Key: []byte(HeaderRetryCount), Value: []byte(tt.retryCount)},
				},
			}

			err := consumer.handleMessageWithRetry(context.Background(), message)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestParseOrderEvent(t *testing.T) {
	event := NewOrderEvent(EventTypeCartCheckedOut, 42, 7, "ORDERED", 3000)
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	parsed, err := ParseOrderEvent(&sarama.ConsumerMessage{Value: value})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.OrderID != 42 || parsed.EventType != EventTypeCartCheckedOut {
		t.Fatalf("unexpected event: %+v", parsed)
	}

	if _, err := ParseOrderEvent(&sarama.ConsumerMessage{Value: []byte("not-json")}); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
