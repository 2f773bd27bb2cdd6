package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

func TestExtractReplayMessageConsumerFormat(t *testing.T) {
	payload, err := json.Marshal(consumerDLQPayload{
		OriginalTopic: "shop.order.events",
		OriginalKey:   "42",
		OriginalValue: `{"event_type":"order.created"}`,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	msg, ok := extractReplayMessage(&sarama.ConsumerMessage{Value: payload}, "fallback.topic")
	if !ok {
		t.Fatal("expected message to be extractable")
	}
	if msg.topic != "shop.order.events" || msg.key != "42" {
		t.Fatalf("replay message = %+v", msg)
	}
	if string(msg.value) != `{"event_type":"order.created"}` {
		t.Fatalf("replay value = %s", msg.value)
	}
}

func TestExtractReplayMessageOutboxFormat(t *testing.T) {
	raw := []byte(`{
		"id": "dlq-1",
		"aggregate_type": "order",
		"aggregate_id": "7",
		"event_type": "cart.checked_out",
		"payload": {
			"outbox_id": "ob-1",
			"aggregate_type": "order",
			"aggregate_id": "7",
			"event_type": "cart.checked_out",
			"payload": {"order_id": 7}
		}
	}`)

	msg, ok := extractReplayMessage(&sarama.ConsumerMessage{Value: raw}, "shop.order.events")
	if !ok {
		t.Fatal("expected message to be extractable")
	}
	if msg.topic != "shop.order.events" || msg.key != "7" {
		t.Fatalf("replay message = %+v", msg)
	}

	var envelope replayEnvelope
	if err := json.Unmarshal(msg.value, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.ID != "ob-1" || envelope.EventType != "cart.checked_out" {
		t.Fatalf("envelope = %+v", envelope)
	}
}

func TestExtractReplayMessageUnsupported(t *testing.T) {
	for _, value := range []string{"not json", "{}", `{"payload":{}}`} {
		if _, ok := extractReplayMessage(&sarama.ConsumerMessage{Value: []byte(value)}, "t"); ok {
			t.Errorf("value %q should not be extractable", value)
		}
	}
}

type fakeOffsetClient struct {
	partitions []int32
	oldest     int64
	newest     int64
}

func (f *fakeOffsetClient) GetOffset(_ string, _ int32, at int64) (int64, error) {
	if at == sarama.OffsetOldest {
		return f.oldest, nil
	}
	return f.newest, nil
}

func (f *fakeOffsetClient) Partitions(string) ([]int32, error) { return f.partitions, nil }
func (f *fakeOffsetClient) Close() error                       { return nil }

type fakePartitionConsumer struct {
	messages chan *sarama.ConsumerMessage
	errors   chan *sarama.ConsumerError
}

func (f *fakePartitionConsumer) Messages() <-chan *sarama.ConsumerMessage { return f.messages }
func (f *fakePartitionConsumer) Errors() <-chan *sarama.ConsumerError    { return f.errors }
func (f *fakePartitionConsumer) Close() error                            { return nil }

type fakeConsumerSource struct {
	pc *fakePartitionConsumer
}

func (f *fakeConsumerSource) ConsumePartition(string, int32, int64) (partitionConsumer, error) {
	return f.pc, nil
}
func (f *fakeConsumerSource) Close() error { return nil }

type fakeReplayProducer struct {
	sent    []*sarama.ProducerMessage
	sendErr error
}

func (f *fakeReplayProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if f.sendErr != nil {
		return 0, 0, f.sendErr
	}
	f.sent = append(f.sent, msg)
	return 0, int64(len(f.sent)), nil
}
func (f *fakeReplayProducer) Close() error { return nil }

func dlqMessage(t *testing.T, offset int64) *sarama.ConsumerMessage {
	t.Helper()
	payload, err := json.Marshal(consumerDLQPayload{
		OriginalTopic: "shop.order.events",
		OriginalKey:   fmt.Sprintf("key-%d", offset),
		OriginalValue: `{"event_type":"order.created"}`,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "shop.dlq", Offset: offset, Value: payload}
}

func TestRunReplayExecuteMode(t *testing.T) {
	pc := &fakePartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage, 3),
		errors:   make(chan *sarama.ConsumerError, 1),
	}
	pc.messages <- dlqMessage(t, 0)
	pc.messages <- &sarama.ConsumerMessage{Topic: "shop.dlq", Offset: 1, Value: []byte("garbage")}
	pc.messages <- dlqMessage(t, 2)

	producer := &fakeReplayProducer{}
	cfg := config{
		brokers:     []string{"localhost:9092"},
		sourceTopic: "shop.dlq",
		targetTopic: "shop.order.events",
		limit:       10,
		execute:     true,
		idleTimeout: 100 * time.Millisecond,
	}

	client := &fakeOffsetClient{partitions: []int32{0}, oldest: 0, newest: 3}
	if err := runReplay(context.Background(), cfg, client, &fakeConsumerSource{pc: pc}, producer); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}

	if len(producer.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(producer.sent))
	}
	if producer.sent[0].Topic != "shop.order.events" {
		t.Fatalf("replayed to topic %s", producer.sent[0].Topic)
	}
}

func TestRunReplayDryRunDoesNotPublish(t *testing.T) {
	pc := &fakePartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage, 1),
		errors:   make(chan *sarama.ConsumerError, 1),
	}
	pc.messages <- dlqMessage(t, 0)

	cfg := config{
		brokers:     []string{"localhost:9092"},
		sourceTopic: "shop.dlq",
		targetTopic: "shop.order.events",
		limit:       10,
		execute:     false,
		idleTimeout: 100 * time.Millisecond,
	}

	client := &fakeOffsetClient{partitions: []int32{0}, oldest: 0, newest: 1}
	if err := runReplay(context.Background(), cfg, client, &fakeConsumerSource{pc: pc}, nil); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}
}

func TestRunReplayExecuteRequiresProducer(t *testing.T) {
	cfg := config{
		sourceTopic: "shop.dlq",
		targetTopic: "shop.order.events",
		limit:       1,
		execute:     true,
		idleTimeout: time.Second,
	}
	client := &fakeOffsetClient{partitions: []int32{0}}
	err := runReplay(context.Background(), cfg, client, &fakeConsumerSource{pc: nil}, nil)
	if err == nil {
		t.Fatal("expected error without producer in execute mode")
	}
}

func TestRunReplayPublishErrorStops(t *testing.T) {
	pc := &fakePartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage, 1),
		errors:   make(chan *sarama.ConsumerError, 1),
	}
	pc.messages <- dlqMessage(t, 0)

	producer := &fakeReplayProducer{sendErr: errors.New("broker down")}
	cfg := config{
		brokers:     []string{"localhost:9092"},
		sourceTopic: "shop.dlq",
		targetTopic: "shop.order.events",
		limit:       10,
		execute:     true,
		idleTimeout: 100 * time.Millisecond,
	}

	client := &fakeOffsetClient{partitions: []int32{0}, oldest: 0, newest: 1}
	err := runReplay(context.Background(), cfg, client, &fakeConsumerSource{pc: pc}, producer)
	if err == nil {
		t.Fatal("expected publish error to propagate")
	}
}
