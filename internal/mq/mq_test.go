package mq

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
)

// --- Message Tests ---

func TestStoreEventMessage_RoundTrip(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := &domain.Event{
		ID:        42,
		TaskID:    "store-1a2b3c4d",
		Type:      domain.EventProvisioningComplete,
		Message:   "Store is ready!",
		Severity:  domain.SeveritySuccess,
		CreatedAt: created,
	}

	msg := NewMessage(MessageTypeStoreEvent, NewStoreEventPayload(ev))
	if msg.ID == "" {
		t.Fatal("message id should be generated")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != MessageTypeStoreEvent {
		t.Errorf("Type = %s", decoded.Type)
	}

	payload, err := ParsePayload[StoreEventPayload](&decoded)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if payload.StoreID != ev.TaskID || payload.EventID != 42 {
		t.Errorf("payload = %+v", payload)
	}
	if payload.EventType != domain.EventProvisioningComplete || payload.Severity != "success" {
		t.Errorf("payload = %+v", payload)
	}
	if !payload.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", payload.CreatedAt, created)
	}
}

func TestParsePayload_TypeMismatch(t *testing.T) {
	msg := &Message{Payload: "not an object"}
	if _, err := ParsePayload[StoreEventPayload](msg); err == nil {
		t.Error("expected error for non-object payload")
	}
}

// --- Topology Tests ---

func TestEventRoutingKey(t *testing.T) {
	if got := EventRoutingKey("warning"); got != "store.warning" {
		t.Errorf("EventRoutingKey = %q", got)
	}
	if !strings.HasPrefix(string(EventRoutingKey("error")), strings.TrimSuffix(string(RoutingKeyStoreEvents), "#")) {
		t.Error("event routing keys must match the audit binding")
	}
}

func TestTopologyInfo(t *testing.T) {
	info := TopologyInfo()
	for _, name := range []string{string(ExchangeEvents), string(QueueEventsAudit), string(QueueDLQEvents)} {
		if !strings.Contains(info, name) {
			t.Errorf("topology info missing %s", name)
		}
	}
}
