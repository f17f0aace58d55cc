package live

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestNotifyReachesOnlyOwner(t *testing.T) {
	svc := NewService(zerolog.Nop(), "UTC")
	owner := uuid.New()
	other := uuid.New()
	ownerClient := svc.RegisterClient(nil, owner)
	otherClient := svc.RegisterClient(nil, other)

	svc.Notify(owner, map[string]any{"type": "level_up", "new_level": 5})

	select {
	case msg := <-ownerClient.Send:
		var payload map[string]any
		if err := json.Unmarshal(msg, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload["type"] != "level_up" {
			t.Fatalf("expected level_up, got %v", payload["type"])
		}
	default:
		t.Fatal("owner did not receive the notification")
	}

	select {
	case <-otherClient.Send:
		t.Fatal("other user received a notification meant for the owner")
	default:
	}
}

func TestNotifyFanOutToAllConnections(t *testing.T) {
	svc := NewService(zerolog.Nop(), "UTC")
	owner := uuid.New()
	first := svc.RegisterClient(nil, owner)
	second := svc.RegisterClient(nil, owner)

	svc.Notify(owner, map[string]any{"type": "quest_completed"})

	for i, c := range []*Client{first, second} {
		select {
		case <-c.Send:
		default:
			t.Fatalf("connection %d did not receive the notification", i)
		}
	}
}

func TestRolloverBroadcast(t *testing.T) {
	svc := NewService(zerolog.Nop(), "UTC")
	client := svc.RegisterClient(nil, uuid.New())

	// Same date: silent.
	svc.checkRollover(time.Now())
	select {
	case <-client.Send:
		t.Fatal("rollover broadcast fired without a date change")
	default:
	}

	// Next day: every client hears about it.
	svc.checkRollover(time.Now().AddDate(0, 0, 1))
	select {
	case msg := <-client.Send:
		var payload map[string]any
		if err := json.Unmarshal(msg, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload["type"] != "quests_rollover" {
			t.Fatalf("expected quests_rollover, got %v", payload["type"])
		}
	default:
		t.Fatal("rollover broadcast missing after date change")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	svc := NewService(zerolog.Nop(), "UTC")
	client := svc.RegisterClient(nil, uuid.New())
	svc.UnregisterClient(client)

	if _, ok := <-client.Send; ok {
		t.Fatal("expected send channel to be closed after unregister")
	}
	// A second unregister must be a no-op, not a double close.
	svc.UnregisterClient(client)
}
