package services

import (
	"encoding/json"
	"testing"

	"kblog/models"
)

func TestHubBroadcastToUser(t *testing.T) {
	hub := NewHubService(quietLogger())
	alice1 := models.NewClient(nil, 1)
	alice2 := models.NewClient(nil, 1)
	bob := models.NewClient(nil, 2)
	for _, c := range []*models.Client{alice1, alice2, bob} {
		hub.Register(c)
	}

	hub.BroadcastToUser(1, models.EventPostCreated, models.PostResponse{ID: 5, Title: "t", Content: "c"})

	for _, c := range []*models.Client{alice1, alice2} {
		select {
		case raw := <-c.Send:
			var msg struct {
				Type string              `json:"type"`
				Data models.PostResponse `json:"data"`
			}
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if msg.Type != models.EventPostCreated || msg.Data.ID != 5 {
				t.Fatalf("unexpected message: %+v", msg)
			}
		default:
			t.Fatalf("client %s received nothing", c.ID)
		}
	}

	select {
	case raw := <-bob.Send:
		t.Fatalf("bob received another user's event: %s", raw)
	default:
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHubService(quietLogger())
	client := models.NewClient(nil, 1)
	hub.Register(client)
	if hub.ClientCount(1) != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount(1))
	}

	hub.Unregister(client)
	hub.Unregister(client)
	if hub.ClientCount(1) != 0 {
		t.Fatalf("ClientCount = %d, want 0", hub.ClientCount(1))
	}
	if _, ok := <-client.Send; ok {
		t.Fatal("expected send channel to be closed")
	}

	// Broadcasting to a user without clients is a no-op.
	hub.BroadcastToUser(1, models.EventPostDeleted, nil)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHubService(quietLogger())
	client := models.NewClient(nil, 1)
	hub.Register(client)

	for i := 0; i < cap(client.Send)+1; i++ {
		hub.BroadcastToUser(1, models.EventPostUpdated, i)
	}
	if hub.ClientCount(1) != 0 {
		t.Fatal("expected slow client to be dropped")
	}
	if hub.SendTo(client, models.EventClientConnected, nil) {
		t.Fatal("SendTo should fail for a dropped client")
	}
}
