package services

import (
	"encoding/json"
	"sync"

	"kblog/models"

	"github.com/sirupsen/logrus"
)

// HubService tracks open websocket clients per user and fans post events
// out to them. A client whose send buffer is full is dropped.
type HubService struct {
	mu      sync.Mutex
	clients map[uint]map[*models.Client]struct{}
	log     *logrus.Logger
}

func NewHubService(log *logrus.Logger) *HubService {
	return &HubService{
		clients: make(map[uint]map[*models.Client]struct{}),
		log:     log,
	}
}

func (h *HubService) Register(client *models.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*models.Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}
	h.log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": client.UserID}).Debug("websocket client registered")
}

// Unregister removes client and closes its send channel. It is safe to call
// more than once.
func (h *HubService) Unregister(client *models.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *HubService) removeLocked(client *models.Client) {
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
	h.log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": client.UserID}).Debug("websocket client unregistered")
}

func (h *HubService) ClientCount(userID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (h *HubService) BroadcastToUser(userID uint, messageType string, data interface{}) {
	messageBytes, err := json.Marshal(models.WSMessage{Type: messageType, Data: data})
	if err != nil {
		h.log.WithError(err).Error("marshal websocket message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[userID] {
		select {
		case client.Send <- messageBytes:
		default:
			h.log.WithField("client_id", client.ID).Warn("websocket client too slow, dropping")
			h.removeLocked(client)
		}
	}
}

// SendTo queues a message for a single client.
func (h *HubService) SendTo(client *models.Client, messageType string, data interface{}) bool {
	messageBytes, err := json.Marshal(models.WSMessage{Type: messageType, Data: data})
	if err != nil {
		h.log.WithError(err).Error("marshal websocket message")
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.UserID][client]; !ok {
		return false
	}
	select {
	case client.Send <- messageBytes:
		return true
	default:
		h.removeLocked(client)
		return false
	}
}
