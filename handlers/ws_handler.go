package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"kblog/middleware"
	"kblog/models"
	"kblog/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type WebSocketHandler struct {
	hubService *services.HubService
	upgrader   websocket.Upgrader
	log        *logrus.Logger
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; an empty list
// accepts any origin.
func NewWebSocketHandler(hubService *services.HubService, allowedOrigins []string, log *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hubService: hubService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == origin {
						return true
					}
				}
				return false
			},
		},
		log: log,
	}
}

// HandleWebSocket godoc
// @Summary Subscribe to post events
// @Description Streams post_created, post_updated and post_deleted events for the caller's posts
// @Tags posts
// @Security BearerAuth
// @Param token query string false "Access token when headers cannot be set"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} controllers.ErrorResponse
// @Router /ws [get]
func (wh *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	conn, err := wh.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wh.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := models.NewClient(conn, userID)
	wh.hubService.Register(client)

	go wh.writePump(client)
	go wh.readPump(client)
}

func (wh *WebSocketHandler) readPump(client *models.Client) {
	defer func() {
		wh.hubService.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				wh.log.WithError(err).WithField("client_id", client.ID).Warn("unexpected websocket close")
			}
			return
		}

		var wsMessage models.WSMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			wh.log.WithError(err).WithField("client_id", client.ID).Debug("bad websocket message")
			continue
		}

		switch wsMessage.Type {
		case models.EventClientConnect:
			if !wh.hubService.SendTo(client, models.EventClientConnected, map[string]string{"client_id": client.ID}) {
				return
			}
		default:
			wh.log.WithFields(logrus.Fields{"client_id": client.ID, "type": wsMessage.Type}).Debug("unknown websocket message type")
		}
	}
}

func (wh *WebSocketHandler) writePump(client *models.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				wh.log.WithError(err).WithField("client_id", client.ID).Debug("websocket write failed")
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
