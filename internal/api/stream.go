package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Product event types sent on the websocket feed.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// recentEvents is how many past events a newly connected client receives.
const recentEvents = 20

// ProductEvent describes a product mutation.
type ProductEvent struct {
	Type      string      `json:"type"`
	ProductID string      `json:"product_id"`
	Product   *ProductDTO `json:"product,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// ProductNotifier keeps track of connected websocket clients and fans out
// product events. New clients first receive the most recent events.
type ProductNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	recent  []ProductEvent
}

// NewProductNotifier constructs a notifier instance.
func NewProductNotifier() *ProductNotifier {
	return &ProductNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays recent events to it.
func (n *ProductNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	backlog := append([]ProductEvent(nil), n.recent...)
	n.mu.Unlock()

	for _, event := range backlog {
		if err := client.writeJSON(event); err != nil {
			break
		}
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *ProductNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	client.close()
}

// Broadcast sends the event to all registered clients, dropping those that
// fail to receive it. Writes happen outside n.mu so a slow client does not
// block registration or other broadcasts.
func (n *ProductNotifier) Broadcast(event ProductEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	n.recent = append(n.recent, event)
	if len(n.recent) > recentEvents {
		n.recent = n.recent[len(n.recent)-recentEvents:]
	}
	clients := make([]*wsClient, 0, len(n.clients))
	for client := range n.clients {
		clients = append(clients, client)
	}
	n.mu.Unlock()

	var failed []*wsClient
	for _, client := range clients {
		if err := client.writeJSON(event); err != nil {
			failed = append(failed, client)
		}
	}
	if len(failed) == 0 {
		return
	}
	n.mu.Lock()
	for _, client := range failed {
		delete(n.clients, client)
	}
	n.mu.Unlock()
	for _, client := range failed {
		client.close()
	}
}

// Recent returns a copy of the replay buffer.
func (n *ProductNotifier) Recent() []ProductEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ProductEvent(nil), n.recent...)
}

// Clients returns the number of connected clients.
func (n *ProductNotifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

func (c *wsClient) writeJSON(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

func (c *wsClient) close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (s *Server) handleProductStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 || containsWildcard(s.allowedOrigins) {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				return true
			}
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithFields(logrus.Fields{
		"remote":  conn.RemoteAddr().String(),
		"clients": s.notifier.Clients(),
	}).Info("product websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("product websocket closed")
			} else {
				logrus.WithError(err).Warn("product websocket unexpected close")
			}
			break
		}
	}
}
