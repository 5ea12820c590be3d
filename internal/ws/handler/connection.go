package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/event"
	"go-gamehall/internal/lib/logger/sl"
)

type Subscription struct {
	Conn    *websocket.Conn
	Channel string
}

// Hub fans event messages out to websocket subscribers by channel name.
// Channels mirror the pusher topics (wheel, user-{uuid}).
type Hub struct {
	Channels    map[string]map[*websocket.Conn]bool
	Broadcast   chan event.Message
	Subscribe   chan Subscription
	Unsubscribe chan *websocket.Conn
	mutex       sync.RWMutex
	log         *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		Channels:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:   make(chan event.Message, 64),
		Subscribe:   make(chan Subscription),
		Unsubscribe: make(chan *websocket.Conn),
		log:         log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (hub *Hub) run() {
	for {
		select {
		case sub := <-hub.Subscribe:
			hub.mutex.Lock()
			if hub.Channels[sub.Channel] == nil {
				hub.Channels[sub.Channel] = make(map[*websocket.Conn]bool)
			}
			hub.Channels[sub.Channel][sub.Conn] = true
			hub.mutex.Unlock()
		case conn := <-hub.Unsubscribe:
			hub.mutex.Lock()
			for _, receivers := range hub.Channels {
				delete(receivers, conn)
			}
			hub.mutex.Unlock()
		case message := <-hub.Broadcast:
			hub.mutex.RLock()
			receivers, ok := hub.Channels[message.Channel]
			hub.mutex.RUnlock()

			if !ok {
				continue
			}

			data, err := json.Marshal(message)
			if err != nil {
				hub.log.Error("failed to marshal message", sl.Err(err))

				continue
			}

			hub.log.Debug("broadcasting message",
				sl.String("channel", message.Channel),
				sl.String("event", message.Event))

			for conn := range receivers {
				if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
					hub.log.Error("failed to write message", sl.Err(err))
				}
			}
		}
	}
}

// TriggerEvent lets the hub stand in for the pusher client behind
// event.Trigger when running without the hosted service.
func (hub *Hub) TriggerEvent(message event.Message) error {
	hub.Broadcast <- message

	return nil
}

type clientCommand struct {
	Subscribe string `json:"subscribe"`
}

// HandleConnection upgrades the request and reads subscribe commands
// until the peer goes away. Clients only subscribe; all publishing
// happens server-side.
func (hub *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("failed to upgrade connection", sl.Err(err))

		return
	}

	defer func() {
		hub.Unsubscribe <- ws

		if err = ws.Close(); err != nil {
			hub.log.Error("failed to close connection", sl.Err(err))
		}
	}()

	for {
		_, p, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var cmd clientCommand

		if err = json.Unmarshal(p, &cmd); err != nil {
			hub.log.Error("failed to unmarshal message", sl.Err(err))

			continue
		}

		if cmd.Subscribe == "" {
			continue
		}

		hub.Subscribe <- Subscription{Conn: ws, Channel: cmd.Subscribe}
	}
}

func (hub *Hub) RunServer() {
	go hub.run()
}
