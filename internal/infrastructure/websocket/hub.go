// Package websocket pushes file-system-state change events to connected
// build-dashboard clients over a long-lived socket per module.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "github.com/cocursor/backend/internal/infrastructure/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Connection is one subscriber's socket, scoped to a single module.
type Connection struct {
	Module string
	conn   *websocket.Conn
	send   chan []byte
}

// Message is a single broadcast addressed to a module's subscribers.
type Message struct {
	Module string
	Data   []byte
}

// Hub fans FSS change events out to every connection subscribed to the
// affected module.
type Hub struct {
	modules    map[string]map[*Connection]bool
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message
	mu         sync.RWMutex
}

// NewHub creates an idle Hub; call Start to run its dispatch loop.
func NewHub() *Hub {
	return &Hub{
		modules:    make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 64),
	}
}

// Run dispatches register/unregister/broadcast events. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.modules[conn.Module] == nil {
				h.modules[conn.Module] = make(map[*Connection]bool)
			}
			h.modules[conn.Module][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.modules[conn.Module]; ok {
				if _, ok := subs[conn]; ok {
					delete(subs, conn)
					close(conn.send)
					if len(subs) == 0 {
						delete(h.modules, conn.Module)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if subs, ok := h.modules[msg.Module]; ok {
				for conn := range subs {
					select {
					case conn.send <- msg.Data:
					default:
						close(conn.send)
						delete(subs, conn)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Start runs the Hub's dispatch loop in a background goroutine.
func (h *Hub) Start() {
	go h.Run()
}

// ChangeEvent is the payload pushed for every dirty, deleted, scanned and
// up-to-date change.
type ChangeEvent struct {
	Module string    `json:"module"`
	Kind   string    `json:"kind"`
	File   string    `json:"file,omitempty"`
	Time   time.Time `json:"time"`
}

// BroadcastChange pushes a change event to every client watching moduleName.
func (h *Hub) BroadcastChange(moduleName string, event ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.broadcast <- &Message{Module: moduleName, Data: data}
	return nil
}

// ServeWS upgrades the request to a websocket and subscribes it to
// moduleName's change events until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, moduleName string) error {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	conn := &Connection{
		Module: moduleName,
		conn:   wsConn,
		send:   make(chan []byte, 16),
	}

	h.register <- conn
	go h.writePump(conn)
	go h.readPump(conn)
	return nil
}

func (h *Hub) readPump(conn *Connection) {
	defer func() {
		h.unregister <- conn
		conn.conn.Close()
	}()

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *Connection) {
	logger := applog.NewModuleLogger("websocket", "hub")
	defer conn.conn.Close()

	for data := range conn.send {
		if err := conn.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debug("write to subscriber failed, dropping connection", "module", conn.Module, "error", err)
			return
		}
	}
}
