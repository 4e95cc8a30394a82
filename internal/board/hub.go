package board

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"CandleWatch/internal/model"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// MessageSelect is the client message that switches the pair/timeframe.
const MessageSelect = "select"

// ClientMessage is a message sent by a viewer.
type ClientMessage struct {
	Type      string          `json:"type"`
	Pair      model.PairKey   `json:"pair"`
	Timeframe model.Timeframe `json:"timeframe"`
}

// SelectFunc handles a selection requested over the websocket.
type SelectFunc func(sel model.Selection) error

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes board events to connected websocket viewers.
type Hub struct {
	board    *Board
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	clients     map[string]*client
	closed      bool
	unsubscribe func()
}

// NewHub creates a hub streaming b. Browsers may connect from the serving origin
// and from allowedOrigins (scheme://host[:port]); every other origin is refused.
func NewHub(b *Board, log *zap.Logger, allowedOrigins ...string) *Hub {
	h := &Hub{
		board:   b,
		log:     log,
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = originChecker(allowedOrigins)
	}
	h.unsubscribe = b.Subscribe(h.broadcast)
	return h
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request and streams the board until the viewer disconnects.
// The first message is a snapshot of the whole board. Select messages go to onSelect.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, onSelect SelectFunc) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}

	var registered bool
	h.board.SnapshotEvent(func(ev Event) {
		data, err := sonic.Marshal(ev)
		if err != nil {
			h.log.Error("encode snapshot", zap.Error(err))
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed {
			return
		}
		c.send <- data
		h.clients[c.id] = c
		registered = true
	})
	if !registered {
		conn.Close()
		return errors.New("viewer not registered")
	}

	log := h.log.With(zap.String("client", c.id))
	log.Info("viewer connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(c)
	h.readPump(c, onSelect, log)

	h.remove(c)
	log.Info("viewer disconnected")
	return nil
}

// Close disconnects every viewer and stops listening to the board.
func (h *Hub) Close() {
	h.unsubscribe()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

func (h *Hub) broadcast(ev Event) {
	data, err := sonic.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- data:
		default:
			// too slow to keep up; it reconnects and gets a fresh snapshot
			h.log.Warn("dropping slow viewer", zap.String("client", id))
			close(c.send)
			delete(h.clients, id)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		close(c.send)
		delete(h.clients, c.id)
	}
}

// reply sends ev to one viewer only.
func (h *Hub) reply(c *client, ev Event) {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) readPump(c *client, onSelect SelectFunc, log *zap.Logger) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("viewer read failed", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			log.Debug("ignoring malformed message", zap.Error(err))
			continue
		}
		if msg.Type != MessageSelect || onSelect == nil {
			continue
		}
		sel := model.Selection{Pair: msg.Pair, Timeframe: msg.Timeframe}
		if err := onSelect(sel); err != nil {
			log.Warn("selection rejected", zap.Stringer("selection", sel), zap.Error(err))
			h.reply(c, Event{Type: EventError, Message: err.Error()})
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// originChecker accepts requests without an Origin header, same-origin requests and
// the listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimRight(a, "/"), origin) {
				return true
			}
		}
		return false
	}
}
