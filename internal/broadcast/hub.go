package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TimelordUK/sigview/internal/playback"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // browser charts are served from anywhere on localhost
	},
}

// Hub mirrors playback snapshots to websocket clients as JSON.
// Publish never blocks; the hub keeps only the newest pending snapshot.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	input      chan playback.Snapshot
	done       chan struct{}
	last       []byte
	count      atomic.Int32
	logger     *slog.Logger
}

// NewHub creates a hub; call Run to start it
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		input:      make(chan playback.Snapshot, 1),
		done:       make(chan struct{}),
		logger:     logger.With("component", "broadcast"),
	}
}

// Publish queues snap for every client, replacing an unsent older snapshot.
// It reports whether snap was queued.
func (h *Hub) Publish(snap playback.Snapshot) bool {
	select {
	case h.input <- snap:
		return true
	default:
	}
	select {
	case <-h.input:
	default:
	}
	select {
	case h.input <- snap:
		return true
	default:
		return false
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Run serves the hub until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.count.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int32(len(h.clients)))
			if h.last != nil {
				client.send <- h.last
			}
			h.logger.Info("client connected", "remote", client.remote, "clients", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.count.Store(int32(len(h.clients)))
				h.logger.Info("client disconnected", "remote", client.remote, "clients", len(h.clients))
			}
		case snap := <-h.input:
			msg, err := json.Marshal(snap)
			if err != nil {
				h.logger.Warn("encode snapshot", "err", err)
				continue
			}
			h.last = msg
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// slow client, drop this frame
				}
			}
		}
	}
}

// Handler returns the websocket endpoint
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("upgrade failed", "err", err)
			return
		}
		client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), remote: r.RemoteAddr}
		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	})
}

// Client is one websocket subscriber
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Server exposes a hub over HTTP at /ws
type Server struct {
	hub      *Hub
	srv      *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// Start listens on addr and runs hub in the background
func Start(ctx context.Context, addr string, hub *Hub) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())

	ctx, cancel := context.WithCancel(ctx)
	s := &Server{
		hub:      hub,
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: ln,
		cancel:   cancel,
	}
	go hub.Run(ctx)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hub.logger.Error("broadcast server stopped", "err", err)
		}
	}()

	hub.logger.Info("broadcast listening", "addr", ln.Addr().String())
	return s, nil
}

// Addr returns the bound address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close stops the server and the hub
func (s *Server) Close() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
