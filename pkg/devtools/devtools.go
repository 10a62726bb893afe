// Package devtools exposes a store's internals over HTTP for tooling.
//
// The inspector serves two endpoints:
//
//	GET /atoms   JSON snapshot of every cached atom entry
//	GET /events  websocket stream of store events as they happen
//
// It is development and operations tooling for the store itself; nothing
// in the core depends on it.
package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/statekit-dev/statekit/pkg/atom"
)

// EventMessage is the wire form of one store event on /events.
type EventMessage struct {
	Type       string    `json:"type"`
	Store      string    `json:"store"`
	AtomID     uint64    `json:"atom_id,omitempty"`
	AtomKey    string    `json:"atom_key,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Generation uint64    `json:"generation,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// Config configures the inspector.
type Config struct {
	// PingInterval is the keepalive ping cadence (default: 30s).
	PingInterval time.Duration

	// WriteTimeout bounds each websocket write (default: 10s).
	WriteTimeout time.Duration

	// Buffer is the per-client event buffer. A client that cannot keep
	// up has events dropped, never blocks the store (default: 256).
	Buffer int

	// Logger is the structured logger. Default: slog.Default().
	Logger *slog.Logger
}

// Option configures the inspector.
type Option func(*Config)

// WithPingInterval sets the keepalive ping cadence.
func WithPingInterval(d time.Duration) Option {
	return func(c *Config) { c.PingInterval = d }
}

// WithWriteTimeout sets the per-write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) { c.WriteTimeout = d }
}

// WithBuffer sets the per-client event buffer size.
func WithBuffer(n int) Option {
	return func(c *Config) { c.Buffer = n }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

func defaultConfig() Config {
	return Config{
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
		Buffer:       256,
	}
}

// Inspector streams one store's state and events to HTTP clients.
type Inspector struct {
	store    *atom.Store
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	removeObserver func()
}

type client struct {
	send chan EventMessage
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// New creates an inspector for store and starts observing its events.
func New(store *atom.Store, opts ...Option) *Inspector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	i := &Inspector{
		store:   store,
		config:  config,
		logger:  config.Logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // inspector is a trusted tooling endpoint
			},
		},
	}
	i.removeObserver = store.Observe(i.broadcast)
	return i
}

// Handler returns the inspector's HTTP handler.
func (i *Inspector) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/atoms", i.handleAtoms)
	r.Get("/events", i.handleEvents)
	return r
}

// Close stops observing the store and disconnects every client.
func (i *Inspector) Close() {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	i.closed = true
	clients := make([]*client, 0, len(i.clients))
	for c := range i.clients {
		clients = append(clients, c)
	}
	i.clients = make(map[*client]struct{})
	i.mu.Unlock()

	i.removeObserver()
	for _, c := range clients {
		c.close()
	}
}

// ClientCount returns the number of connected event stream clients.
func (i *Inspector) ClientCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.clients)
}

// broadcast fans one store event out to every connected client.
// Slow clients lose events instead of slowing the store down.
func (i *Inspector) broadcast(ev atom.Event) {
	msg := EventMessage{
		Type:       ev.Type.String(),
		Store:      ev.Store,
		AtomID:     ev.AtomID,
		AtomKey:    ev.AtomKey,
		Kind:       ev.Kind.String(),
		Generation: ev.Generation,
		Tags:       ev.Tags,
		Time:       ev.Time,
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}

	i.mu.Lock()
	for c := range i.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	i.mu.Unlock()
}

func (i *Inspector) handleAtoms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(i.store.Snapshot()); err != nil {
		i.logger.Error("snapshot encode failed", "error", err)
	}
}

func (i *Inspector) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{
		send: make(chan EventMessage, i.config.Buffer),
		done: make(chan struct{}),
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		conn.Close()
		return
	}
	i.clients[c] = struct{}{}
	i.mu.Unlock()

	go i.writeLoop(conn, c)

	// The read loop only detects disconnects; the stream is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	i.mu.Lock()
	delete(i.clients, c)
	i.mu.Unlock()
	c.close()
	conn.Close()
}

func (i *Inspector) writeLoop(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(i.config.PingInterval)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(i.config.WriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(i.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
