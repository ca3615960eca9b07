package livequery

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/mission-control/internal/events"
	"github.com/aristath/mission-control/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// clientBuffer is the number of frames queued per client before query goroutines block.
const clientBuffer = 16

// Frame is one server-to-client message.
type Frame struct {
	ID    string      `json:"id" msgpack:"id"`
	Data  interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
	Error string      `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Hub routes table-change events to the subscriptions that depend on them
type Hub struct {
	registry    *Registry
	log         zerolog.Logger
	mu          sync.Mutex
	subs        map[*subscription]struct{}
	unsubscribe func()
}

// NewHub creates a hub listening on bus.
func NewHub(registry *Registry, bus *events.Bus, log zerolog.Logger) *Hub {
	h := &Hub{
		registry: registry,
		log:      log.With().Str("component", "livequery").Logger(),
		subs:     make(map[*subscription]struct{}),
	}
	h.unsubscribe = bus.Subscribe(h.handleEvent)
	return h
}

// Close detaches the hub from the bus.
func (h *Hub) Close() {
	h.unsubscribe()
}

// Registry returns the hub's query registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// SubscriptionCount returns the number of active subscriptions across clients.
func (h *Hub) SubscriptionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) handleEvent(e *events.Event) {
	table := e.Table()
	if table == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.query.DependsOn(table) {
			sub.markDirty()
		}
	}
}

// Connect registers a new client whose subscriptions live until ctx ends or Close.
func (h *Hub) Connect(ctx context.Context) *Client {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	c := &Client{
		ID:     id,
		hub:    h,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan Frame, clientBuffer),
		subs:   make(map[string]*subscription),
		log:    h.log.With().Str("client", id).Logger(),
	}
	metrics.LiveConnections.Inc()
	c.log.Debug().Msg("Live client connected")
	return c
}

func (h *Hub) add(sub *subscription) {
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	metrics.LiveSubscriptions.Inc()
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()
	if ok {
		metrics.LiveSubscriptions.Dec()
	}
}

// Client is one consumer of live queries, typically a websocket connection
type Client struct {
	ID string

	hub    *Hub
	ctx    context.Context
	cancel context.CancelFunc
	out    chan Frame
	log    zerolog.Logger

	mu     sync.Mutex
	subs   map[string]*subscription
	closed bool
}

// Frames delivers query results. It is never closed; select on Done as well.
func (c *Client) Frames() <-chan Frame {
	return c.out
}

// Done is closed when the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Subscribe starts running query under id. The first result is pushed immediately
// and again after every change to one of the query's tables. Reusing an id replaces
// the previous subscription.
func (c *Client) Subscribe(id, queryName string, args Args) error {
	if id == "" {
		return fmt.Errorf("subscription id is required")
	}
	query := c.hub.registry.Get(queryName)
	if query == nil {
		return fmt.Errorf("unknown query: %s", queryName)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client closed")
	}
	if prev, ok := c.subs[id]; ok {
		prev.stop()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	sub := &subscription{
		id:     id,
		query:  query,
		args:   args,
		client: c,
		ctx:    ctx,
		cancel: cancel,
		dirty:  make(chan struct{}, 1),
	}
	c.subs[id] = sub
	c.hub.add(sub)
	c.mu.Unlock()

	sub.markDirty()
	go sub.loop()

	c.log.Debug().Str("id", id).Str("query", queryName).Msg("Subscribed")
	return nil
}

// Unsubscribe stops the subscription with id. Unknown ids are ignored.
func (c *Client) Unsubscribe(id string) {
	c.mu.Lock()
	sub, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()

	if ok {
		sub.stop()
		c.log.Debug().Str("id", id).Msg("Unsubscribed")
	}
}

// Close stops every subscription.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = map[string]*subscription{}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	c.cancel()
	metrics.LiveConnections.Dec()
	c.log.Debug().Msg("Live client disconnected")
}

// Send queues a frame unless the client is closed.
func (c *Client) Send(ctx context.Context, f Frame) bool {
	select {
	case c.out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

type subscription struct {
	id     string
	query  *Query
	args   Args
	client *Client
	ctx    context.Context
	cancel context.CancelFunc
	dirty  chan struct{}
}

// markDirty requests a re-run; pending requests coalesce.
func (s *subscription) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *subscription) stop() {
	s.cancel()
	s.client.hub.remove(s)
}

func (s *subscription) loop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.dirty:
		}

		frame := Frame{ID: s.id}
		data, err := s.query.Run(s.args)
		if err != nil {
			s.client.log.Error().Err(err).Str("query", s.query.Name).Msg("Live query failed")
			metrics.LiveQueryRuns.WithLabelValues(s.query.Name, "error").Inc()
			frame.Error = "query failed"
		} else {
			metrics.LiveQueryRuns.WithLabelValues(s.query.Name, "ok").Inc()
			frame.Data = data
		}

		if !s.client.Send(s.ctx, frame) {
			return
		}
	}
}
