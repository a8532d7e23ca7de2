package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/lumicore/internal/device"
	"github.com/nerrad567/lumicore/internal/infrastructure/config"
	"github.com/nerrad567/lumicore/internal/infrastructure/logging"
	"github.com/nerrad567/lumicore/internal/sinks"
)

// Client operations on the change feed.
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpPing        = "ping"
)

// Frame types sent by the server.
const (
	FrameEvent = "event"
	FrameAck   = "ack"
	FramePong  = "pong"
	FrameError = "error"
)

// Device event channels. ChannelAllDevices matches every device channel.
const (
	ChannelDevicePrefix = "device."
	ChannelAllDevices   = ChannelDevicePrefix + "*"
)

const (
	// feedQueueSize is the number of frames buffered per client. Frames
	// beyond it are dropped and counted.
	feedQueueSize = 256

	defaultPingInterval = 30 * time.Second
	defaultPongTimeout  = 10 * time.Second
)

// DeviceChannel returns the channel a device event is broadcast on, e.g.
// "device.params".
func DeviceChannel(ev device.Event) string { return ChannelDevicePrefix + ev.String() }

var feedChannels = map[string]bool{
	ChannelAllDevices:                          true,
	DeviceChannel(device.EventAdded):           true,
	DeviceChannel(device.EventParamsChanged):   true,
	DeviceChannel(device.EventMetadataChanged): true,
	DeviceChannel(device.EventRemoved):         true,
}

// FeedRequest is a message from a client.
//
//	{"op": "subscribe", "id": "1", "channels": ["device.params"]}
type FeedRequest struct {
	Op       string   `json:"op"`
	ID       string   `json:"id,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// FeedFrame is a message to a client. Event frames carry the device; a
// removed device carries only its identity. Ack frames list the client's
// subscriptions after the change.
type FeedFrame struct {
	Type     string          `json:"type"`
	ID       string          `json:"id,omitempty"`
	Time     time.Time       `json:"time"`
	Channel  string          `json:"channel,omitempty"`
	DeviceID string          `json:"device_id,omitempty"`
	Device   json.RawMessage `json:"device,omitempty"`
	Channels []string        `json:"channels,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// channelSet is a client's subscriptions.
type channelSet map[string]struct{}

func (s channelSet) matches(channel string) bool {
	if _, ok := s[channel]; ok {
		return true
	}
	_, all := s[ChannelAllDevices]
	return all && strings.HasPrefix(channel, ChannelDevicePrefix)
}

// feedClient is one connection. out is closed by the hub only, while
// holding its write lock, so sends under the read lock never hit a closed
// channel.
type feedClient struct {
	conn *websocket.Conn
	out  chan []byte

	mu   sync.Mutex
	subs channelSet
}

func newFeedClient(conn *websocket.Conn) *feedClient {
	return &feedClient{
		conn: conn,
		out:  make(chan []byte, feedQueueSize),
		subs: make(channelSet),
	}
}

func (c *feedClient) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.matches(channel)
}

// update applies a subscribe or unsubscribe and returns the resulting set.
func (c *feedClient) update(subscribe bool, channels []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range channels {
		if subscribe {
			c.subs[ch] = struct{}{}
		} else {
			delete(c.subs, ch)
		}
	}
	out := make([]string, 0, len(c.subs))
	for ch := range c.subs {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}

// handle turns one client message into the reply frame.
func (c *feedClient) handle(data []byte) FeedFrame {
	var req FeedRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return FeedFrame{Type: FrameError, Error: "invalid JSON message"}
	}

	switch req.Op {
	case OpPing:
		return FeedFrame{Type: FramePong, ID: req.ID}
	case OpSubscribe, OpUnsubscribe:
		if len(req.Channels) == 0 {
			return FeedFrame{Type: FrameError, ID: req.ID, Error: "channels required"}
		}
		for _, ch := range req.Channels {
			if !feedChannels[ch] {
				return FeedFrame{Type: FrameError, ID: req.ID, Error: "unknown channel: " + ch}
			}
		}
		return FeedFrame{Type: FrameAck, ID: req.ID, Channels: c.update(req.Op == OpSubscribe, req.Channels)}
	default:
		return FeedFrame{Type: FrameError, ID: req.ID, Error: "unknown op: " + req.Op}
	}
}

// Hub fans committed device changes out to WebSocket clients.
//
// Hub is a sinks.Sink: attached to a dispatcher it encodes each event once
// and queues it for every client subscribed to the event's channel. A slow
// client loses frames rather than holding up the device that changed.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*feedClient]struct{}
	closed  bool

	dropped atomic.Uint64
}

var _ sinks.Sink = (*Hub)(nil)

// NewHub creates a hub. Timing and message limits come from cfg.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*feedClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client and
// refuses new ones.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.out)
	}
}

// Name implements sinks.Sink.
func (h *Hub) Name() string { return "websocket" }

// DeviceChanged implements sinks.Sink.
func (h *Hub) DeviceChanged(d *device.Device, ev device.Event) {
	frame := FeedFrame{
		Type:     FrameEvent,
		Time:     time.Now().UTC(),
		Channel:  DeviceChannel(ev),
		DeviceID: d.ID(),
	}
	if ev != device.EventRemoved {
		body, err := d.MarshalJSON()
		if err != nil {
			h.logger.Error("encoding device event failed", "device_id", d.ID(), "error", err)
			return
		}
		frame.Device = body
	}

	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("encoding feed frame failed", "device_id", d.ID(), "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.subscribed(frame.Channel) {
			h.offer(c, data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of frames discarded because a client's queue
// was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// offer queues data without blocking. Callers hold h.mu for reading.
func (h *Hub) offer(c *feedClient, data []byte) {
	select {
	case c.out <- data:
	default:
		h.dropped.Add(1)
	}
}

// join registers c. It reports false once the hub has shut down.
func (h *Hub) join(c *feedClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Debug("websocket client connected", "clients", len(h.clients))
	return true
}

// leave unregisters c and closes its queue. Repeated calls are no-ops.
func (h *Hub) leave(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.out)
	h.logger.Debug("websocket client disconnected", "clients", len(h.clients))
}

// reply queues a frame for c if it is still connected.
func (h *Hub) reply(c *feedClient, frame FeedFrame) {
	frame.Time = time.Now().UTC()
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		h.offer(c, data)
	}
}

func (h *Hub) timing() (ping, pong time.Duration) {
	ping, pong = defaultPingInterval, defaultPongTimeout
	if h.cfg.PingInterval > 0 {
		ping = time.Duration(h.cfg.PingInterval) * time.Second
	}
	if h.cfg.PongTimeout > 0 {
		pong = time.Duration(h.cfg.PongTimeout) * time.Second
	}
	return ping, pong
}

// readLoop handles client requests until the connection fails.
func (h *Hub) readLoop(c *feedClient) {
	defer h.leave(c)

	ping, pong := h.timing()
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ping + pong)) }

	if h.cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(int64(h.cfg.MaxMessageSize))
	}
	extend() //nolint:errcheck // A failed deadline surfaces as a read error
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		extend() //nolint:errcheck // A failed deadline surfaces as a read error
		h.reply(c, c.handle(data))
	}
}

// writeLoop drains c's queue and keeps the connection alive with pings.
// It closes the connection when the queue is closed or a write fails.
func (h *Hub) writeLoop(c *feedClient) {
	ping, pong := h.timing()
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // Write error reported below
			if !ok {
				//nolint:errcheck // Connection is closing anyway
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // Write error reported below
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleWebSocket upgrades the request and attaches the connection to the
// hub. Clients start with no subscriptions.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.isAllowedOrigin(origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newFeedClient(conn)
	if !s.hub.join(c) {
		conn.Close()
		return
	}
	go s.hub.writeLoop(c)
	go s.hub.readLoop(c)
}
