// Package websocket streams order book events from the Polymarket CLOB
// market channel.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/pkg/types"
)

// ErrNotConnected is returned by Ping while the connection is down.
var ErrNotConnected = errors.New("websocket not connected")

// Config holds WebSocket client configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PingInterval          time.Duration
	PongTimeout           time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// Client keeps one connection to the market channel open, reconnecting with
// backoff and resubscribing every tracked asset after each reconnect.
type Client struct {
	cfg     Config
	logger  *zap.Logger
	backoff *Backoff
	events  chan *types.BookMessage

	mu     sync.RWMutex
	conn   *websocket.Conn
	assets map[string]struct{}

	// gorilla/websocket allows a single concurrent writer for data frames
	writeMu sync.Mutex

	connected   atomic.Bool
	lastPong    atomic.Int64
	connectedAt atomic.Int64

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a client. Call Start to connect.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MessageBufferSize <= 0 {
		cfg.MessageBufferSize = 1000
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 3 * cfg.PingInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		cfg:     cfg,
		logger:  cfg.Logger,
		backoff: NewBackoff(cfg.ReconnectInitialDelay, cfg.ReconnectMaxDelay, cfg.ReconnectBackoffMult),
		events:  make(chan *types.BookMessage, cfg.MessageBufferSize),
		assets:  make(map[string]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start dials the market channel and starts the read and ping loops.
func (c *Client) Start() error {
	c.logger.Info("websocket-client-starting", zap.String("url", c.cfg.URL))

	err := c.connect(c.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	c.wg.Add(2)
	go c.run()
	go c.pingLoop()

	return nil
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	conn.SetPongHandler(func(string) error {
		c.lastPong.Store(time.Now().UnixNano())
		return nil
	})

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		_ = conn.Close()
		return ctx.Err()
	}
	c.conn = conn
	c.mu.Unlock()

	now := time.Now()
	c.lastPong.Store(now.UnixNano())
	c.connectedAt.Store(now.UnixNano())
	c.connected.Store(true)
	Connected.Set(1)

	c.logger.Info("websocket-connected")
	return nil
}

// run reads until the connection drops, then reconnects and resubscribes.
// It returns once the client is closed.
func (c *Client) run() {
	defer c.wg.Done()

	for {
		c.readUntilError()
		c.markDisconnected()

		if c.ctx.Err() != nil {
			return
		}

		err := c.reconnect()
		if err != nil {
			return
		}
	}
}

func (c *Client) markDisconnected() {
	if !c.connected.Swap(false) {
		return
	}
	Connected.Set(0)

	started := c.connectedAt.Load()
	if started > 0 {
		ConnectionDurationSeconds.Observe(time.Since(time.Unix(0, started)).Seconds())
	}
}

func (c *Client) readUntilError() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Warn("websocket-read-error", zap.Error(err))
			}
			return
		}

		c.dispatch(payload)
	}
}

// dispatch decodes a frame, which holds either an array of events or a
// single event, and forwards the events without blocking.
func (c *Client) dispatch(payload []byte) {
	var msgs []types.BookMessage
	err := json.Unmarshal(payload, &msgs)
	if err != nil {
		var single types.BookMessage
		if json.Unmarshal(payload, &single) != nil || single.EventType == "" {
			c.logger.Debug("websocket-non-event-frame", zap.Int("bytes", len(payload)))
			return
		}
		msgs = []types.BookMessage{single}
	}

	for i := range msgs {
		msg := &msgs[i]
		if msg.EventType == "" {
			continue
		}
		MessagesTotal.WithLabelValues(msg.EventType).Inc()

		select {
		case c.events <- msg:
		default:
			MessagesDroppedTotal.Inc()
			c.logger.Warn("websocket-event-buffer-full",
				zap.String("event-type", msg.EventType),
				zap.String("asset-id", msg.AssetID))
		}
	}
}

func (c *Client) reconnect() error {
	for {
		delay := c.backoff.Next()
		c.logger.Info("websocket-reconnecting", zap.Duration("backoff", delay))

		select {
		case <-time.After(delay):
		case <-c.ctx.Done():
			return c.ctx.Err()
		}

		err := c.connect(c.ctx)
		if err != nil {
			ReconnectsTotal.WithLabelValues("failure").Inc()
			c.logger.Warn("websocket-reconnect-failed", zap.Error(err))
			continue
		}

		err = c.resubscribe()
		if err != nil {
			ReconnectsTotal.WithLabelValues("failure").Inc()
			c.logger.Warn("websocket-resubscribe-failed", zap.Error(err))
			c.closeConn()
			c.markDisconnected()
			continue
		}

		ReconnectsTotal.WithLabelValues("success").Inc()
		c.backoff.Reset()
		return nil
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}

		if !c.connected.Load() {
			continue
		}

		if time.Since(time.Unix(0, c.lastPong.Load())) > c.cfg.PongTimeout {
			c.logger.Warn("websocket-pong-timeout")
			c.closeConn()
			continue
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
		if err != nil {
			c.logger.Debug("websocket-ping-failed", zap.Error(err))
		}
	}
}

// Subscribe adds assets to the market channel subscription. Assets are
// remembered while disconnected and sent on the next reconnect.
func (c *Client) Subscribe(ctx context.Context, assetIDs []string) error {
	c.mu.Lock()
	initial := len(c.assets) == 0
	added := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		if id == "" {
			continue
		}
		if _, ok := c.assets[id]; ok {
			continue
		}
		c.assets[id] = struct{}{}
		added = append(added, id)
	}
	total := len(c.assets)
	c.mu.Unlock()

	if len(added) == 0 {
		return nil
	}

	msg := map[string]interface{}{"assets_ids": added, "operation": "subscribe"}
	if initial {
		msg = map[string]interface{}{"assets_ids": added, "type": "market"}
	}

	if c.connected.Load() {
		err := c.writeJSON(msg)
		if err != nil {
			c.mu.Lock()
			for _, id := range added {
				delete(c.assets, id)
			}
			total = len(c.assets)
			c.mu.Unlock()
			SubscribedAssets.Set(float64(total))
			return fmt.Errorf("write subscribe: %w", err)
		}
	}

	SubscribedAssets.Set(float64(total))
	c.logger.Info("websocket-subscribed",
		zap.Int("added", len(added)),
		zap.Int("total", total))
	return nil
}

// Unsubscribe removes assets from the subscription.
func (c *Client) Unsubscribe(ctx context.Context, assetIDs []string) error {
	c.mu.Lock()
	removed := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		if _, ok := c.assets[id]; ok {
			delete(c.assets, id)
			removed = append(removed, id)
		}
	}
	total := len(c.assets)
	c.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}

	if c.connected.Load() {
		err := c.writeJSON(map[string]interface{}{"assets_ids": removed, "operation": "unsubscribe"})
		if err != nil {
			c.mu.Lock()
			for _, id := range removed {
				c.assets[id] = struct{}{}
			}
			total = len(c.assets)
			c.mu.Unlock()
			SubscribedAssets.Set(float64(total))
			return fmt.Errorf("write unsubscribe: %w", err)
		}
	}

	SubscribedAssets.Set(float64(total))
	return nil
}

func (c *Client) resubscribe() error {
	assets := c.Assets()
	if len(assets) == 0 {
		return nil
	}

	err := c.writeJSON(map[string]interface{}{"assets_ids": assets, "type": "market"})
	if err != nil {
		return err
	}

	c.logger.Info("websocket-resubscribed", zap.Int("count", len(assets)))
	return nil
}

func (c *Client) writeJSON(v interface{}) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	err = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) closeConn() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Assets returns the subscribed asset IDs, sorted.
func (c *Client) Assets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.assets))
	for id := range c.assets {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Events returns the channel of decoded book events. It is closed by Close.
func (c *Client) Events() <-chan *types.BookMessage {
	return c.events
}

// Connected reports whether the connection is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Ping reports whether the connection is up, for readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	return nil
}

// Close stops the client and closes the events channel.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.logger.Info("websocket-client-closing")

		c.cancel()
		c.closeConn()
		c.wg.Wait()
		c.markDisconnected()

		close(c.events)
		c.logger.Info("websocket-client-closed")
	})
	return nil
}
