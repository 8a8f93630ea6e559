// Package ratesfeed streams funding-rate fixings from an external
// websocket feed into the funding store. The feed is optional: fixings
// can always be loaded at rest through the HTTP API instead.
package ratesfeed

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/ballast/internal/events"
	"github.com/aristath/ballast/internal/modules/calendar"
)

const (
	writeWait   = 10 * time.Second
	dialTimeout = 30 * time.Second

	baseReconnectDelay   = 5 * time.Second
	maxReconnectDelay    = 5 * time.Minute
	maxReconnectAttempts = 10
)

// fixingsChannel is the feed channel carrying rate updates.
const fixingsChannel = "fixings"

// FixingStore receives decoded rate updates. Implemented by
// funding.Repository.
type FixingStore interface {
	SaveFixing(ctx context.Context, date time.Time, rate float64, source string) error
}

// WSFixing is one fixing as it appears on the wire.
type WSFixing struct {
	Date   string  `json:"date"`
	Rate   float64 `json:"rate"`
	Source string  `json:"source"`
}

// WSFixingsData is the payload of a fixings channel message.
type WSFixingsData struct {
	Fixings   []WSFixing `json:"fixings"`
	Timestamp string     `json:"timestamp"`
}

// Client maintains the websocket subscription to the fixings feed.
type Client struct {
	url        string
	httpClient *http.Client // Reusable HTTP client configured for HTTP/1.1
	conn       *websocket.Conn
	connCtx    context.Context
	cancelFunc context.CancelFunc
	mu         sync.RWMutex

	store FixingStore
	bus   *events.Bus
	log   zerolog.Logger

	connected    bool
	reconnecting bool
	stopChan     chan struct{}
	stopped      bool

	lastReceived time.Time
	recvMu       sync.RWMutex
}

// createHTTP1Client creates an HTTP client that forces HTTP/1.1.
// Feed endpoints behind CDNs negotiate HTTP/2 via TLS ALPN, but the
// websocket upgrade handshake requires HTTP/1.1.
func createHTTP1Client() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				NextProtos: []string{"http/1.1"},
			},
			ForceAttemptHTTP2: false,
		},
	}
}

// NewClient creates a new fixings feed client
func NewClient(url string, store FixingStore, bus *events.Bus, log zerolog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: createHTTP1Client(),
		store:      store,
		bus:        bus,
		log:        log.With().Str("component", "rates_feed").Logger(),
		stopChan:   make(chan struct{}),
	}
}

// Start initializes the websocket connection and starts the read loop
func (c *Client) Start() error {
	c.log.Info().Str("url", c.url).Msg("Starting rates feed client")

	if err := c.Connect(); err != nil {
		c.log.Warn().Err(err).Msg("Initial feed connection failed, will retry in background")
		go c.reconnectLoop()
		return err
	}

	c.mu.RLock()
	ctx := c.connCtx
	c.mu.RUnlock()
	go c.readMessages(ctx)

	c.log.Info().Msg("Rates feed client started")
	return nil
}

// Stop gracefully shuts down the websocket connection
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	c.log.Info().Msg("Stopping rates feed client")

	close(c.stopChan)
	return c.Disconnect()
}

// Connect establishes the websocket connection and subscribes to the
// fixings channel
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Info().Str("url", c.url).Msg("Connecting to rates feed")

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to dial feed: %w", err)
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	c.conn = conn
	c.connCtx = connCtx
	c.cancelFunc = connCancel
	c.connected = true

	if err := c.subscribe(connCtx); err != nil {
		connCancel()
		conn.Close(websocket.StatusNormalClosure, "subscribe failed")
		c.conn = nil
		c.connCtx = nil
		c.cancelFunc = nil
		c.connected = false
		return fmt.Errorf("failed to subscribe to fixings: %w", err)
	}

	c.announceStatus(true)
	c.log.Info().Msg("Connected to rates feed")
	return nil
}

// Disconnect closes the websocket connection
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	c.log.Info().Msg("Disconnecting from rates feed")

	if c.cancelFunc != nil {
		c.cancelFunc()
		c.cancelFunc = nil
	}

	err := c.conn.Close(websocket.StatusNormalClosure, "")

	c.conn = nil
	c.connCtx = nil
	c.connected = false
	c.announceStatus(false)

	if err != nil {
		return fmt.Errorf("error closing feed connection: %w", err)
	}

	return nil
}

// subscribe sends the subscription message for the fixings channel
func (c *Client) subscribe(ctx context.Context) error {
	data, err := json.Marshal([]string{fixingsChannel})
	if err != nil {
		return fmt.Errorf("failed to marshal subscription message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send subscription message: %w", err)
	}

	c.log.Info().Msg("Subscribed to fixings channel")
	return nil
}

// readMessages continuously reads messages from the feed
func (c *Client) readMessages(ctx context.Context) {
	defer func() {
		c.log.Info().Msg("Feed read loop stopped")
		c.mu.Lock()
		wasConnected := c.connected
		c.connected = false
		stopped := c.stopped
		c.mu.Unlock()
		if wasConnected && !stopped {
			c.announceStatus(false)
		}
		if !stopped {
			go c.reconnectLoop()
		}
	}()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			c.log.Debug().Msg("Read loop context cancelled")
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			c.log.Warn().Msg("Connection is nil, stopping read loop")
			return
		}

		msgType, message, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				c.log.Info().Int("status", int(closeStatus)).Msg("Feed closed normally")
			} else if ctx.Err() != nil {
				c.log.Debug().Msg("Read cancelled by context")
			} else {
				c.log.Error().Err(err).Msg("Unexpected feed read error")
			}
			return
		}

		if msgType != websocket.MessageText {
			c.log.Debug().Int("type", int(msgType)).Msg("Ignoring non-text message")
			continue
		}

		if err := c.handleMessage(ctx, message); err != nil {
			c.log.Error().Err(err).Str("message", string(message)).Msg("Failed to handle feed message")
			// Keep reading despite parse errors
		}
	}
}

// handleMessage parses one feed frame. The protocol wraps every frame
// as ["channel", payload].
func (c *Client) handleMessage(ctx context.Context, message []byte) error {
	var rawMessage []json.RawMessage
	if err := json.Unmarshal(message, &rawMessage); err != nil {
		return fmt.Errorf("failed to parse message array: %w", err)
	}

	if len(rawMessage) < 2 {
		return fmt.Errorf("message array too short: expected 2 elements, got %d", len(rawMessage))
	}

	var channel string
	if err := json.Unmarshal(rawMessage[0], &channel); err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}

	if channel != fixingsChannel {
		c.log.Debug().Str("channel", channel).Msg("Ignoring non-fixings message")
		return nil
	}

	var data WSFixingsData
	if err := json.Unmarshal(rawMessage[1], &data); err != nil {
		return fmt.Errorf("failed to parse fixings payload: %w", err)
	}

	return c.handleFixingsUpdate(ctx, data)
}

// handleFixingsUpdate stores each fixing and announces it on the bus
func (c *Client) handleFixingsUpdate(ctx context.Context, data WSFixingsData) error {
	if len(data.Fixings) == 0 {
		c.log.Warn().Msg("Received empty fixings update")
		return nil
	}

	for _, fixing := range data.Fixings {
		date, err := time.Parse(calendar.DateLayout, fixing.Date)
		if err != nil {
			return fmt.Errorf("invalid fixing date %q: %w", fixing.Date, err)
		}

		source := fixing.Source
		if source == "" {
			source = "feed"
		}

		if err := c.store.SaveFixing(ctx, date, fixing.Rate, source); err != nil {
			return fmt.Errorf("failed to store fixing for %s: %w", fixing.Date, err)
		}

		if c.bus != nil {
			c.bus.EmitTyped(events.RateUpdated, "rates_feed", &events.RateUpdatedData{
				Date:   fixing.Date,
				Rate:   fixing.Rate,
				Source: source,
			})
		}
	}

	c.recvMu.Lock()
	c.lastReceived = time.Now()
	c.recvMu.Unlock()

	c.log.Info().
		Int("fixing_count", len(data.Fixings)).
		Str("timestamp", data.Timestamp).
		Msg("Stored fixings update")

	return nil
}

// announceStatus publishes a connection state change
func (c *Client) announceStatus(connected bool) {
	if c.bus == nil {
		return
	}
	c.bus.EmitTyped(events.FeedStatusChanged, "rates_feed", &events.FeedStatusChangedData{
		Connected: connected,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// reconnectLoop handles automatic reconnection with exponential backoff
func (c *Client) reconnectLoop() {
	c.mu.Lock()
	if c.reconnecting || c.stopped {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	attempt := 0
	for {
		select {
		case <-c.stopChan:
			c.log.Info().Msg("Reconnection loop stopped")
			return
		default:
		}

		c.mu.RLock()
		stopped := c.stopped
		c.mu.RUnlock()
		if stopped {
			return
		}

		attempt++

		delay := calculateBackoff(attempt)

		if attempt <= maxReconnectAttempts {
			c.log.Info().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Attempting to reconnect to rates feed")
		} else {
			c.log.Warn().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Reconnection attempt (exceeded max attempts, will keep retrying)")
		}

		select {
		case <-time.After(delay):
		case <-c.stopChan:
			return
		}

		if err := c.Connect(); err != nil {
			c.log.Error().Err(err).
				Int("attempt", attempt).
				Msg("Reconnection failed")
			continue
		}

		c.log.Info().
			Int("attempt", attempt).
			Msg("Reconnected to rates feed")

		c.mu.RLock()
		ctx := c.connCtx
		c.mu.RUnlock()
		go c.readMessages(ctx)
		return
	}
}

// calculateBackoff returns the exponential backoff delay for an attempt
func calculateBackoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))

	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}

	return time.Duration(delay)
}

// LastReceived reports when the feed last delivered fixings
func (c *Client) LastReceived() time.Time {
	c.recvMu.RLock()
	defer c.recvMu.RUnlock()
	return c.lastReceived
}

// IsConnected returns current connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
