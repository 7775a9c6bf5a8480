package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rickgao/matcher-bridge/internal/model"
	"github.com/rickgao/matcher-bridge/internal/proxy"
)

// Inbound receives messages decoded from the remote matcher.
type Inbound interface {
	UpdateLocalPrice(pu model.PriceUpdate)
	UpdateRemoteMarketBasis(mb model.MarketBasis)
}

// Transport is a proxy.Remote over a single WebSocket connection.
type Transport struct {
	cfg    TransportConfig
	logger *slog.Logger

	newClient func(ClientConfig, *slog.Logger) Client

	// connMu serializes dial and teardown; group collapses concurrent
	// connect calls into the one holding connMu.
	connMu sync.Mutex
	group  singleflight.Group

	mu      sync.RWMutex
	client  Client
	inbound Inbound

	wg sync.WaitGroup
}

var _ proxy.Remote = (*Transport)(nil)

// NewTransport creates a disconnected transport.
func NewTransport(cfg TransportConfig, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}

	return &Transport{
		cfg:       cfg,
		logger:    logger.With("component", "transport"),
		newClient: NewClient,
	}
}

// SetInbound sets the handler for decoded inbound messages.
func (t *Transport) SetInbound(in Inbound) {
	t.mu.Lock()
	t.inbound = in
	t.mu.Unlock()
}

// ConnectRemote dials the remote matcher unless already connected.
// Concurrent callers share one dial.
func (t *Transport) ConnectRemote() bool {
	if t.IsRemoteConnected() {
		return true
	}

	v, _, _ := t.group.Do("connect", func() (interface{}, error) {
		t.connMu.Lock()
		defer t.connMu.Unlock()

		if t.IsRemoteConnected() {
			return true, nil
		}
		return t.connect(), nil
	})
	return v.(bool)
}

func (t *Transport) connect() bool {
	ctx := context.Background()
	if d := t.cfg.Client.HandshakeTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	c := t.newClient(t.cfg.Client, t.logger)
	if err := c.Connect(ctx); err != nil {
		t.logger.Warn("remote connect failed", "url", t.cfg.Client.URL, "error", err)
		return false
	}

	hello, err := Encode(TypeHello, HelloMsg{
		AgentID:   t.cfg.AgentID,
		ClusterID: t.cfg.ClusterID,
		Version:   t.cfg.Version,
	})
	if err == nil {
		err = c.Send(hello)
	}
	if err != nil {
		t.logger.Warn("remote hello failed", "error", err)
		c.Close()
		return false
	}

	t.mu.Lock()
	old := t.client
	t.client = c
	t.mu.Unlock()

	if old != nil {
		old.Close()
	}

	t.wg.Add(1)
	go t.dispatchLoop(c)

	t.logger.Info("remote connected", "url", t.cfg.Client.URL)
	return true
}

// IsRemoteConnected reports whether the connection is up.
func (t *Transport) IsRemoteConnected() bool {
	t.mu.RLock()
	c := t.client
	t.mu.RUnlock()
	return c != nil && c.IsConnected()
}

// DisconnectRemote closes the connection. It reports whether there was one.
func (t *Transport) DisconnectRemote() bool {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	t.mu.Lock()
	c := t.client
	t.client = nil
	t.mu.Unlock()

	if c == nil {
		return false
	}
	if err := c.Close(); err != nil {
		t.logger.Debug("close remote connection", "error", err)
	}

	t.logger.Info("remote disconnected")
	return true
}

// UpdateBidRemote sends bid to the remote matcher. Send failures are logged.
func (t *Transport) UpdateBidRemote(bid model.Bid) {
	t.mu.RLock()
	c := t.client
	t.mu.RUnlock()

	if c == nil {
		t.logger.Debug("no remote connection, dropping bid", "bid_number", bid.BidNumber())
		return
	}

	data, err := Encode(TypeBid, NewBidMsg(bid))
	if err != nil {
		t.logger.Error("encode bid", "error", err)
		return
	}
	if err := c.Send(data); err != nil {
		t.logger.Warn("send bid failed", "bid_number", bid.BidNumber(), "error", err)
	}
}

// Close disconnects and waits for the dispatch goroutine to exit.
func (t *Transport) Close() {
	t.DisconnectRemote()
	t.wg.Wait()
}

// dispatchLoop decodes messages from c until it fails or is closed.
func (t *Transport) dispatchLoop(c Client) {
	defer t.wg.Done()

	for {
		select {
		case msg := <-c.Messages():
			t.handleMessage(msg.Data)
		case err := <-c.Errors():
			t.logger.Warn("remote connection error", "error", err)
			t.drop(c)
			return
		case <-c.Done():
			t.drop(c)
			return
		}
	}
}

// drop forgets c if it is still the current client.
func (t *Transport) drop(c Client) {
	t.mu.Lock()
	if t.client == c {
		t.client = nil
	}
	t.mu.Unlock()
	c.Close()
}

func (t *Transport) handleMessage(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.logger.Warn("malformed message", "error", err)
		return
	}

	t.mu.RLock()
	in := t.inbound
	t.mu.RUnlock()

	switch env.Type {
	case TypePriceUpdate:
		var msg PriceUpdateMsg
		if err := json.Unmarshal(env.Msg, &msg); err != nil {
			t.logger.Warn("malformed price update", "error", err)
			return
		}
		pu, err := msg.PriceUpdate()
		if err != nil {
			t.logger.Warn("invalid price update", "error", err)
			return
		}
		if in == nil {
			t.logger.Debug("no inbound handler, dropping price update")
			return
		}
		in.UpdateLocalPrice(pu)

	case TypeMarketBasis:
		var msg MarketBasisMsg
		if err := json.Unmarshal(env.Msg, &msg); err != nil {
			t.logger.Warn("malformed market basis", "error", err)
			return
		}
		mb, err := msg.MarketBasis()
		if err != nil {
			t.logger.Warn("invalid market basis", "error", err)
			return
		}
		if in == nil {
			t.logger.Debug("no inbound handler, dropping market basis")
			return
		}
		in.UpdateRemoteMarketBasis(mb)

	case TypeError:
		var msg ErrorMsg
		if err := json.Unmarshal(env.Msg, &msg); err != nil {
			t.logger.Warn("malformed error message", "error", err)
			return
		}
		t.logger.Warn("remote error", "code", msg.Code, "message", msg.Message)

	default:
		t.logger.Debug("ignoring message", "type", env.Type)
	}
}
