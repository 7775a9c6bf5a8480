package connection

import (
	"errors"
	"time"

	"github.com/rickgao/matcher-bridge/internal/auth"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string            // WebSocket URL of the remote matcher
	Credentials      *auth.Credentials // Handshake signing (nil = no auth)
	UserAgent        string            // User-Agent header (empty = none)
	HandshakeTimeout time.Duration     // Max time for the WebSocket handshake
	PingTimeout      time.Duration     // Max time without ping before considering connection stale
	PingInterval     time.Duration     // Interval between keepalive pings
	WriteTimeout     time.Duration     // Write deadline for sends
	BufferSize       int               // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       1000,
	}
}

// TransportConfig configures the remote transport.
type TransportConfig struct {
	Client ClientConfig

	// Identity announced in the hello message.
	AgentID   string
	ClusterID string
	Version   string
}
