package proxy

import "github.com/rickgao/matcher-bridge/internal/model"

// Remote is the transport toward the remote matcher.
type Remote interface {
	// ConnectRemote establishes the remote channel if it is not already up.
	// It must be safe to call repeatedly and concurrently without creating
	// duplicate channels.
	ConnectRemote() bool

	IsRemoteConnected() bool

	DisconnectRemote() bool

	// UpdateBidRemote sends a bid. Failures are handled by the transport.
	UpdateBidRemote(bid model.Bid)
}
