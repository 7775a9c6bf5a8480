package proxy

import (
	"testing"
	"time"

	"github.com/raulk/clock"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/matcher-bridge/internal/agent"
	"github.com/rickgao/matcher-bridge/internal/monitoring"
	"github.com/rickgao/matcher-bridge/internal/session"
)

// TestScenario_BidOutPriceIn walks a device agent through a full session
// lifecycle behind the proxy.
func TestScenario_BidOutPriceIn(t *testing.T) {
	mClock := clock.NewMock()
	fired := make(chan time.Time, 10)
	remote := &recordingRemote{connectSucceeds: true, onConnect: func() { fired <- mClock.Now() }}

	p := New(Config{ID: "proxy-1", ClusterID: "cluster-1", ReconnectTimeout: 5, Clock: mClock}, remote, nil)
	require.NoError(t, p.Activate())
	waitFired(t, fired)
	require.True(t, p.IsRemoteConnected())

	a := agent.NewDeviceAgent("agent-A", mClock, nil)
	agentEvents := &eventRecorder{}
	a.AddObserver(agentEvents)
	proxyEvents := &eventRecorder{}
	p.AddObserver(proxyEvents)

	s := session.New(a, p, nil)
	s.Connect()
	waitFired(t, fired)
	require.Same(t, s, a.Session())

	_, ok := s.MarketBasis()
	require.False(t, ok)

	mb := testBasis(t, 4)
	p.UpdateRemoteMarketBasis(mb)
	got, ok := s.MarketBasis()
	require.True(t, ok)
	require.Equal(t, mb, got)

	b1, err := a.SubmitBid([]float64{3, 2, 1, 0})
	require.NoError(t, err)

	remote.mu.Lock()
	require.Len(t, remote.bids, 1)
	require.Equal(t, b1.BidNumber(), remote.bids[0].BidNumber())
	require.Equal(t, b1.Demand(), remote.bids[0].Demand())
	remote.mu.Unlock()

	// Each side names the bid from its own point of view.
	require.Equal(t, 1, agentEvents.count(monitoring.EventOutgoingBid))
	require.Equal(t, 1, proxyEvents.count(monitoring.EventIncomingBid))
	require.Equal(t, 0, proxyEvents.count(monitoring.EventOutgoingBid))

	pr1 := testPrice(t, mb)
	p.UpdateLocalPrice(pr1)

	require.Equal(t, 1, agentEvents.count(monitoring.EventIncomingPriceUpdate))
	require.Equal(t, 1, proxyEvents.count(monitoring.EventOutgoingPriceUpdate))
	require.Equal(t, 0, proxyEvents.count(monitoring.EventIncomingPriceUpdate))
	last, ok := a.LastPriceUpdate()
	require.True(t, ok)
	require.Equal(t, pr1, last)

	s.Disconnect()

	require.True(t, s.Closed())
	require.Nil(t, a.Session())
	require.False(t, p.IsLocalConnected())
	_, disconnects, bids := remote.counts()
	require.Equal(t, 1, disconnects)
	require.Equal(t, 1, bids)

	require.NoError(t, p.Deactivate())
}
