// Package proxy bridges a local session to a remote matcher.
//
// MatcherEndpointProxy plays the matcher role toward a nearby agent and acts
// as a reconnecting client toward a remote counterpart reached through the
// Remote interface. Bids flow out through UpdateBidRemote; prices and market
// basis announcements flow in through UpdateLocalPrice and
// UpdateRemoteMarketBasis.
//
// Every relay call takes one snapshot of the local session and runs all of
// its checks against that snapshot. Guard failures are logged and the message
// is dropped; nothing on the relay path returns an error.
package proxy
