// Package connection implements the WebSocket transport toward the remote
// matcher.
//
// The transport:
//   - Dials a single signed WebSocket connection and introduces itself with
//     a hello message
//   - Collapses concurrent connect attempts into one dial
//   - Sends bids as JSON envelopes
//   - Decodes inbound price updates and market basis announcements and hands
//     them to an Inbound handler (the proxy)
//
// Reconnection is driven from outside by calling ConnectRemote periodically.
package connection
