// Package agent provides DeviceAgent, the local agent side of a session.
// It submits demand curves as bids over the bound session and records the
// prices it receives back.
package agent
