// Package monitoring lets observers attach to a changing set of event
// publishers.
//
// Publishers come in two roles, agent and matcher, and expose
// AddObserver/RemoveObserver/ObserverID. A Registry owned by one observer
// tracks every publisher it has been told about (known) and the subset it is
// currently subscribed to (active), and reconciles the two against an
// optional allow-list of publisher ids.
package monitoring
