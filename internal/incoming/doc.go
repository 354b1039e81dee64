// Package incoming defines the closed set of event types nodes may send to
// the hub, the immutable Event built from wire data, and the per-type
// handlers that apply each event's side effects.
//
// Handlers are stateless and do not know whether they run on the hub or on a
// node mirroring the hub's state; both sides call PostProcess with their own
// Directory.
package incoming
