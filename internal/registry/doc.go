// Package registry defines the read-only registry model consumed by the
// exposure rule engine.
//
// A Snapshot carries all entities, devices, and areas as of a single
// read, with lookup indexes for device resolution and id-or-name area
// resolution. The Provider interface abstracts where snapshots come
// from; internal/hass implements it over the Home Assistant WebSocket
// API, and tests construct snapshots directly with NewSnapshot.
//
// Nothing in this package mutates registry state.
package registry
