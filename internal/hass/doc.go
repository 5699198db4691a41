// Package hass implements the registry provider over the Home
// Assistant WebSocket API.
//
// The client performs the token handshake (auth_required -> auth ->
// auth_ok) and then issues the registry list commands:
//
//	config/entity_registry/list
//	config/device_registry/list
//	config/area_registry/list
//
// The three responses are assembled into a registry.Snapshot. A fresh
// connection is dialled per snapshot; registry reads are infrequent and
// bulk, so persistent-connection management buys nothing here.
package hass
