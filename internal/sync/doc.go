// Package sync orchestrates exposure sync runs.
//
// A run loads the rule document, snapshots the entity registry,
// computes exposure, writes the managed entities file, and records the
// outcome in sync history. Runs are serialized; a request arriving
// while one is executing gets ErrSyncInProgress.
//
// # Triggers
//
//   - manual: operator-initiated (CLI or direct call)
//   - api: POST /api/v1/sync
//   - auto: debounced reaction to registry change events over MQTT
//
// Auto-sync honours the document's auto_sync setting at fire time, so
// it can be toggled without restarting the service.
package sync
