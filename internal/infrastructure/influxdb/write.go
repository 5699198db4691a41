package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// SyncStats holds the per-run counters recorded after a sync.
type SyncStats struct {
	Exposed  int
	Excluded int
	Unset    int
	Explicit int

	// Trigger identifies what started the run ("manual", "auto", "api").
	Trigger string

	// Status is "completed" or "failed".
	Status string

	// DurationMS is the wall-clock duration of the run.
	DurationMS int64
}

// WriteSyncStats records the outcome of a sync run.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Dropped on disconnect rather than queued, since sync history in
// SQLite remains the source of truth.
//
// Parameters:
//   - stats: Counters and metadata for the completed run
func (c *Client) WriteSyncStats(stats SyncStats) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sync_runs",
		map[string]string{
			"trigger": stats.Trigger,
			"status":  stats.Status,
		},
		map[string]interface{}{
			"exposed":     stats.Exposed,
			"excluded":    stats.Excluded,
			"unset":       stats.Unset,
			"explicit":    stats.Explicit,
			"duration_ms": stats.DurationMS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
