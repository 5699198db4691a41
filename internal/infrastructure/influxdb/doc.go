// Package influxdb provides time-series recording of sync statistics.
//
// It wraps the InfluxDB v2 Go client with non-blocking batched writes.
// The integration is optional: when disabled in configuration, Connect
// returns ErrDisabled and the service runs without it. Sync history in
// SQLite stays the source of truth; InfluxDB adds the long-horizon
// view (exposure counts over time, sync durations, failure rates).
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//		// run without metrics
//	}
//	defer client.Close()
//
//	client.WriteSyncStats(influxdb.SyncStats{
//		Exposed: 42, Excluded: 7, Trigger: "manual", Status: "completed",
//	})
package influxdb
