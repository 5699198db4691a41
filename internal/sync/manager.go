package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/exposure-core/internal/exposure"
	"github.com/nerrad567/exposure-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/exposure-core/internal/infrastructure/logging"
	"github.com/nerrad567/exposure-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/exposure-core/internal/registry"
)

// Sync trigger kinds recorded in history.
const (
	TriggerManual = "manual"
	TriggerAPI    = "api"
	TriggerAuto   = "auto"
)

// defaultSyncTimeout bounds a full sync run including the registry fetch.
const defaultSyncTimeout = 60 * time.Second

// Broker is the subset of the MQTT client the manager uses. Nil means
// MQTT is disabled and events are simply not published.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	PublishString(topic, payload string) error
}

// StatsWriter records sync statistics to a time-series store. Nil means
// metrics are disabled.
type StatsWriter interface {
	WriteSyncStats(stats influxdb.SyncStats)
}

// FileWriter writes the managed entities file and backups.
type FileWriter interface {
	WriteEntitiesFile(exposed, explicitExclusions []string, entityConfig map[string]exposure.EntityConfig) error
	CreateBackup() (string, error)
}

// Manager orchestrates sync runs: load rules, snapshot the registry,
// compute exposure, write the managed file, and record the outcome.
//
// Thread Safety:
//   - Sync runs are serialized; a concurrent request gets
//     ErrSyncInProgress rather than queueing.
type Manager struct {
	repo     exposure.Repository
	provider registry.Provider
	writer   FileWriter
	broker   Broker
	stats    StatsWriter
	logger   *logging.Logger

	// debounce coalesces bursts of registry change events.
	debounce time.Duration

	runMu stdsync.Mutex

	timerMu    stdsync.Mutex
	timer      *time.Timer
	subscribed bool
}

// Options configures a Manager.
type Options struct {
	Repository exposure.Repository
	Provider   registry.Provider
	Writer     FileWriter

	// Broker and Stats are optional integrations; nil disables them.
	Broker Broker
	Stats  StatsWriter

	Logger *logging.Logger

	// Debounce is the quiet window after a registry change event
	// before an auto-sync fires.
	Debounce time.Duration
}

// NewManager creates a sync Manager.
func NewManager(opts Options) *Manager {
	return &Manager{
		repo:     opts.Repository,
		provider: opts.Provider,
		writer:   opts.Writer,
		broker:   opts.Broker,
		stats:    opts.Stats,
		logger:   opts.Logger,
		debounce: opts.Debounce,
	}
}

// syncEvent is the payload published on sync completion or failure.
type syncEvent struct {
	SyncID     string    `json:"sync_id"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	Exposed    int       `json:"exposed"`
	Excluded   int       `json:"excluded"`
	Unset      int       `json:"unset"`
	Explicit   int       `json:"explicit"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Sync performs one full sync run.
//
// Steps:
//  1. Load the rule document (defaults if none saved yet)
//  2. Snapshot the registry
//  3. Compute exposure
//  4. Back up the managed file (if backups enabled)
//  5. Write the managed entities file
//  6. Record history, stamp last_sync, publish events
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - trigger: What started the run (TriggerManual, TriggerAPI, TriggerAuto)
//
// Returns:
//   - *exposure.SyncRecord: The recorded run, also on failure
//   - error: ErrSyncInProgress, or the failure that aborted the run
func (m *Manager) Sync(ctx context.Context, trigger string) (*exposure.SyncRecord, error) {
	if !m.runMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultSyncTimeout)
	defer cancel()

	started := time.Now().UTC()

	doc, err := m.repo.LoadDocument(ctx)
	if errors.Is(err, exposure.ErrDocumentNotFound) {
		doc = exposure.DefaultDocument()
	} else if err != nil {
		return m.fail(ctx, started, trigger, fmt.Errorf("load document: %w", err))
	}

	snap, err := m.provider.Snapshot(ctx)
	if err != nil {
		return m.fail(ctx, started, trigger, fmt.Errorf("%w: %w", ErrSnapshotFailed, err))
	}

	result := exposure.Compute(doc, snap)

	if doc.Settings.Backups {
		if path, err := m.writer.CreateBackup(); err != nil {
			// A failed backup is not fatal; the write is atomic.
			m.logger.Warn("backup failed, continuing", "error", err)
		} else if path != "" {
			m.logger.Debug("backup created", "path", path)
		}
	}

	if err := m.writer.WriteEntitiesFile(result.Exposed, result.ExplicitExclusions, doc.EntityConfig); err != nil {
		return m.fail(ctx, started, trigger, fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}

	finished := time.Now().UTC()
	rec := &exposure.SyncRecord{
		ID:         uuid.New().String(),
		StartedAt:  started,
		FinishedAt: finished,
		Status:     exposure.SyncStatusCompleted,
		Exposed:    len(result.Exposed),
		Excluded:   len(result.Excluded),
		Unset:      len(result.Unset),
		Explicit:   len(result.ExplicitExclusions),
		Trigger:    trigger,
	}

	if err := m.repo.RecordSync(ctx, rec); err != nil {
		m.logger.Warn("failed to record sync history", "error", err)
	}

	doc.LastSync = finished
	if err := m.repo.SaveDocument(ctx, doc); err != nil {
		m.logger.Warn("failed to stamp last_sync", "error", err)
	}

	m.publishEvent(mqtt.Topics{}.SyncCompleted(), rec)
	m.writeStats(rec, started, finished)

	m.logger.Info("sync completed",
		"trigger", trigger,
		"exposed", rec.Exposed,
		"excluded", rec.Excluded,
		"unset", rec.Unset,
		"duration", finished.Sub(started).String(),
	)

	return rec, nil
}

// fail records and publishes a failed run, then returns the error.
func (m *Manager) fail(ctx context.Context, started time.Time, trigger string, cause error) (*exposure.SyncRecord, error) {
	finished := time.Now().UTC()
	rec := &exposure.SyncRecord{
		ID:         uuid.New().String(),
		StartedAt:  started,
		FinishedAt: finished,
		Status:     exposure.SyncStatusFailed,
		Trigger:    trigger,
		Error:      cause.Error(),
	}

	if err := m.repo.RecordSync(ctx, rec); err != nil {
		m.logger.Warn("failed to record sync failure", "error", err)
	}

	m.publishEvent(mqtt.Topics{}.SyncFailed(), rec)
	m.writeStats(rec, started, finished)

	m.logger.Error("sync failed", "trigger", trigger, "error", cause)

	return rec, cause
}

// publishEvent publishes a sync event if MQTT is enabled.
func (m *Manager) publishEvent(topic string, rec *exposure.SyncRecord) {
	if m.broker == nil {
		return
	}

	payload, err := json.Marshal(syncEvent{
		SyncID:     rec.ID,
		Trigger:    rec.Trigger,
		Status:     rec.Status,
		Exposed:    rec.Exposed,
		Excluded:   rec.Excluded,
		Unset:      rec.Unset,
		Explicit:   rec.Explicit,
		Error:      rec.Error,
		FinishedAt: rec.FinishedAt,
	})
	if err != nil {
		return
	}

	if err := m.broker.PublishString(topic, string(payload)); err != nil {
		m.logger.Warn("failed to publish sync event", "topic", topic, "error", err)
	}
}

// writeStats records run counters to the time-series store if enabled.
func (m *Manager) writeStats(rec *exposure.SyncRecord, started, finished time.Time) {
	if m.stats == nil {
		return
	}

	m.stats.WriteSyncStats(influxdb.SyncStats{
		Exposed:    rec.Exposed,
		Excluded:   rec.Excluded,
		Unset:      rec.Unset,
		Explicit:   rec.Explicit,
		Trigger:    rec.Trigger,
		Status:     rec.Status,
		DurationMS: finished.Sub(started).Milliseconds(),
	})
}

// NotifyDocumentUpdated publishes a document-updated event. Called by
// the API layer after a successful save.
func (m *Manager) NotifyDocumentUpdated() {
	if m.broker == nil {
		return
	}

	payload := fmt.Sprintf(`{"updated_at":"%s"}`, time.Now().UTC().Format(time.RFC3339))
	if err := m.broker.PublishString(mqtt.Topics{}.DocumentUpdated(), payload); err != nil {
		m.logger.Warn("failed to publish document event", "error", err)
	}
}

// StartAutoSync subscribes to registry change events and schedules
// debounced sync runs.
//
// Registry changes often arrive in bursts (renaming an area touches
// every entity in it), so each event resets the debounce timer and the
// sync fires only after a quiet window. The document's auto_sync
// setting is checked when the timer fires, not at subscribe time, so
// toggling it takes effect without a restart.
//
// Safe to call once; subsequent calls are no-ops.
func (m *Manager) StartAutoSync(ctx context.Context) error {
	if m.broker == nil {
		return nil
	}

	m.timerMu.Lock()
	if m.subscribed {
		m.timerMu.Unlock()
		return nil
	}
	m.subscribed = true
	m.timerMu.Unlock()

	return m.broker.Subscribe(mqtt.Topics{}.RegistryChanged(), 1, func(topic string, payload []byte) error {
		m.scheduleAutoSync(ctx)
		return nil
	})
}

// scheduleAutoSync resets the debounce timer.
func (m *Manager) scheduleAutoSync(ctx context.Context) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}

	m.timer = time.AfterFunc(m.debounce, func() {
		m.runAutoSync(ctx)
	})
}

// runAutoSync fires a sync run if auto_sync is enabled.
func (m *Manager) runAutoSync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	doc, err := m.repo.LoadDocument(ctx)
	if err != nil && !errors.Is(err, exposure.ErrDocumentNotFound) {
		m.logger.Warn("auto-sync skipped, cannot load document", "error", err)
		return
	}
	if doc != nil && !doc.Settings.AutoSync {
		m.logger.Debug("auto-sync disabled in settings, skipping")
		return
	}

	if _, err := m.Sync(ctx, TriggerAuto); err != nil && !errors.Is(err, ErrSyncInProgress) {
		m.logger.Warn("auto-sync run failed", "error", err)
	}
}

// Stop cancels any pending debounced auto-sync.
func (m *Manager) Stop() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
