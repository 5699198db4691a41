package api

import (
	"errors"
	"net/http"
	"strconv"

	syncpkg "github.com/nerrad567/exposure-core/internal/sync"
)

// Sync history pagination bounds.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// handleSync triggers a sync run and returns the recorded outcome.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	rec, err := s.syncer.Sync(r.Context(), syncpkg.TriggerAPI)
	if errors.Is(err, syncpkg.ErrSyncInProgress) {
		writeError(w, http.StatusConflict, ErrCodeConflict, "a sync is already in progress")
		return
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, syncpkg.ErrSnapshotFailed) {
			status = http.StatusBadGateway
		}
		if rec == nil {
			writeError(w, status, ErrCodeInternal, err.Error())
			return
		}
		// The failed record carries counts and the error message
		writeJSON(w, status, rec)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleSyncHistory returns recent sync runs, newest first.
func (s *Server) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.repo.ListSyncs(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list sync history", "error", err)
		writeInternalError(w, "failed to list sync history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"syncs": records,
		"count": len(records),
	})
}
