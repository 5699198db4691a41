package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/exposure-core/internal/exposure"
)

// reasonResponse explains why one entity is or is not exposed.
type reasonResponse struct {
	EntityID string `json:"entity_id"`
	Reason   string `json:"reason"`
}

// handleEntityReason explains the exposure decision for one entity
// under the stored rules.
//
// Unknown entity ids still return 200: "not in the registry" is itself
// the answer the admin is asking for.
func (s *Server) handleEntityReason(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "id")
	if entityID == "" {
		writeBadRequest(w, "entity id is required")
		return
	}

	doc, err := s.repo.LoadDocument(r.Context())
	if errors.Is(err, exposure.ErrDocumentNotFound) {
		doc = exposure.DefaultDocument()
	} else if err != nil {
		s.logger.Error("failed to load document", "error", err)
		writeInternalError(w, "failed to load document")
		return
	}

	snap, err := s.provider.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("registry snapshot failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "registry unavailable")
		return
	}

	writeJSON(w, http.StatusOK, reasonResponse{
		EntityID: entityID,
		Reason:   exposure.Explain(entityID, doc, snap),
	})
}
