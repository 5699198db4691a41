package api

import (
	"net/http"

	"github.com/nerrad567/exposure-core/internal/exposure"
)

// handlePreview computes the exposure summary for a candidate document
// without saving it or touching the managed file.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		writeBadRequest(w, "invalid document: "+err.Error())
		return
	}

	snap, err := s.provider.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("registry snapshot failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "registry unavailable")
		return
	}

	writeJSON(w, http.StatusOK, exposure.Summarize(doc, snap))
}

// validateResponse is the body returned by rule validation.
type validateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// handleValidate checks a candidate document against the live registry.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		writeBadRequest(w, "invalid document: "+err.Error())
		return
	}

	snap, err := s.provider.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("registry snapshot failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "registry unavailable")
		return
	}

	findings := exposure.Validate(doc, snap)
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:  len(findings) == 0,
		Errors: findings,
	})
}
