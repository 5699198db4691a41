package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/exposure-core/internal/exposure"
)

// decodeDocument reads a rule document from the request body.
//
// The body is decoded over a default document so omitted settings keep
// their defaults (all true) rather than collapsing to false.
func decodeDocument(r *http.Request) (*exposure.Document, error) {
	doc := exposure.DefaultDocument()
	if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}

// handleGetDocument returns the stored rule document, or the defaults
// if none has been saved yet.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.LoadDocument(r.Context())
	if errors.Is(err, exposure.ErrDocumentNotFound) {
		doc = exposure.DefaultDocument()
	} else if err != nil {
		s.logger.Error("failed to load document", "error", err)
		writeInternalError(w, "failed to load document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// putDocumentResponse is the body returned after saving a document.
type putDocumentResponse struct {
	Document *exposure.Document `json:"document"`

	// Warnings are non-blocking validation findings against the live
	// registry. A document with warnings still saves.
	Warnings []string `json:"warnings"`
}

// handlePutDocument replaces the stored rule document.
//
// Validation findings are returned as warnings but never block the
// save: an unknown area or malformed pattern is inert at sync time,
// and the admin may be configuring ahead of the registry.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		writeBadRequest(w, "invalid document: "+err.Error())
		return
	}

	if err := s.repo.SaveDocument(r.Context(), doc); err != nil {
		s.logger.Error("failed to save document", "error", err)
		writeInternalError(w, "failed to save document")
		return
	}

	s.syncer.NotifyDocumentUpdated()

	warnings := []string{}
	if snap, err := s.provider.Snapshot(r.Context()); err == nil {
		warnings = exposure.Validate(doc, snap)
	} else {
		s.logger.Warn("registry unavailable, skipping validation warnings", "error", err)
	}

	writeJSON(w, http.StatusOK, putDocumentResponse{
		Document: doc,
		Warnings: warnings,
	})
}
