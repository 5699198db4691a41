package exposure

import "errors"

// Sentinel errors for the exposure package.
// Check with errors.Is after unwrapping.
var (
	// ErrDocumentNotFound is returned when no configuration document
	// has been saved yet.
	ErrDocumentNotFound = errors.New("exposure: document not found")
)
