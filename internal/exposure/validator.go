package exposure

import (
	"fmt"
	"sort"

	"github.com/nerrad567/exposure-core/internal/registry"
)

// Validate checks a document for user errors and returns human-readable
// messages, one per problem. An empty slice means the document is valid.
//
// All checks are independent and accumulated rather than
// short-circuited, so a UI can display every problem at once:
//   - each exclude pattern must pass the static glob syntax check
//   - each excluded area must resolve by identifier or name
//   - no entity id may carry both an expose and an exclude override
//   - the computed exposed set must not be empty
//
// The conflict check deliberately ignores the override source: a
// contradictory document is a user error even where the engine's tier
// order lets the exclusion win.
func Validate(doc *Document, snap *registry.Snapshot) []string {
	errors := []string{}

	for _, pattern := range doc.BulkRules.ExcludePatterns {
		if !ValidatePattern(pattern) {
			errors = append(errors, fmt.Sprintf("Invalid pattern: `%s` — check syntax", pattern))
		}
	}

	for _, ref := range doc.BulkRules.ExcludeAreas {
		if _, ok := snap.ResolveArea(ref); !ok {
			errors = append(errors, fmt.Sprintf("Area not found: `%s`", ref))
		}
	}

	// Compare the derived expose/exclude sets rather than assuming the
	// storage shape keeps them disjoint.
	exposeSet := map[string]struct{}{}
	excludeSet := map[string]struct{}{}
	for id, ov := range doc.EntityOverrides {
		if ov.Expose == nil {
			continue
		}
		if *ov.Expose {
			exposeSet[id] = struct{}{}
		} else {
			excludeSet[id] = struct{}{}
		}
	}
	var conflicts []string
	for id := range exposeSet {
		if _, ok := excludeSet[id]; ok {
			conflicts = append(conflicts, id)
		}
	}
	sort.Strings(conflicts)
	for _, id := range conflicts {
		errors = append(errors, fmt.Sprintf("Conflict: `%s` is in both expose and exclude", id))
	}

	result := Compute(doc, snap)
	if len(result.Exposed) == 0 {
		errors = append(errors, "No entities will be exposed — add domains or entities")
	}

	return errors
}
