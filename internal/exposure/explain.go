package exposure

import (
	"fmt"

	"github.com/nerrad567/exposure-core/internal/registry"
)

// Explain returns a human-readable reason for a single entity's current
// classification.
//
// It runs the same tier cascade as Compute, so the explanation always
// names the rule the engine actually applied: the first matching tier,
// exclusions before inclusions, pattern before area.
//
// Parameters:
//   - entityID: The entity to explain
//   - doc: Normalised configuration document
//   - snap: Registry snapshot
//
// Returns:
//   - string: Tier-specific explanation, or a not-found message
func Explain(entityID string, doc *Document, snap *registry.Snapshot) string {
	var entity registry.Entity
	found := false
	for _, e := range snap.Entities {
		if e.ID == entityID {
			entity = e
			found = true
			break
		}
	}
	if !found {
		return fmt.Sprintf("Entity '%s' is not in the registry", entityID)
	}

	rs := newRuleSet(doc, snap)
	c := rs.classify(entity, snap)

	switch c.tier {
	case tierSkipped:
		return fmt.Sprintf("Not eligible for exposure: %s", c.skip)
	case tierEntityExclude:
		return "Explicitly excluded (entity override - highest priority)"
	case tierDeviceExclude:
		return "Excluded via device rule (device override)"
	case tierPattern:
		return fmt.Sprintf("Matches exclude pattern: %s", c.pattern)
	case tierArea:
		return fmt.Sprintf("In excluded area: %s", c.areaRef)
	case tierEntityInclude:
		return "Explicitly set to expose (individual entity rule)"
	case tierDeviceInclude:
		return "Exposed via device rule (all entities from this device)"
	case tierDomain:
		return fmt.Sprintf("Exposed via domain '%s' bulk rule", entity.Domain())
	default:
		return fmt.Sprintf("Domain '%s' is not in the expose list", entity.Domain())
	}
}
