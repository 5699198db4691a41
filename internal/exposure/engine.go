package exposure

import "github.com/nerrad567/exposure-core/internal/registry"

// Reason categorises why an entity was excluded.
type Reason string

// Exclusion reason categories, in tier order.
const (
	ReasonEntityOverride Reason = "entity_override"
	ReasonDeviceOverride Reason = "device_override"
	ReasonPattern        Reason = "pattern"
	ReasonArea           Reason = "area"
)

// Result is the classification of every candidate entity in a snapshot.
//
// Exposed, Excluded, and Unset partition the candidate set.
// ExplicitExclusions is the subset of Excluded that came from an
// entity or device override. ExclusionReasons maps each reason
// category to the entity ids excluded for it.
type Result struct {
	Exposed            []string            `json:"exposed"`
	Excluded           []string            `json:"excluded"`
	ExplicitExclusions []string            `json:"explicit_exclusions"`
	Unset              []string            `json:"unset"`
	ExclusionReasons   map[string][]string `json:"exclusion_reasons"`
}

// tier identifies which rule tier classified an entity. Lower tiers
// win; evaluation stops at the first match.
type tier int

const (
	tierSkipped tier = iota // failed the candidate filter
	tierEntityExclude
	tierDeviceExclude
	tierPattern
	tierArea
	tierEntityInclude
	tierDeviceInclude
	tierDomain // exposed by domain default
	tierUnset  // no rule applies
)

// classification records how one entity was classified, with enough
// detail for the explainer to name the matched rule.
type classification struct {
	tier    tier
	pattern string // matched pattern text (tierPattern)
	areaRef string // configured area reference that matched (tierArea)
	skip    string // candidate filter failure (tierSkipped)
}

func (c classification) excluded() bool {
	switch c.tier {
	case tierEntityExclude, tierDeviceExclude, tierPattern, tierArea:
		return true
	}
	return false
}

func (c classification) explicit() bool {
	return c.tier == tierEntityExclude || c.tier == tierDeviceExclude
}

func (c classification) reason() Reason {
	switch c.tier {
	case tierEntityExclude:
		return ReasonEntityOverride
	case tierDeviceExclude:
		return ReasonDeviceOverride
	case tierPattern:
		return ReasonPattern
	default:
		return ReasonArea
	}
}

// ruleSet is the per-computation view of a document, with the bulk
// rules resolved against the snapshot for O(1) per-entity checks.
type ruleSet struct {
	doc              *Document
	supportedDomains map[string]struct{}
	exposeDomains    map[string]struct{}

	// excludedAreas maps resolved area ids to the configured reference
	// that selected them. References that resolve to no area (by id or
	// case-insensitive name) exclude nothing; the validator is the only
	// place that reports them.
	excludedAreas map[string]string

	excludeEntities map[string]struct{}
	exposeEntities  map[string]struct{}
	excludeDevices  map[string]struct{}
	exposeDevices   map[string]struct{}
}

func newRuleSet(doc *Document, snap *registry.Snapshot) *ruleSet {
	rs := &ruleSet{
		doc:              doc,
		supportedDomains: make(map[string]struct{}, len(SupportedDomains)),
		exposeDomains:    make(map[string]struct{}, len(doc.BulkRules.ExposeDomains)),
		excludedAreas:    make(map[string]string, len(doc.BulkRules.ExcludeAreas)),
		excludeEntities:  make(map[string]struct{}),
		exposeEntities:   make(map[string]struct{}),
		excludeDevices:   make(map[string]struct{}),
		exposeDevices:    make(map[string]struct{}),
	}

	for _, d := range SupportedDomains {
		rs.supportedDomains[d] = struct{}{}
	}
	for _, d := range doc.BulkRules.ExposeDomains {
		rs.exposeDomains[d] = struct{}{}
	}
	for _, ref := range doc.BulkRules.ExcludeAreas {
		if area, ok := snap.ResolveArea(ref); ok {
			rs.excludedAreas[area.ID] = ref
		}
	}

	// Implied overrides are derived state, not user choices; they never
	// participate in classification.
	for id, ov := range doc.EntityOverrides {
		if ov.Excludes() {
			rs.excludeEntities[id] = struct{}{}
		} else if ov.Includes() {
			rs.exposeEntities[id] = struct{}{}
		}
	}
	for id, ov := range doc.DeviceOverrides {
		if ov.Excludes() {
			rs.excludeDevices[id] = struct{}{}
		} else if ov.Includes() {
			rs.exposeDevices[id] = struct{}{}
		}
	}

	return rs
}

// classify runs the candidate filter and the tier cascade for a single
// entity. The first matching tier wins. Compute and Explain both build
// on this so their orderings can never drift apart.
func (rs *ruleSet) classify(e registry.Entity, snap *registry.Snapshot) classification {
	domain := e.Domain()

	// Candidate filter. Not a classification outcome: skipped entities
	// appear in none of the result sets.
	if _, ok := rs.supportedDomains[domain]; !ok {
		return classification{tier: tierSkipped, skip: "unsupported domain"}
	}
	if e.Disabled() {
		return classification{tier: tierSkipped, skip: "entity is disabled"}
	}
	if e.Category != "" {
		return classification{tier: tierSkipped, skip: "diagnostic/config entity"}
	}
	if e.Hidden() {
		return classification{tier: tierSkipped, skip: "entity is hidden"}
	}

	// 1. Entity exclusion override (highest priority)
	if _, ok := rs.excludeEntities[e.ID]; ok {
		return classification{tier: tierEntityExclude}
	}

	// 2. Device exclusion override
	if e.DeviceID != "" {
		if _, ok := rs.excludeDevices[e.DeviceID]; ok {
			return classification{tier: tierDeviceExclude}
		}
	}

	// 3. Pattern exclusions apply to all entities, even ones with an
	// inclusion override below.
	for _, p := range rs.doc.BulkRules.ExcludePatterns {
		if MatchPattern(e.ID, p) {
			return classification{tier: tierPattern, pattern: p}
		}
	}

	// 4. Area exclusion via the entity's effective area
	if areaID := snap.EffectiveAreaID(e); areaID != "" {
		if ref, ok := rs.excludedAreas[areaID]; ok {
			return classification{tier: tierArea, areaRef: ref}
		}
	}

	// 5. Entity inclusion override
	if _, ok := rs.exposeEntities[e.ID]; ok {
		return classification{tier: tierEntityInclude}
	}

	// 6. Device inclusion override
	if e.DeviceID != "" {
		if _, ok := rs.exposeDevices[e.DeviceID]; ok {
			return classification{tier: tierDeviceInclude}
		}
	}

	// 7. Domain default (lowest priority)
	if _, ok := rs.exposeDomains[domain]; ok {
		return classification{tier: tierDomain}
	}
	return classification{tier: tierUnset}
}

// Compute classifies every entity in the snapshot against the document.
//
// It is a pure function: no side effects, deterministic for a given
// document and snapshot, and total - it never fails for a normalised
// document. Results are recomputed fresh on every call because registry
// and document state may have changed.
//
// Parameters:
//   - doc: Normalised configuration document
//   - snap: Registry snapshot taken for this evaluation
//
// Returns:
//   - *Result: Disjoint exposed/excluded/unset sets with reasons
func Compute(doc *Document, snap *registry.Snapshot) *Result {
	rs := newRuleSet(doc, snap)

	result := &Result{
		Exposed:            []string{},
		Excluded:           []string{},
		ExplicitExclusions: []string{},
		Unset:              []string{},
		ExclusionReasons: map[string][]string{
			string(ReasonEntityOverride): {},
			string(ReasonDeviceOverride): {},
			string(ReasonArea):           {},
			string(ReasonPattern):        {},
		},
	}

	for _, e := range snap.Entities {
		c := rs.classify(e, snap)
		switch {
		case c.tier == tierSkipped:
			// Not a candidate
		case c.excluded():
			result.Excluded = append(result.Excluded, e.ID)
			reason := string(c.reason())
			result.ExclusionReasons[reason] = append(result.ExclusionReasons[reason], e.ID)
			if c.explicit() {
				result.ExplicitExclusions = append(result.ExplicitExclusions, e.ID)
			}
		case c.tier == tierUnset:
			result.Unset = append(result.Unset, e.ID)
		default:
			result.Exposed = append(result.Exposed, e.ID)
		}
	}

	return result
}
