package exposure

import (
	"strings"

	"github.com/nerrad567/exposure-core/internal/registry"
)

// Preview sample sizes for the UI.
const (
	sampleExposedLimit  = 20
	sampleExcludedLimit = 10
)

// Summary is the exposure preview shown before a sync: totals, entities
// grouped by domain, and short samples.
type Summary struct {
	TotalExposed     int                 `json:"total_exposed"`
	TotalExcluded    int                 `json:"total_excluded"`
	ExposedEntities  []string            `json:"exposed_entities"`
	ExcludedEntities []string            `json:"excluded_entities"`
	ExposedByDomain  map[string][]string `json:"exposed_by_domain"`
	ExcludedByDomain map[string][]string `json:"excluded_by_domain"`
	ExclusionReasons map[string][]string `json:"exclusion_reasons"`
	SampleExposed    []string            `json:"sample_exposed"`
	SampleExcluded   []string            `json:"sample_excluded"`
}

// Summarize computes exposure and packages the result for preview.
//
// Parameters:
//   - doc: Normalised configuration document
//   - snap: Registry snapshot
//
// Returns:
//   - *Summary: Totals, per-domain groupings, and samples
func Summarize(doc *Document, snap *registry.Snapshot) *Summary {
	result := Compute(doc, snap)

	return &Summary{
		TotalExposed:     len(result.Exposed),
		TotalExcluded:    len(result.Excluded),
		ExposedEntities:  result.Exposed,
		ExcludedEntities: result.Excluded,
		ExposedByDomain:  groupByDomain(result.Exposed),
		ExcludedByDomain: groupByDomain(result.Excluded),
		ExclusionReasons: result.ExclusionReasons,
		SampleExposed:    sample(result.Exposed, sampleExposedLimit),
		SampleExcluded:   sample(result.Excluded, sampleExcludedLimit),
	}
}

// groupByDomain buckets entity ids by their domain prefix.
func groupByDomain(entityIDs []string) map[string][]string {
	grouped := map[string][]string{}
	for _, id := range entityIDs {
		domain := id
		if i := strings.IndexByte(id, '.'); i >= 0 {
			domain = id[:i]
		}
		grouped[domain] = append(grouped[domain], id)
	}
	return grouped
}

func sample(ids []string, limit int) []string {
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return append([]string{}, ids...)
}
