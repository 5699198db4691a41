package exposure

import (
	"strings"
	"testing"

	"github.com/nerrad567/exposure-core/internal/registry"
)

func explainSnapshot() *registry.Snapshot {
	return registry.NewSnapshot(
		[]registry.Entity{
			{ID: "light.kitchen", AreaID: "kitchen"},
			{ID: "light.garage", AreaID: "garage"},
			{ID: "switch.on_device", DeviceID: "dev-1"},
			{ID: "light.disabled", DisabledBy: "user"},
		},
		[]registry.Device{{ID: "dev-1"}},
		[]registry.Area{
			{ID: "kitchen", Name: "Kitchen"},
			{ID: "garage", Name: "Garage"},
		},
	)
}

func TestExplain(t *testing.T) {
	snap := explainSnapshot()

	tests := []struct {
		name     string
		entityID string
		mutate   func(*Document)
		want     string
	}{
		{
			name:     "entity exclusion override",
			entityID: "light.kitchen",
			mutate: func(d *Document) {
				d.EntityOverrides["light.kitchen"] = Override{Expose: boolPtr(false)}
			},
			want: "Explicitly excluded (entity override - highest priority)",
		},
		{
			name:     "device exclusion override",
			entityID: "switch.on_device",
			mutate: func(d *Document) {
				d.DeviceOverrides["dev-1"] = Override{Expose: boolPtr(false)}
			},
			want: "Excluded via device rule (device override)",
		},
		{
			name:     "pattern exclusion",
			entityID: "light.kitchen",
			mutate: func(d *Document) {
				d.BulkRules.ExcludePatterns = []string{"light.*"}
			},
			want: "Matches exclude pattern: light.*",
		},
		{
			name:     "area exclusion",
			entityID: "light.garage",
			mutate: func(d *Document) {
				d.BulkRules.ExcludeAreas = []string{"garage"}
			},
			want: "In excluded area: garage",
		},
		{
			name:     "entity inclusion override",
			entityID: "switch.on_device",
			mutate: func(d *Document) {
				d.EntityOverrides["switch.on_device"] = Override{Expose: boolPtr(true)}
			},
			want: "Explicitly set to expose (individual entity rule)",
		},
		{
			name:     "device inclusion override",
			entityID: "switch.on_device",
			mutate: func(d *Document) {
				d.DeviceOverrides["dev-1"] = Override{Expose: boolPtr(true)}
			},
			want: "Exposed via device rule (all entities from this device)",
		},
		{
			name:     "domain default",
			entityID: "light.kitchen",
			mutate:   func(*Document) {},
			want:     "Exposed via domain 'light' bulk rule",
		},
		{
			name:     "no rule applies",
			entityID: "switch.on_device",
			mutate:   func(*Document) {},
			want:     "Domain 'switch' is not in the expose list",
		},
		{
			name:     "not a candidate",
			entityID: "light.disabled",
			mutate:   func(*Document) {},
			want:     "Not eligible for exposure: entity is disabled",
		},
		{
			name:     "unknown entity",
			entityID: "light.missing",
			mutate:   func(*Document) {},
			want:     "Entity 'light.missing' is not in the registry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDoc([]string{"light"}, nil, nil)
			tt.mutate(doc)

			if got := Explain(tt.entityID, doc, snap); got != tt.want {
				t.Errorf("Explain(%q) = %q, want %q", tt.entityID, got, tt.want)
			}
		})
	}
}

// TestExplain_MirrorsEngineOrder pins the explainer to the engine's
// exclusion-before-inclusion ordering: an entity with a selected
// inclusion override that also matches an exclude pattern must be
// explained as pattern-excluded, exactly as Compute classifies it.
func TestExplain_MirrorsEngineOrder(t *testing.T) {
	snap := explainSnapshot()

	doc := testDoc([]string{"light"}, nil, []string{"light.*"})
	doc.EntityOverrides["light.kitchen"] = Override{Expose: boolPtr(true)}

	result := Compute(doc, snap)
	if !contains(result.ExclusionReasons["pattern"], "light.kitchen") {
		t.Fatal("engine should exclude light.kitchen by pattern")
	}

	got := Explain("light.kitchen", doc, snap)
	if !strings.HasPrefix(got, "Matches exclude pattern:") {
		t.Errorf("Explain() = %q, want a pattern exclusion explanation", got)
	}
}
