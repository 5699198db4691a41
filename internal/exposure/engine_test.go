package exposure

import (
	"reflect"
	"sort"
	"testing"

	"github.com/nerrad567/exposure-core/internal/registry"
)

func boolPtr(b bool) *bool {
	return &b
}

// testDoc returns a normalised document with the given bulk rules and
// no overrides.
func testDoc(domains, areas, patterns []string) *Document {
	doc := DefaultDocument()
	doc.BulkRules.ExposeDomains = domains
	doc.BulkRules.ExcludeAreas = areas
	doc.BulkRules.ExcludePatterns = patterns
	doc.Normalize()
	return doc
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestCompute_CandidateFilter(t *testing.T) {
	doc := testDoc([]string{"light", "sensor"}, nil, nil)

	snap := registry.NewSnapshot(
		[]registry.Entity{
			{ID: "light.ok"},
			{ID: "weather.home"},                             // unsupported domain
			{ID: "light.disabled", DisabledBy: "user"},       // disabled
			{ID: "sensor.diag", Category: "diagnostic"},      // categorised
			{ID: "light.hidden", HiddenBy: "integration"},    // hidden
		},
		nil, nil,
	)

	result := Compute(doc, snap)

	all := append(append(append([]string{}, result.Exposed...), result.Excluded...), result.Unset...)
	for _, skipped := range []string{"weather.home", "light.disabled", "sensor.diag", "light.hidden"} {
		if contains(all, skipped) {
			t.Errorf("entity %s should have been filtered out entirely", skipped)
		}
	}
	if !contains(result.Exposed, "light.ok") {
		t.Error("light.ok should be exposed")
	}
}

func TestCompute_PatternBeatsInclusionOverride(t *testing.T) {
	doc := testDoc([]string{"light"}, nil, []string{"*_test"})
	doc.EntityOverrides["light.something_test"] = Override{
		Expose: boolPtr(true),
		Source: SourceSelected,
	}

	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "light.something_test"}},
		nil, nil,
	)

	result := Compute(doc, snap)

	if !contains(result.Excluded, "light.something_test") {
		t.Fatal("entity should be excluded despite inclusion override")
	}
	if !contains(result.ExclusionReasons["pattern"], "light.something_test") {
		t.Error("exclusion reason should be pattern")
	}
	if contains(result.ExplicitExclusions, "light.something_test") {
		t.Error("pattern exclusion must not count as explicit")
	}
}

func TestCompute_ExclusionTierOrder(t *testing.T) {
	// The entity matches all four exclusion tiers at once; only the
	// first reason may be recorded.
	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "light.garage_main", DeviceID: "dev-1", AreaID: "garage"}},
		[]registry.Device{{ID: "dev-1", AreaID: "garage"}},
		[]registry.Area{{ID: "garage", Name: "Garage"}},
	)

	base := func() *Document {
		return testDoc([]string{"light"}, []string{"garage"}, []string{"light.garage*"})
	}

	t.Run("entity override beats everything", func(t *testing.T) {
		doc := base()
		doc.EntityOverrides["light.garage_main"] = Override{Expose: boolPtr(false)}
		doc.DeviceOverrides["dev-1"] = Override{Expose: boolPtr(false)}

		result := Compute(doc, snap)
		if !contains(result.ExclusionReasons["entity_override"], "light.garage_main") {
			t.Errorf("want entity_override reason, got %v", result.ExclusionReasons)
		}
		if !contains(result.ExplicitExclusions, "light.garage_main") {
			t.Error("entity override exclusion must be explicit")
		}
	})

	t.Run("device override beats pattern and area", func(t *testing.T) {
		doc := base()
		doc.DeviceOverrides["dev-1"] = Override{Expose: boolPtr(false)}

		result := Compute(doc, snap)
		if !contains(result.ExclusionReasons["device_override"], "light.garage_main") {
			t.Errorf("want device_override reason, got %v", result.ExclusionReasons)
		}
		if !contains(result.ExplicitExclusions, "light.garage_main") {
			t.Error("device override exclusion must be explicit")
		}
	})

	t.Run("pattern beats area", func(t *testing.T) {
		doc := base()

		result := Compute(doc, snap)
		if !contains(result.ExclusionReasons["pattern"], "light.garage_main") {
			t.Errorf("want pattern reason, got %v", result.ExclusionReasons)
		}
	})

	t.Run("area when nothing else matches", func(t *testing.T) {
		doc := testDoc([]string{"light"}, []string{"garage"}, nil)

		result := Compute(doc, snap)
		if !contains(result.ExclusionReasons["area"], "light.garage_main") {
			t.Errorf("want area reason, got %v", result.ExclusionReasons)
		}
	})
}

func TestCompute_ImpliedOverrideIgnored(t *testing.T) {
	doc := testDoc([]string{"light"}, nil, nil)
	doc.EntityOverrides["light.kitchen"] = Override{
		Expose: boolPtr(false),
		Source: SourceImplied,
	}

	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "light.kitchen"}},
		nil, nil,
	)

	result := Compute(doc, snap)

	if !contains(result.Exposed, "light.kitchen") {
		t.Error("implied exclusion must not affect classification; domain default should expose")
	}
	if contains(result.Excluded, "light.kitchen") {
		t.Error("entity must not be excluded by an implied override")
	}
}

func TestCompute_LegacyOverrideWithoutSourceIsSelected(t *testing.T) {
	doc := testDoc([]string{"light"}, nil, nil)
	doc.EntityOverrides["light.kitchen"] = Override{Expose: boolPtr(false)}

	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "light.kitchen"}},
		nil, nil,
	)

	result := Compute(doc, snap)

	if !contains(result.Excluded, "light.kitchen") {
		t.Error("override without source must behave as selected")
	}
}

func TestCompute_AreaExclusion(t *testing.T) {
	doc := testDoc([]string{"light"}, []string{"garage"}, nil)

	snap := registry.NewSnapshot(
		[]registry.Entity{
			{ID: "light.garage", AreaID: "garage"},
			{ID: "light.kitchen", AreaID: "kitchen"},
		},
		nil,
		[]registry.Area{
			{ID: "garage", Name: "Garage"},
			{ID: "kitchen", Name: "Kitchen"},
		},
	)

	result := Compute(doc, snap)

	if !contains(result.Excluded, "light.garage") {
		t.Error("light.garage should be excluded")
	}
	if !contains(result.ExclusionReasons["area"], "light.garage") {
		t.Error("light.garage exclusion reason should be area")
	}
	if !contains(result.Exposed, "light.kitchen") {
		t.Error("light.kitchen should be exposed")
	}
}

func TestCompute_AreaExclusionByDisplayName(t *testing.T) {
	doc := testDoc([]string{"light"}, []string{"gArAgE"}, nil)

	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "light.garage", AreaID: "garage_area_1"}},
		nil,
		[]registry.Area{{ID: "garage_area_1", Name: "Garage"}},
	)

	result := Compute(doc, snap)

	if !contains(result.Excluded, "light.garage") {
		t.Error("case-insensitive area name match should exclude the entity")
	}
}

func TestCompute_AreaInheritedFromDevice(t *testing.T) {
	doc := testDoc([]string{"cover"}, []string{"garage"}, nil)

	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "cover.garage_door", DeviceID: "dev-1"}},
		[]registry.Device{{ID: "dev-1", AreaID: "garage"}},
		[]registry.Area{{ID: "garage", Name: "Garage"}},
	)

	result := Compute(doc, snap)

	if !contains(result.Excluded, "cover.garage_door") {
		t.Error("device-inherited area should exclude the entity")
	}
}

func TestCompute_UnknownAreaExcludesNothing(t *testing.T) {
	doc := testDoc([]string{"light"}, []string{"attic"}, nil)

	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "light.kitchen", AreaID: "kitchen"}},
		nil,
		[]registry.Area{{ID: "kitchen", Name: "Kitchen"}},
	)

	result := Compute(doc, snap)

	if !contains(result.Exposed, "light.kitchen") {
		t.Error("unresolvable area reference must not exclude anything")
	}
}

func TestCompute_MalformedPatternNeverMatches(t *testing.T) {
	doc := testDoc([]string{"light"}, nil, []string{"light.[bad"})

	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "light.kitchen"}},
		nil, nil,
	)

	result := Compute(doc, snap)

	if !contains(result.Exposed, "light.kitchen") {
		t.Error("malformed pattern must be treated as never matching")
	}
}

func TestCompute_EntityOverrideExclusionIsExplicit(t *testing.T) {
	doc := testDoc([]string{"light"}, nil, nil)
	doc.EntityOverrides["light.kitchen"] = Override{Expose: boolPtr(false)}

	snap := registry.NewSnapshot(
		[]registry.Entity{{ID: "light.kitchen"}},
		nil, nil,
	)

	result := Compute(doc, snap)

	if !contains(result.Excluded, "light.kitchen") {
		t.Fatal("light.kitchen should be excluded")
	}
	if !contains(result.ExclusionReasons["entity_override"], "light.kitchen") {
		t.Error("reason should be entity_override")
	}
	if !contains(result.ExplicitExclusions, "light.kitchen") {
		t.Error("light.kitchen should be in explicit exclusions")
	}
}

func TestCompute_InclusionOverrides(t *testing.T) {
	doc := testDoc(nil, nil, nil)
	doc.EntityOverrides["sensor.special"] = Override{Expose: boolPtr(true)}
	doc.DeviceOverrides["dev-1"] = Override{Expose: boolPtr(true)}

	snap := registry.NewSnapshot(
		[]registry.Entity{
			{ID: "sensor.special"},
			{ID: "switch.on_device", DeviceID: "dev-1"},
			{ID: "light.plain"},
		},
		[]registry.Device{{ID: "dev-1"}},
		nil,
	)

	result := Compute(doc, snap)

	if !contains(result.Exposed, "sensor.special") {
		t.Error("entity inclusion override should expose sensor.special")
	}
	if !contains(result.Exposed, "switch.on_device") {
		t.Error("device inclusion override should expose switch.on_device")
	}
	if !contains(result.Unset, "light.plain") {
		t.Error("entity without any rule should be unset")
	}
}

func TestCompute_EmptyDomainsAllUnset(t *testing.T) {
	doc := testDoc(nil, nil, nil)

	snap := registry.NewSnapshot(
		[]registry.Entity{
			{ID: "light.kitchen"},
			{ID: "switch.plug"},
		},
		nil, nil,
	)

	result := Compute(doc, snap)

	if len(result.Exposed) != 0 {
		t.Errorf("Exposed = %v, want empty", result.Exposed)
	}
	if len(result.Excluded) != 0 {
		t.Errorf("Excluded = %v, want empty", result.Excluded)
	}
	wantUnset := []string{"light.kitchen", "switch.plug"}
	if !reflect.DeepEqual(result.Unset, wantUnset) {
		t.Errorf("Unset = %v, want %v", result.Unset, wantUnset)
	}
}

func TestCompute_Partition(t *testing.T) {
	doc := testDoc([]string{"light"}, []string{"garage"}, []string{"*_test"})
	doc.EntityOverrides["switch.special"] = Override{Expose: boolPtr(true)}

	snap := registry.NewSnapshot(
		[]registry.Entity{
			{ID: "light.kitchen", AreaID: "kitchen"},
			{ID: "light.garage", AreaID: "garage"},
			{ID: "light.motion_test"},
			{ID: "switch.special"},
			{ID: "switch.plain"},
			{ID: "weather.home"}, // not a candidate
		},
		nil,
		[]registry.Area{
			{ID: "garage", Name: "Garage"},
			{ID: "kitchen", Name: "Kitchen"},
		},
	)

	result := Compute(doc, snap)

	candidates := []string{"light.kitchen", "light.garage", "light.motion_test", "switch.special", "switch.plain"}

	var all []string
	all = append(all, result.Exposed...)
	all = append(all, result.Excluded...)
	all = append(all, result.Unset...)

	if len(all) != len(candidates) {
		t.Fatalf("classified %d entities, want %d (%v)", len(all), len(candidates), all)
	}

	seen := map[string]int{}
	for _, id := range all {
		seen[id]++
	}
	for _, id := range candidates {
		if seen[id] != 1 {
			t.Errorf("candidate %s classified %d times, want exactly once", id, seen[id])
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	doc := testDoc([]string{"light", "switch"}, []string{"garage"}, []string{"*_test"})
	doc.EntityOverrides["switch.plug"] = Override{Expose: boolPtr(false)}

	snap := registry.NewSnapshot(
		[]registry.Entity{
			{ID: "light.kitchen", AreaID: "kitchen"},
			{ID: "light.garage", AreaID: "garage"},
			{ID: "light.motion_test"},
			{ID: "switch.plug"},
		},
		nil,
		[]registry.Area{
			{ID: "garage", Name: "Garage"},
			{ID: "kitchen", Name: "Kitchen"},
		},
	)

	first := Compute(doc, snap)
	second := Compute(doc, snap)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Compute is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCompute_ReasonsCoverExcluded(t *testing.T) {
	doc := testDoc([]string{"light"}, []string{"garage"}, []string{"*_test"})
	doc.EntityOverrides["light.kitchen"] = Override{Expose: boolPtr(false)}

	snap := registry.NewSnapshot(
		[]registry.Entity{
			{ID: "light.kitchen"},
			{ID: "light.garage", AreaID: "garage"},
			{ID: "light.motion_test"},
		},
		nil,
		[]registry.Area{{ID: "garage", Name: "Garage"}},
	)

	result := Compute(doc, snap)

	var reasoned []string
	for _, ids := range result.ExclusionReasons {
		reasoned = append(reasoned, ids...)
	}
	sort.Strings(reasoned)

	excluded := append([]string{}, result.Excluded...)
	sort.Strings(excluded)

	if !reflect.DeepEqual(reasoned, excluded) {
		t.Errorf("reason lists %v do not cover excluded %v", reasoned, excluded)
	}
}
