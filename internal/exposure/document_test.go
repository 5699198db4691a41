package exposure

import (
	"encoding/json"
	"testing"
)

func TestDefaultDocument(t *testing.T) {
	doc := DefaultDocument()

	if len(doc.BulkRules.ExposeDomains) != len(DefaultExposeDomains) {
		t.Errorf("ExposeDomains = %v, want defaults", doc.BulkRules.ExposeDomains)
	}
	if !doc.Settings.AutoSync || !doc.Settings.Backups || !doc.Settings.AutoAliases || !doc.Settings.ShowPanel {
		t.Errorf("Settings = %+v, want all enabled", doc.Settings)
	}
	if doc.EntityOverrides == nil || doc.DeviceOverrides == nil || doc.EntityConfig == nil {
		t.Error("override and config maps must be initialised")
	}
}

func TestDocument_Normalize(t *testing.T) {
	doc := &Document{}
	doc.Normalize()

	if doc.BulkRules.ExposeDomains == nil {
		t.Error("ExposeDomains should be non-nil after Normalize")
	}
	if doc.BulkRules.ExcludeAreas == nil {
		t.Error("ExcludeAreas should be non-nil after Normalize")
	}
	if doc.BulkRules.ExcludePatterns == nil {
		t.Error("ExcludePatterns should be non-nil after Normalize")
	}
	if doc.EntityOverrides == nil {
		t.Error("EntityOverrides should be non-nil after Normalize")
	}
	if doc.DeviceOverrides == nil {
		t.Error("DeviceOverrides should be non-nil after Normalize")
	}
	if doc.EntityConfig == nil {
		t.Error("EntityConfig should be non-nil after Normalize")
	}
}

func TestDocument_DecodeOverDefaults(t *testing.T) {
	// Partial payloads keep documented defaults for omitted keys.
	payload := `{"bulk_rules": {"expose_domains": ["light"]}}`

	doc := DefaultDocument()
	if err := json.Unmarshal([]byte(payload), doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	doc.Normalize()

	if len(doc.BulkRules.ExposeDomains) != 1 || doc.BulkRules.ExposeDomains[0] != "light" {
		t.Errorf("ExposeDomains = %v, want [light]", doc.BulkRules.ExposeDomains)
	}
	if !doc.Settings.AutoSync {
		t.Error("omitted settings should keep their defaults")
	}
}

func TestOverride_Selected(t *testing.T) {
	tests := []struct {
		name     string
		override Override
		want     bool
	}{
		{
			name:     "explicit selected",
			override: Override{Expose: boolPtr(false), Source: SourceSelected},
			want:     true,
		},
		{
			name:     "implied",
			override: Override{Expose: boolPtr(false), Source: SourceImplied},
			want:     false,
		},
		{
			name:     "legacy without source",
			override: Override{Expose: boolPtr(false)},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.override.Selected(); got != tt.want {
				t.Errorf("Selected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverride_TriState(t *testing.T) {
	absent := Override{}
	if absent.Excludes() || absent.Includes() {
		t.Error("override with absent expose must neither include nor exclude")
	}

	implied := Override{Expose: boolPtr(true), Source: SourceImplied}
	if implied.Includes() {
		t.Error("implied override must not include")
	}
}
