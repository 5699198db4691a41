package exposure

import "time"

// SupportedDomains is the fixed allow-list of domains eligible for
// exposure. Entities outside these domains are never candidates.
var SupportedDomains = []string{
	"alarm_control_panel",
	"binary_sensor",
	"camera",
	"climate",
	"cover",
	"fan",
	"humidifier",
	"input_boolean",
	"input_select",
	"light",
	"lock",
	"media_player",
	"scene",
	"script",
	"select",
	"sensor",
	"switch",
	"vacuum",
}

// DefaultExposeDomains is the initial expose_domains list for a new
// document.
var DefaultExposeDomains = []string{
	"light",
	"switch",
	"cover",
	"fan",
	"climate",
	"lock",
	"scene",
	"script",
}

// OverrideSource distinguishes explicit user choices from derived state.
type OverrideSource string

const (
	// SourceSelected marks an explicit user choice.
	SourceSelected OverrideSource = "selected"

	// SourceImplied marks a derived value that must never affect
	// classification.
	SourceImplied OverrideSource = "implied"
)

// Override is a per-entity or per-device exposure decision.
//
// Expose is tri-state: true, false, or absent (nil). Absence of an
// override entry means "no rule", not "excluded".
type Override struct {
	Expose *bool          `json:"expose,omitempty"`
	Source OverrideSource `json:"source,omitempty"`
}

// Selected reports whether the override is an explicit user choice.
// Legacy entries without a source are treated as selected.
func (o Override) Selected() bool {
	return o.Source != SourceImplied
}

// Excludes reports whether this is a selected expose:false override.
func (o Override) Excludes() bool {
	return o.Expose != nil && !*o.Expose && o.Selected()
}

// Includes reports whether this is a selected expose:true override.
func (o Override) Includes() bool {
	return o.Expose != nil && *o.Expose && o.Selected()
}

// BulkRules are the document-level defaults that apply broadly rather
// than per-entity.
type BulkRules struct {
	// ExposeDomains lists domains exposed by default.
	ExposeDomains []string `json:"expose_domains"`

	// ExcludeAreas lists excluded areas, referenced by identifier or by
	// display name (matched case-insensitively).
	ExcludeAreas []string `json:"exclude_areas"`

	// ExcludePatterns is an ordered list of glob patterns matched
	// against entity ids.
	ExcludePatterns []string `json:"exclude_patterns"`
}

// EntityConfig is cosmetic per-entity metadata merged into the output
// artifact. The classification logic never consults it.
type EntityConfig struct {
	Name    string   `json:"name,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
	Room    string   `json:"room,omitempty"`
}

// Settings are service behaviour toggles stored with the document.
type Settings struct {
	AutoSync    bool `json:"auto_sync"`
	Backups     bool `json:"backups"`
	AutoAliases bool `json:"auto_aliases"`
	ShowPanel   bool `json:"show_panel"`
}

// Document is the layered rule configuration owned by Exposure Core.
//
// The engine requires a normalised document: callers load-or-default,
// call Normalize, then compute. An override entry is only removed when
// a consumer explicitly rewrites the document.
type Document struct {
	BulkRules       BulkRules               `json:"bulk_rules"`
	EntityOverrides map[string]Override     `json:"entity_overrides"`
	DeviceOverrides map[string]Override     `json:"device_overrides"`
	EntityConfig    map[string]EntityConfig `json:"entity_config"`
	Settings        Settings                `json:"settings"`
	LastSync        time.Time               `json:"last_sync,omitempty"`
}

// DefaultDocument returns a new document with the default domain list
// and all settings enabled.
//
// Decoding user input into a DefaultDocument keeps documented defaults
// for any keys the input omits.
func DefaultDocument() *Document {
	return &Document{
		BulkRules: BulkRules{
			ExposeDomains:   append([]string(nil), DefaultExposeDomains...),
			ExcludeAreas:    []string{},
			ExcludePatterns: []string{},
		},
		EntityOverrides: map[string]Override{},
		DeviceOverrides: map[string]Override{},
		EntityConfig:    map[string]EntityConfig{},
		Settings: Settings{
			AutoSync:    true,
			Backups:     true,
			AutoAliases: true,
			ShowPanel:   true,
		},
	}
}

// Normalize fills missing collections so every required key exists
// before the document reaches the engine. The engine itself never
// handles absent keys.
func (d *Document) Normalize() {
	if d.BulkRules.ExposeDomains == nil {
		d.BulkRules.ExposeDomains = []string{}
	}
	if d.BulkRules.ExcludeAreas == nil {
		d.BulkRules.ExcludeAreas = []string{}
	}
	if d.BulkRules.ExcludePatterns == nil {
		d.BulkRules.ExcludePatterns = []string{}
	}
	if d.EntityOverrides == nil {
		d.EntityOverrides = map[string]Override{}
	}
	if d.DeviceOverrides == nil {
		d.DeviceOverrides = map[string]Override{}
	}
	if d.EntityConfig == nil {
		d.EntityConfig = map[string]EntityConfig{}
	}
}
