package registry

import "strings"

// Entity is a read-only view of a registry entity.
//
// Entities are identified as "domain.object_id". The registry owns and
// mutates them; this package only carries a snapshot taken at read time.
type Entity struct {
	// ID is the entity identifier (e.g., "light.kitchen").
	ID string `json:"entity_id"`

	// Name is the display name, if set.
	Name string `json:"name,omitempty"`

	// DeviceID references the owning device. Empty if the entity is not
	// attached to a device.
	DeviceID string `json:"device_id,omitempty"`

	// AreaID is the entity's directly assigned area. Empty means the
	// area is inherited from the device, if any.
	AreaID string `json:"area_id,omitempty"`

	// DisabledBy records what disabled the entity ("user", "integration",
	// ...). Empty means enabled.
	DisabledBy string `json:"disabled_by,omitempty"`

	// HiddenBy records what hid the entity. Empty means visible.
	HiddenBy string `json:"hidden_by,omitempty"`

	// Category marks internal entities ("config", "diagnostic").
	// Empty means a regular entity.
	Category string `json:"entity_category,omitempty"`
}

// Domain returns the category prefix of the entity id.
// For "light.kitchen" it returns "light". An id without a dot returns
// the whole id.
func (e Entity) Domain() string {
	if i := strings.IndexByte(e.ID, '.'); i >= 0 {
		return e.ID[:i]
	}
	return e.ID
}

// Disabled reports whether the entity is disabled by any mechanism.
func (e Entity) Disabled() bool {
	return e.DisabledBy != ""
}

// Hidden reports whether the entity is hidden by any mechanism.
func (e Entity) Hidden() bool {
	return e.HiddenBy != ""
}

// Device is a read-only view of a registry device.
type Device struct {
	// ID is the device identifier.
	ID string `json:"id"`

	// Name is the display name, if set.
	Name string `json:"name,omitempty"`

	// AreaID is the device's assigned area, if any.
	AreaID string `json:"area_id,omitempty"`
}

// Area is a read-only view of a registry area.
type Area struct {
	// ID is the area identifier (e.g., "living_room").
	ID string `json:"area_id"`

	// Name is the display name (e.g., "Living Room").
	Name string `json:"name"`
}
