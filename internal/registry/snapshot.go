package registry

import (
	"context"
	"strings"
)

// Snapshot is a point-in-time, read-only view of the registry.
//
// A snapshot is taken once per evaluation and never observes later
// registry mutation. Lookup maps are built at construction so the
// rule engine's per-entity checks stay O(1).
type Snapshot struct {
	Entities []Entity
	Devices  []Device
	Areas    []Area

	devicesByID map[string]Device
	areasByID   map[string]Area
	areasByName map[string]Area
}

// NewSnapshot builds a Snapshot with its lookup indexes.
//
// Parameters:
//   - entities: All registry entities as of read time
//   - devices: All registry devices
//   - areas: All registry areas
//
// Returns:
//   - *Snapshot: Indexed snapshot ready for evaluation
func NewSnapshot(entities []Entity, devices []Device, areas []Area) *Snapshot {
	s := &Snapshot{
		Entities:    entities,
		Devices:     devices,
		Areas:       areas,
		devicesByID: make(map[string]Device, len(devices)),
		areasByID:   make(map[string]Area, len(areas)),
		areasByName: make(map[string]Area, len(areas)),
	}

	for _, d := range devices {
		s.devicesByID[d.ID] = d
	}
	for _, a := range areas {
		s.areasByID[a.ID] = a
		s.areasByName[strings.ToLower(a.Name)] = a
	}

	return s
}

// Device returns the device with the given id.
func (s *Snapshot) Device(id string) (Device, bool) {
	d, ok := s.devicesByID[id]
	return d, ok
}

// AreaByID returns the area with the given identifier.
func (s *Snapshot) AreaByID(id string) (Area, bool) {
	a, ok := s.areasByID[id]
	return a, ok
}

// AreaByName returns the area whose display name matches,
// case-insensitively.
func (s *Snapshot) AreaByName(name string) (Area, bool) {
	a, ok := s.areasByName[strings.ToLower(name)]
	return a, ok
}

// ResolveArea resolves an area reference that may be either an area
// identifier or a display name (matched case-insensitively). Identifier
// lookup takes precedence.
//
// Parameters:
//   - ref: Area identifier or display name
//
// Returns:
//   - Area: The resolved area
//   - bool: false if no area matches
func (s *Snapshot) ResolveArea(ref string) (Area, bool) {
	if a, ok := s.areasByID[ref]; ok {
		return a, true
	}
	return s.AreaByName(ref)
}

// EffectiveAreaID returns the entity's effective area: its own assigned
// area if present, otherwise its device's area. Empty means no area.
func (s *Snapshot) EffectiveAreaID(e Entity) string {
	if e.AreaID != "" {
		return e.AreaID
	}
	if e.DeviceID != "" {
		if d, ok := s.devicesByID[e.DeviceID]; ok {
			return d.AreaID
		}
	}
	return ""
}

// Provider supplies registry snapshots.
//
// Implementations fetch the full entity/device/area registries as of
// call time. The caller takes one snapshot per evaluation.
type Provider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}
