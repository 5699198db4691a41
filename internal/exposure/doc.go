// Package exposure implements the rule evaluation core of Exposure
// Core: deciding which registry entities are exposed to the voice
// assistant.
//
// # Model
//
// A Document carries the layered rule set: bulk rules (expose_domains,
// exclude_areas, exclude_patterns), per-entity and per-device
// overrides, cosmetic entity_config, and service settings. Overrides
// are tri-state (expose true/false/absent) and tagged with a source;
// "implied" overrides are derived state and never affect
// classification.
//
// # Classification
//
// Compute filters candidates (supported domain, enabled, no category,
// not hidden) and then evaluates a fixed priority cascade per entity,
// first match wins:
//
//	1. entity exclusion override
//	2. device exclusion override
//	3. glob pattern exclusion
//	4. area exclusion (own area, or the device's)
//	5. entity inclusion override
//	6. device inclusion override
//	7. domain default, else unset
//
// Exclusions outrank inclusions so a blocklist pattern or area always
// wins regardless of other configuration. Compute, Validate, Explain,
// and Summarize are pure, synchronous, and safe for concurrent use
// over separate documents and snapshots.
//
// # Persistence
//
// Repository stores the document as a JSON row in SQLite and records
// sync history. Callers normalise (load-or-default, Normalize) before
// handing a document to the engine; the engine never handles missing
// keys.
package exposure
