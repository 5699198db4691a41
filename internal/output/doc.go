// Package output writes the managed entities YAML file consumed by the
// voice-assistant integration.
//
// The file maps entity ids to per-entity settings. Every exposed id is
// written with expose: true and every explicitly excluded id with
// expose: false; ids excluded only by pattern, area, or domain rules
// are omitted entirely. Cosmetic fields (name, aliases, room) are
// merged in, and properties already present in the file are preserved
// across rewrites.
//
// Writes are atomic: content goes to a temp file in the same directory
// and is renamed into place. CreateBackup copies the current file into
// a timestamped backup before a rewrite; the sync layer decides whether
// to call it based on the document's backups setting.
package output
