package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/exposure-core/internal/exposure"
	"github.com/nerrad567/exposure-core/internal/infrastructure/config"
	"github.com/nerrad567/exposure-core/internal/infrastructure/logging"
)

// fileHeader marks the managed file as generated. It is rewritten on
// every sync.
const fileHeader = "# Managed by Exposure Core - DO NOT EDIT\n"

// filePermissions for the managed file and its backups.
const filePermissions = 0644

// Writer maintains the managed entities YAML file consumed by the
// voice-assistant integration.
//
// The artifact format is a downstream contract: exposed ids get
// expose: true, explicitly excluded ids get expose: false, and ids
// excluded only via pattern/area/domain are omitted - silence means
// "not exposed" to the consumer, which is different from an explicit
// false.
type Writer struct {
	configDir   string
	managedFile string
	backupDir   string
	logger      *logging.Logger
}

// NewWriter creates a Writer for the configured output location.
func NewWriter(cfg config.OutputConfig, logger *logging.Logger) *Writer {
	return &Writer{
		configDir:   cfg.ConfigDir,
		managedFile: cfg.ManagedFile,
		backupDir:   cfg.BackupDir,
		logger:      logger.With("component", "output"),
	}
}

// Path returns the full path of the managed file.
func (w *Writer) Path() string {
	return filepath.Join(w.configDir, w.managedFile)
}

// WriteEntitiesFile serialises the computed exposure into the managed
// file using an atomic write (temp file in the same directory, then
// rename).
//
// Existing per-entity properties in the file are preserved, with the
// expose flag overwritten and entity_config fields (name, aliases,
// room) merged in on top.
//
// Parameters:
//   - exposed: Entity ids to write with expose: true
//   - explicitExclusions: Entity ids to write with expose: false
//   - entityConfig: Cosmetic metadata merged into each entry
//
// Returns:
//   - error: If reading, serialising, or the atomic rename fails
func (w *Writer) WriteEntitiesFile(
	exposed []string,
	explicitExclusions []string,
	entityConfig map[string]exposure.EntityConfig,
) error {
	path := w.Path()

	existing := w.readExisting(path)

	root := &yaml.Node{Kind: yaml.MappingNode}
	written := make(map[string]struct{}, len(exposed)+len(explicitExclusions))

	appendEntries := func(ids []string, expose bool) error {
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		for _, id := range sorted {
			if _, ok := written[id]; ok {
				continue
			}
			written[id] = struct{}{}

			entry, err := buildEntry(expose, existing[id], entityConfig[id])
			if err != nil {
				return fmt.Errorf("building entry for %s: %w", id, err)
			}
			root.Content = append(root.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: id},
				entry,
			)
		}
		return nil
	}

	if err := appendEntries(exposed, true); err != nil {
		return err
	}
	if err := appendEntries(explicitExclusions, false); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if len(root.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return fmt.Errorf("encoding entities file: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("finalising entities file: %w", err)
		}
	}

	if err := w.atomicWrite(path, buf.Bytes()); err != nil {
		return err
	}

	w.logger.Info("wrote entities file",
		"path", path,
		"exposed", len(exposed),
		"explicit_exclusions", len(explicitExclusions),
	)
	return nil
}

// EnsureFile creates an empty managed file with the header if none
// exists yet, so downstream includes resolve before the first sync.
func (w *Writer) EnsureFile() error {
	path := w.Path()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	content := fileHeader + "# Entity exposure will be configured after setup\n"
	if err := w.atomicWrite(path, []byte(content)); err != nil {
		return err
	}
	w.logger.Info("created managed file", "path", path)
	return nil
}

// readExisting loads the current file's per-entity maps so their
// properties survive a rewrite. Unreadable files are treated as empty;
// the rewrite proceeds from the computed state alone.
func (w *Writer) readExisting(path string) map[string]map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var existing map[string]map[string]any
	if err := yaml.Unmarshal(data, &existing); err != nil {
		w.logger.Warn("could not parse existing entities file", "error", err)
		return nil
	}
	return existing
}

// buildEntry assembles one entity's mapping node: expose first, then
// merged cosmetic fields, then any preserved properties in sorted
// order.
func buildEntry(expose bool, existing map[string]any, cfg exposure.EntityConfig) (*yaml.Node, error) {
	merged := make(map[string]any, len(existing)+3)
	for k, v := range existing {
		merged[k] = v
	}
	if cfg.Name != "" {
		merged["name"] = cfg.Name
	}
	if len(cfg.Aliases) > 0 {
		merged["aliases"] = cfg.Aliases
	}
	if cfg.Room != "" {
		merged["room"] = cfg.Room
	}
	delete(merged, "expose")

	node := &yaml.Node{Kind: yaml.MappingNode}

	exposeNode := &yaml.Node{}
	if err := exposeNode.Encode(expose); err != nil {
		return nil, err
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "expose"},
		exposeNode,
	)

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		valNode := &yaml.Node{}
		if err := valNode.Encode(merged[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			valNode,
		)
	}

	return node, nil
}

// atomicWrite writes content to a temp file in the target directory and
// renames it into place.
func (w *Writer) atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "exposure_*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Remove the temp file on any failure path.
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, filePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing entities file: %w", err)
	}
	tmpPath = ""

	return nil
}
