package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// backupDirPermissions for the backup directory tree.
const backupDirPermissions = 0750

// CreateBackup copies the managed file into the backup directory with a
// timestamped name, e.g. google_assistant_entities_20260801_120000.yaml.
//
// Returns:
//   - string: The backup path, or "" if the managed file doesn't exist
//   - error: If the copy fails
func (w *Writer) CreateBackup() (string, error) {
	src := w.Path()
	if _, err := os.Stat(src); os.IsNotExist(err) {
		w.logger.Debug("no backup needed, file does not exist", "path", src)
		return "", nil
	}

	backupDir := filepath.Join(w.configDir, w.backupDir)
	if err := os.MkdirAll(backupDir, backupDirPermissions); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	ext := filepath.Ext(w.managedFile)
	stem := strings.TrimSuffix(w.managedFile, ext)
	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(backupDir, fmt.Sprintf("%s_%s%s", stem, timestamp, ext))

	if err := copyFile(src, backupPath); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}

	w.logger.Info("created backup", "path", backupPath)
	return backupPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePermissions)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck // Already failing
		return err
	}
	return out.Close()
}
