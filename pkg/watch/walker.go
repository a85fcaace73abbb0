//go:build linux

package watch

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/autorun-labs/autorun/pkg/logger"
)

// InstallTree walks each root and arms a watch for every entry it yields,
// files and directories alike, roots included. The walk is physical: it
// yields symbolic links as entries but never descends through them, and it
// decides directory vs. non-directory from the directory read itself rather
// than an extra stat per entry.
//
// The first failed arm aborts the walk and reports failure. Entries armed
// before the failure stay registered; the caller is expected to exit, so no
// rollback is attempted.
func InstallTree(table *Table, roots []string, log logger.Logger) error {
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("walk %s: %w", path, err)
			}

			if _, armErr := table.Arm(path); armErr != nil {
				log.Error("failed to arm watch", "path", path, "error", armErr)
				return armErr
			}

			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// InstallFiles arms a watch for each explicitly requested file. The first
// failure aborts, mirroring InstallTree.
func InstallFiles(table *Table, files []string, log logger.Logger) error {
	for _, f := range files {
		if _, err := table.Arm(f); err != nil {
			log.Error("failed to arm watch", "path", f, "error", err)
			return err
		}
	}

	return nil
}
