//go:build linux

package watch

import (
	"path/filepath"

	"github.com/autorun-labs/autorun/pkg/logger"
)

// Rewatch inspects one decoded event and mutates the watch set where
// required, before the triggered command runs:
//
//   - an invalidated watch (the kernel dropped it) is re-armed on the same
//     path. A failed re-arm only degrades coverage; it is logged and the
//     loop continues without that watch.
//   - a directory created inside a watched directory gets its own watch, so
//     files created under it are observed without a restart. Non-directory
//     creations add nothing: the parent's watch already covers them.
//
// Any other mutation type leaves the watch set alone.
//
// Known limitation: re-arming an invalidated directory reinstates only
// that directory's watch, not its descendants. See DESIGN.md.
func Rewatch(table *Table, ev Event, log logger.Logger) {
	switch {
	case ev.Invalidated():
		path, ok := table.Resolve(ev.Wd)
		if !ok {
			log.Warn("invalidated watch has no recorded path", "wd", ev.Wd)
			return
		}
		if _, err := table.Arm(path); err != nil {
			log.Warn("failed to re-arm invalidated watch", "path", path, "error", err)
			return
		}
		log.Debug("watch re-armed", "path", path)

	case ev.Created() && ev.IsDir():
		parent, ok := table.Resolve(ev.Wd)
		if !ok {
			log.Warn("event watch has no recorded path", "wd", ev.Wd)
			return
		}
		path := filepath.Join(parent, ev.Name)
		if _, err := table.Arm(path); err != nil {
			log.Warn("failed to arm new directory", "path", path, "error", err)
			return
		}
		log.Debug("new directory armed", "path", path)
	}
}
