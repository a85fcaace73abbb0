//go:build linux

package watch

import (
	"github.com/autorun-labs/autorun/pkg/logger"
)

// Table owns the mapping from watch descriptor to watched path. Every
// descriptor delivered by the event source must resolve here: arming always
// records the entry before the first event on that watch can be read.
//
// The table is confined to the dispatch thread; it needs no locking.
type Table struct {
	src    EventSource
	paths  map[int32]string
	logger logger.Logger
}

// NewTable creates an empty table bound to an event source.
func NewTable(src EventSource, log logger.Logger) *Table {
	return &Table{
		src:    src,
		paths:  make(map[int32]string),
		logger: log,
	}
}

// Arm requests a kernel watch on path for DefaultMask and records the
// descriptor→path entry, overwriting any previous entry for that descriptor.
// On failure the table is left untouched and the OS error is returned.
//
// Re-arming a path that is already watched yields the same descriptor, so
// the table never accumulates duplicate entries for a live path. A path
// re-armed after invalidation may come back under a new descriptor; the
// stale entry stays behind until teardown.
func (t *Table) Arm(path string) (int32, error) {
	wd, err := t.src.AddWatch(path, DefaultMask)
	if err != nil {
		return -1, err
	}

	t.paths[wd] = path
	t.logger.Debug("watch armed", "path", path, "wd", wd)

	return wd, nil
}

// Resolve returns the path recorded for a watch descriptor. The second
// return is false for a descriptor that was never armed here.
func (t *Table) Resolve(wd int32) (string, bool) {
	path, ok := t.paths[wd]
	return path, ok
}

// Len returns the number of recorded entries.
func (t *Table) Len() int {
	return len(t.paths)
}

// DisarmAll unregisters every recorded descriptor from the kernel. Invoked
// once at teardown. A watch the kernel already invalidated on its own fails
// to remove; that is expected and only logged.
func (t *Table) DisarmAll() {
	for wd, path := range t.paths {
		if err := t.src.RemoveWatch(wd); err != nil {
			t.logger.Debug("disarm failed", "path", path, "wd", wd, "error", err)
		}
	}

	t.paths = make(map[int32]string)
}
