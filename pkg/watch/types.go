//go:build linux

// Package watch owns the kernel watch set and the event-driven dispatch loop.
//
// It arms one inotify watch per watched entry, keeps the reverse mapping from
// watch descriptor to path so raw events can be resolved back to full paths,
// and repairs or extends the watch set as the tree changes underneath it.
//
// Example usage:
//
//	src, err := watch.NewSource()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table := watch.NewTable(src, logger.Default())
//	defer func() {
//	    table.DisarmAll()
//	    src.Close()
//	}()
//
//	if err := watch.InstallTree(table, []string{"."}, logger.Default()); err != nil {
//	    log.Fatal(err)
//	}
package watch

import (
	"strings"

	"golang.org/x/sys/unix"
)

// DefaultMask selects the mutations that trigger the configured command:
// moves, modifications, creations and deletions. Directory creation arrives
// as IN_CREATE|IN_ISDIR. IN_IGNORED is delivered by the kernel regardless of
// the mask whenever a watch is dropped.
const DefaultMask = unix.IN_MOVE | unix.IN_MODIFY | unix.IN_CREATE | unix.IN_DELETE

// eventBufferSize holds several maximum-size records per read. A record is
// the fixed inotify header plus an optional name bounded by NAME_MAX.
const eventBufferSize = 64 * (unix.SizeofInotifyEvent + unix.NAME_MAX + 1)

// Event is one decoded record from the raw event buffer: one mutation on one
// watch. Name is set only for events on entries inside a watched directory;
// it is empty for events on a directly watched file.
type Event struct {
	// Wd is the watch descriptor the kernel correlated this event to.
	Wd int32

	// Mask is the mutation-type bitmask.
	Mask uint32

	// Cookie associates the two halves of a rename.
	Cookie uint32

	// Name is the entry inside the watched directory, if any.
	Name string
}

// IsDir reports whether the event subject is a directory.
func (e Event) IsDir() bool { return e.Mask&unix.IN_ISDIR != 0 }

// Invalidated reports whether the kernel dropped the watch behind this event,
// e.g. because the watched entry was removed or renamed away.
func (e Event) Invalidated() bool { return e.Mask&unix.IN_IGNORED != 0 }

// Created reports whether a new entry appeared inside the watched directory.
func (e Event) Created() bool { return e.Mask&unix.IN_CREATE != 0 }

// Overflowed reports a kernel event-queue overflow. Overflow records carry no
// usable watch descriptor and never mutate the watch set.
func (e Event) Overflowed() bool { return e.Mask&unix.IN_Q_OVERFLOW != 0 }

// maskNames maps individual mask bits to their inotify names, checked in
// order for String.
var maskNames = []struct {
	bit  uint32
	name string
}{
	{unix.IN_CREATE, "IN_CREATE"},
	{unix.IN_DELETE, "IN_DELETE"},
	{unix.IN_MODIFY, "IN_MODIFY"},
	{unix.IN_MOVED_FROM, "IN_MOVED_FROM"},
	{unix.IN_MOVED_TO, "IN_MOVED_TO"},
	{unix.IN_DELETE_SELF, "IN_DELETE_SELF"},
	{unix.IN_MOVE_SELF, "IN_MOVE_SELF"},
	{unix.IN_ATTRIB, "IN_ATTRIB"},
	{unix.IN_CLOSE_WRITE, "IN_CLOSE_WRITE"},
	{unix.IN_CLOSE_NOWRITE, "IN_CLOSE_NOWRITE"},
	{unix.IN_ACCESS, "IN_ACCESS"},
	{unix.IN_OPEN, "IN_OPEN"},
	{unix.IN_IGNORED, "IN_IGNORED"},
	{unix.IN_Q_OVERFLOW, "IN_Q_OVERFLOW"},
	{unix.IN_UNMOUNT, "IN_UNMOUNT"},
}

// String returns the inotify names of the set mask bits, joined with "|".
func (e Event) String() string {
	var names []string
	for _, m := range maskNames {
		if e.Mask&m.bit != 0 {
			names = append(names, m.name)
		}
	}
	if len(names) == 0 {
		return "UNKNOWN"
	}
	s := strings.Join(names, "|")
	if e.IsDir() {
		s += "|IN_ISDIR"
	}
	return s
}
