//go:build linux

package watch

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// decodeEvents turns one read's worth of raw bytes into structured records.
// Records are variable length: the fixed inotify header followed by Len
// bytes of NUL-padded name, present only for events on entries inside a
// watched directory. Decoding stops exactly at the byte boundary of the
// read and drops a final truncated record rather than reading past it.
func decodeEvents(buf []byte) []Event {
	var events []Event

	n := uint32(len(buf))
	for offset := uint32(0); offset+unix.SizeofInotifyEvent <= n; {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))

		end := offset + unix.SizeofInotifyEvent + raw.Len
		if end > n {
			break
		}

		ev := Event{
			Wd:     raw.Wd,
			Mask:   raw.Mask,
			Cookie: raw.Cookie,
		}
		if raw.Len > 0 {
			name := buf[offset+unix.SizeofInotifyEvent : end]
			ev.Name = strings.TrimRight(string(name), "\x00")
		}

		events = append(events, ev)
		offset = end
	}

	return events
}
