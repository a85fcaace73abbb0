//go:build linux

package watch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

// fakeSource is a scripted EventSource. AddWatch hands out descriptors the
// way inotify does: the same path keeps its descriptor while the watch is
// live and gets a fresh one after invalidation.
type fakeSource struct {
	nextWd      int32
	watches     map[string]int32
	invalidated map[string]bool
	armErrs     map[string]error
	removed     []int32

	// calls records arm/remove operations in order, e.g. "arm:/tmp/d".
	calls []string

	waits   []error
	reads   [][]byte
	readErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		watches:     make(map[string]int32),
		invalidated: make(map[string]bool),
		armErrs:     make(map[string]error),
		readErr:     errors.New("no more scripted reads"),
	}
}

func (s *fakeSource) AddWatch(path string, mask uint32) (int32, error) {
	if err := s.armErrs[path]; err != nil {
		return -1, err
	}

	wd, ok := s.watches[path]
	if !ok || s.invalidated[path] {
		s.nextWd++
		wd = s.nextWd
		s.watches[path] = wd
		delete(s.invalidated, path)
	}

	s.calls = append(s.calls, "arm:"+path)
	return wd, nil
}

func (s *fakeSource) RemoveWatch(wd int32) error {
	s.removed = append(s.removed, wd)
	return nil
}

func (s *fakeSource) Wait() error {
	if len(s.waits) == 0 {
		return errors.New("no more scripted waits")
	}
	err := s.waits[0]
	s.waits = s.waits[1:]
	return err
}

func (s *fakeSource) Read(p []byte) (int, error) {
	if len(s.reads) == 0 {
		return 0, s.readErr
	}
	buf := s.reads[0]
	s.reads = s.reads[1:]
	return copy(p, buf), nil
}

func (s *fakeSource) Close() error { return nil }

// invalidate simulates the kernel dropping the watch on path, so the next
// arm allocates a fresh descriptor.
func (s *fakeSource) invalidate(path string) {
	s.invalidated[path] = true
}

// encodeEvent builds one raw inotify record. Names are NUL-terminated and
// padded to a four-byte boundary, as the kernel pads them.
func encodeEvent(t *testing.T, wd int32, mask uint32, name string) []byte {
	t.Helper()

	var nameBytes []byte
	if name != "" {
		nameBytes = append([]byte(name), 0)
		for len(nameBytes)%4 != 0 {
			nameBytes = append(nameBytes, 0)
		}
	}

	buf := new(bytes.Buffer)
	raw := unix.InotifyEvent{
		Wd:   wd,
		Mask: mask,
		Len:  uint32(len(nameBytes)),
	}
	if err := binary.Write(buf, binary.NativeEndian, raw); err != nil {
		t.Fatalf("Failed to encode event header: %v", err)
	}
	buf.Write(nameBytes)

	return buf.Bytes()
}
