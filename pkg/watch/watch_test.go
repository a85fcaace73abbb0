//go:build linux

package watch

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/autorun-labs/autorun/pkg/logger"
)

// newKernelTable arms a real inotify-backed table and tears it down with
// the test.
func newKernelTable(t *testing.T) (*Table, EventSource) {
	t.Helper()

	src, err := NewSource()
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	table := NewTable(src, logger.Noop())
	t.Cleanup(func() {
		table.DisarmAll()
		if err := src.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	return table, src
}

// drainOnce performs one wait→read→decode pass and applies the rewatch
// policy per record, the way one dispatch-loop iteration does. The caller
// must have queued events beforehand, otherwise the wait blocks.
func drainOnce(t *testing.T, table *Table, src EventSource) []Event {
	t.Helper()

	if err := src.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	buf := make([]byte, eventBufferSize)
	n, err := src.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	events := decodeEvents(buf[:n])
	for _, ev := range events {
		Rewatch(table, ev, logger.Noop())
	}

	return events
}

func TestAppendToWatchedFile(t *testing.T) {
	table, src := newKernelTable(t)

	file := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(file, []byte("one\n"), 0600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := InstallFiles(table, []string{file}, logger.Noop()); err != nil {
		t.Fatalf("InstallFiles() error = %v", err)
	}

	f, err := os.OpenFile(file, os.O_WRONLY|os.O_APPEND, 0600) // nolint:gosec
	if err != nil {
		t.Fatalf("Failed to open file: %v", err)
	}
	if _, err := f.WriteString("two\n"); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	events := drainOnce(t, table, src)
	if len(events) != 1 {
		t.Fatalf("decoded %d events for one append, want exactly 1", len(events))
	}

	ev := events[0]
	if ev.Mask&unix.IN_MODIFY == 0 {
		t.Errorf("Mask = %s, want IN_MODIFY", ev.String())
	}
	if ev.Name != "" {
		t.Errorf("Name = %q, want empty for a directly watched file", ev.Name)
	}
	if path, ok := table.Resolve(ev.Wd); !ok || path != file {
		t.Errorf("Resolve() = %s, %v, want %s, true", path, ok, file)
	}
}

func TestNewSubdirectoryIsWatchedWithoutRestart(t *testing.T) {
	table, src := newKernelTable(t)

	root := t.TempDir()
	if err := InstallTree(table, []string{root}, logger.Noop()); err != nil {
		t.Fatalf("InstallTree() error = %v", err)
	}

	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0700); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	triggers := 0

	events := drainOnce(t, table, src)
	triggers += len(events)
	if len(events) != 1 || !events[0].Created() || !events[0].IsDir() {
		t.Fatalf("events after mkdir = %v, want one IN_CREATE|IN_ISDIR", events)
	}
	if events[0].Name != "sub" {
		t.Errorf("Name = %q, want sub", events[0].Name)
	}

	// The policy armed the new directory during the drain; a file created
	// inside it must now be observed.
	file := filepath.Join(sub, "f")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	events = drainOnce(t, table, src)
	triggers += len(events)

	var sawCreate bool
	for _, ev := range events {
		if ev.Created() && ev.Name == "f" {
			sawCreate = true
			if path, ok := table.Resolve(ev.Wd); !ok || path != sub {
				t.Errorf("Resolve() = %s, %v, want %s, true", path, ok, sub)
			}
		}
	}
	if !sawCreate {
		t.Error("no create event for file inside the new subdirectory")
	}
	if triggers < 2 {
		t.Errorf("total records = %d, want at least 2", triggers)
	}
}

func TestInvalidatedWatchIsReArmed(t *testing.T) {
	table, src := newKernelTable(t)

	d := filepath.Join(t.TempDir(), "d")
	if err := os.Mkdir(d, 0700); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if _, err := table.Arm(d); err != nil {
		t.Fatalf("Arm() error = %v", err)
	}

	// Delete and recreate the watched directory out-of-band. The kernel
	// drops the watch and queues IN_IGNORED.
	if err := os.Remove(d); err != nil {
		t.Fatalf("Failed to remove directory: %v", err)
	}
	if err := os.Mkdir(d, 0700); err != nil {
		t.Fatalf("Failed to recreate directory: %v", err)
	}

	events := drainOnce(t, table, src)
	var sawInvalidation bool
	for _, ev := range events {
		if ev.Invalidated() {
			sawInvalidation = true
		}
	}
	if !sawInvalidation {
		t.Fatalf("events after delete = %v, want IN_IGNORED", events)
	}

	// The drain re-armed the recreated directory, so mutations inside it
	// are observed again.
	file := filepath.Join(d, "x")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	events = drainOnce(t, table, src)
	var sawCreate bool
	for _, ev := range events {
		if ev.Created() && ev.Name == "x" {
			sawCreate = true
			if path, ok := table.Resolve(ev.Wd); !ok || path != d {
				t.Errorf("Resolve() = %s, %v, want %s, true", path, ok, d)
			}
		}
	}
	if !sawCreate {
		t.Error("no create event inside the re-armed directory")
	}
}

func TestSourceSameDescriptorForSamePath(t *testing.T) {
	_, src := newKernelTable(t)

	d := t.TempDir()
	wd1, err := src.AddWatch(d, DefaultMask)
	if err != nil {
		t.Fatalf("AddWatch() error = %v", err)
	}
	wd2, err := src.AddWatch(d, DefaultMask)
	if err != nil {
		t.Fatalf("AddWatch() error = %v", err)
	}
	if wd1 != wd2 {
		t.Errorf("descriptors differ for the same live path: %d vs %d", wd1, wd2)
	}
}

func TestSourceAddWatchMissingPath(t *testing.T) {
	_, src := newKernelTable(t)

	if _, err := src.AddWatch(filepath.Join(t.TempDir(), "nope"), DefaultMask); err == nil {
		t.Error("AddWatch() error = nil for missing path")
	}
}

func TestSourceClosedIsSafe(t *testing.T) {
	src, err := NewSource()
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Closing twice and using a closed source must not panic.
	if err := src.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := src.AddWatch(t.TempDir(), DefaultMask); err == nil {
		t.Error("AddWatch() error = nil on closed source")
	}
}
