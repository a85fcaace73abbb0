//go:build linux

package watch

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// EventSource abstracts the kernel primitives behind the watch set: watch
// registration, readiness waiting and the raw event read. The production
// implementation wraps one inotify instance; tests substitute a scripted
// source.
type EventSource interface {
	// AddWatch registers path for the given mutation mask and returns the
	// kernel-assigned watch descriptor. Re-adding an already watched path
	// returns the same descriptor.
	AddWatch(path string, mask uint32) (int32, error)

	// RemoveWatch unregisters a watch descriptor. Best effort: the kernel
	// may already have dropped the watch on its own.
	RemoveWatch(wd int32) error

	// Wait blocks until the event source is readable or the wait is
	// interrupted. An interrupted wait returns an error wrapping EINTR;
	// the caller decides whether to retry.
	Wait() error

	// Read fills p with ready event bytes and returns the byte count.
	Read(p []byte) (int, error)

	// Close releases the source. Watches still registered are dropped by
	// the kernel along with the instance.
	Close() error
}

// inotifySource is the production EventSource: one inotify instance
// registered once with one epoll instance for readiness waits.
type inotifySource struct {
	mu        sync.Mutex
	inotifyFd int
	epollFd   int
	closed    bool
}

// NewSource creates an event source backed by inotify and epoll.
func NewSource() (EventSource, error) {
	inFd, err := unix.InotifyInit1(0)
	if err != nil {
		return nil, fmt.Errorf("inotify_init1: %w", err)
	}

	epFd, err := unix.EpollCreate1(0)
	if err != nil {
		unix.Close(inFd)
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(inFd),
	}
	if err := unix.EpollCtl(epFd, unix.EPOLL_CTL_ADD, inFd, &event); err != nil {
		unix.Close(epFd)
		unix.Close(inFd)
		return nil, fmt.Errorf("epoll_ctl: %w", err)
	}

	return &inotifySource{
		inotifyFd: inFd,
		epollFd:   epFd,
	}, nil
}

// AddWatch implements EventSource.AddWatch.
func (s *inotifySource) AddWatch(path string, mask uint32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return -1, ErrSourceClosed
	}

	wd, err := unix.InotifyAddWatch(s.inotifyFd, path, mask)
	if err != nil {
		return -1, fmt.Errorf("inotify_add_watch %s: %w", path, err)
	}

	return int32(wd), nil
}

// RemoveWatch implements EventSource.RemoveWatch.
func (s *inotifySource) RemoveWatch(wd int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSourceClosed
	}

	if _, err := unix.InotifyRmWatch(s.inotifyFd, uint32(wd)); err != nil {
		return fmt.Errorf("inotify_rm_watch %d: %w", wd, err)
	}

	return nil
}

// Wait implements EventSource.Wait. It blocks with no timeout; a signal
// surfaces as an error wrapping unix.EINTR.
func (s *inotifySource) Wait() error {
	var events [1]unix.EpollEvent

	if _, err := unix.EpollWait(s.epollFd, events[:], -1); err != nil {
		return fmt.Errorf("epoll_wait: %w", err)
	}

	return nil
}

// Read implements EventSource.Read.
func (s *inotifySource) Read(p []byte) (int, error) {
	n, err := unix.Read(s.inotifyFd, p)
	if err != nil {
		return 0, fmt.Errorf("read event source: %w", err)
	}

	return n, nil
}

// Close implements EventSource.Close.
func (s *inotifySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	epErr := unix.Close(s.epollFd)
	inErr := unix.Close(s.inotifyFd)

	if inErr != nil {
		return fmt.Errorf("close inotify fd: %w", inErr)
	}
	if epErr != nil {
		return fmt.Errorf("close epoll fd: %w", epErr)
	}

	return nil
}
