//go:build linux

package watch

import "errors"

// ErrSourceClosed is returned when using an event source after Close.
var ErrSourceClosed = errors.New("event source is closed")
