//go:build !linux
// +build !linux

package monitor

import (
	"errors"
)

// dialSession reports that display-change signals are unavailable so the
// watcher falls back to polling on non-Linux platforms
func dialSession() (DBusClient, error) {
	return nil, errors.New("display change signals are only supported on Linux")
}
