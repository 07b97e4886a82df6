// Package devfile provides the small file-reading helpers shared by the
// sysfs-backed ambient-light and backlight sources.
//
// Every sysfs attribute used by this daemon (in_illuminance_raw, brightness,
// max_brightness, ...) is a single ASCII-decimal integer terminated by a
// newline. This package centralizes the open/seek/read/parse dance so each
// caller doesn't repeat it, the same way host/sysfs does in periph.
package devfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadInt opens path, reads its entire contents and parses it as a decimal
// integer. It is meant for files that are reopened rarely (discovery-time
// reads of name/scale/offset files).
func ReadInt(path string) (int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("devfile: %s: %v", path, err)
	}
	return v, nil
}

// ReadString opens path and returns its contents with surrounding
// whitespace trimmed.
func ReadString(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Handle is a kept-open handle to a sysfs attribute that is read
// repeatedly (e.g. in_illuminance_raw, sampled on every ALS tick).
//
// Re-opening a sysfs file on every read works too, but periph's own sysfs
// code keeps the handle open and seeks back to 0, which avoids repeated
// open() syscalls on a hot polling path; we follow the same idiom here.
type Handle struct {
	f *os.File
}

// OpenHandle opens path for repeated reads.
func OpenHandle(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Handle{f: f}, nil
}

// ReadInt seeks to the start of the file and reads it as a decimal integer.
func (h *Handle) ReadInt() (int64, error) {
	if _, err := h.f.Seek(0, 0); err != nil {
		return 0, err
	}
	var buf [32]byte
	n, err := h.f.Read(buf[:])
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(buf[:n])), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("devfile: %s: %v", h.f.Name(), err)
	}
	return v, nil
}

// Close closes the underlying file.
func (h *Handle) Close() error {
	return h.f.Close()
}
