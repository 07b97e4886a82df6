package brightness

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Sysfs is a backlight backend over the Linux backlight class
// (/sys/class/backlight/<name>/{brightness,max_brightness}), following the
// same kept-open-handle, seek-then-read idiom periph's sysfs LED driver
// uses for /sys/class/leds.
type Sysfs struct {
	max uint64

	mu          sync.Mutex
	fBrightness *os.File
}

// NewSysfs opens the backlight device named name under
// /sys/class/backlight.
func NewSysfs(name string) (*Sysfs, error) {
	root := "/sys/class/backlight/" + name + "/"

	maxRaw, err := os.ReadFile(root + "max_brightness")
	if err != nil {
		return nil, fmt.Errorf("brightness-sysfs: %s: %v", name, err)
	}
	max, err := strconv.ParseUint(strings.TrimSpace(string(maxRaw)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("brightness-sysfs: %s: %v", name, err)
	}

	f, err := os.OpenFile(root+"brightness", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("brightness-sysfs: %s: %v", name, err)
	}

	return &Sysfs{max: max, fBrightness: f}, nil
}

// Get implements Backend.
func (s *Sysfs) Get() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.fBrightness.Seek(0, 0); err != nil {
		return 0, err
	}
	var buf [32]byte
	n, err := s.fBrightness.Read(buf[:])
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(buf[:n])), 10, 64)
}

// Set implements Backend.
func (s *Sysfs) Set(v uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fBrightness.Truncate(0); err != nil {
		return err
	}
	if _, err := s.fBrightness.Seek(0, 0); err != nil {
		return err
	}
	_, err := s.fBrightness.Write([]byte(strconv.FormatUint(v, 10)))
	return err
}

// Max implements Backend.
func (s *Sysfs) Max() (uint64, error) {
	return s.max, nil
}

// Close releases the kept-open brightness handle.
func (s *Sysfs) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fBrightness.Close()
}

var _ Backend = (*Sysfs)(nil)
