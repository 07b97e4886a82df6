// Package predictor implements the per-output learning engine: the
// monotone training set (Data/Entry), its atomic persistence, and the
// Controller that learns from user adjustments and predicts brightness
// from ambient lux and screen luma.
package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one learned datapoint: the user's chosen brightness for a given
// ambient-light bucket and (optionally) a given screen lightness, per spec
// §3.
type Entry struct {
	Lux        uint64
	Luma       *uint8
	Brightness uint64
}

// NewEntry builds an Entry. luma may be nil.
func NewEntry(lux uint64, luma *uint8, brightness uint64) Entry {
	return Entry{Lux: lux, Luma: luma, Brightness: brightness}
}

// Equal reports structural equality on all three fields, per spec §3.
func (e Entry) Equal(o Entry) bool {
	if e.Lux != o.Lux || e.Brightness != o.Brightness {
		return false
	}
	if (e.Luma == nil) != (o.Luma == nil) {
		return false
	}
	return e.Luma == nil || *e.Luma == *o.Luma
}

// lumaOrZero returns the dereferenced luma, or 0 when absent — the
// convention used throughout distance and dominance computations (spec
// §4.3.1, §4.3.2: "absent luma counts as 0 on both sides").
func (e Entry) lumaOrZero() uint8 {
	if e.Luma == nil {
		return 0
	}
	return *e.Luma
}

// entryJSON is the on-disk shape of an Entry. A leading schema Version
// field defaults to 0 when absent, so a future incompatible format can be
// detected without breaking existing data files (spec §4.7: "a versioned
// list of Entries").
type entryJSON struct {
	Lux        uint64 `json:"lux"`
	Luma       *uint8 `json:"luma"`
	Brightness uint64 `json:"brightness"`
}

type dataFile struct {
	Version int         `json:"version"`
	Entries []entryJSON `json:"entries"`
}

const dataFileVersion = 1

// Data is the learned set for one output (spec §3).
type Data struct {
	Entries []Entry
}

// Path returns the persistence path for the named output, under
// $XDG_DATA_HOME/wlsun (falling back to ~/.local/share/wlsun when
// XDG_DATA_HOME is unset), per spec §4.7 and §6.
func Path(outputName string) (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("predictor: %v", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "wlsun", outputName+".json"), nil
}

// Load reads the Data for path. A missing file yields an empty Data, per
// spec §4.7 ("loading tolerates a missing file"); any other read or parse
// error is returned as-is (fatal to the caller, per spec §7
// persistence-corrupt).
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Data{}, nil
	}
	if err != nil {
		return Data{}, fmt.Errorf("predictor: load %s: %v", path, err)
	}

	var df dataFile
	if err := json.Unmarshal(raw, &df); err != nil {
		return Data{}, fmt.Errorf("predictor: corrupt data file %s: %v", path, err)
	}

	d := Data{Entries: make([]Entry, 0, len(df.Entries))}
	for _, e := range df.Entries {
		d.Entries = append(d.Entries, Entry{Lux: e.Lux, Luma: e.Luma, Brightness: e.Brightness})
	}
	return d, nil
}

// Save persists d to path atomically: write to a temp file in the same
// directory, fsync, then rename over the destination, per spec §4.7.
func Save(path string, d Data) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("predictor: save %s: %v", path, err)
	}

	df := dataFile{Version: dataFileVersion, Entries: make([]entryJSON, 0, len(d.Entries))}
	for _, e := range d.Entries {
		df.Entries = append(df.Entries, entryJSON{Lux: e.Lux, Luma: e.Luma, Brightness: e.Brightness})
	}
	raw, err := json.Marshal(df)
	if err != nil {
		return fmt.Errorf("predictor: save %s: %v", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".wlsun-data-*")
	if err != nil {
		return fmt.Errorf("predictor: save %s: %v", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("predictor: save %s: %v", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("predictor: save %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("predictor: save %s: %v", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("predictor: save %s: %v", path, err)
	}
	return nil
}
