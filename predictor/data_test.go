package predictor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u8(v uint8) *uint8 { return &v }

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.json")
	want := Data{Entries: []Entry{
		NewEntry(10, u8(20), 30),
		NewEntry(40, nil, 50),
	}}

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingFileYieldsEmptyData(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Entries) != 0 {
		t.Fatalf("expected empty Data, got %+v", d)
	}
}

func TestLoadCorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := Save(path, Data{}); err != nil {
		t.Fatal(err)
	}
	// Corrupt it after a valid save.
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error loading corrupt data file")
	}
}

func TestEntryEqual(t *testing.T) {
	a := NewEntry(1, u8(2), 3)
	b := NewEntry(1, u8(2), 3)
	c := NewEntry(1, nil, 3)
	assert.True(t, a.Equal(b), "expected equal entries to compare equal")
	assert.False(t, a.Equal(c), "expected entries with differing luma presence to differ")
}
