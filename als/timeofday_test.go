package als

import (
	"testing"
	"time"
)

func TestTimeGetStepsAtThresholds(t *testing.T) {
	src, err := NewTime(map[string]uint64{
		"00:00": 0,
		"08:00": 100,
		"20:00": 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		at   string
		want uint64
	}{
		{"03:00", 0},
		{"08:00", 100},
		{"12:30", 100},
		{"20:00", 10},
		{"23:59", 10},
	}
	for _, c := range cases {
		tm, err := time.Parse("15:04", c.at)
		if err != nil {
			t.Fatal(err)
		}
		src.Now = func() time.Time { return tm }
		got, err := src.Get()
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("at %s: got %d, want %d", c.at, got, c.want)
		}
	}
}

func TestNewTimeRejectsEmpty(t *testing.T) {
	if _, err := NewTime(nil); err == nil {
		t.Fatal("expected error for empty threshold map")
	}
}

func TestNewTimeRejectsMalformed(t *testing.T) {
	if _, err := NewTime(map[string]uint64{"not-a-time": 1}); err == nil {
		t.Fatal("expected error for malformed time")
	}
}
