package utils

import (
	"reflect"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		depart, arrive, want string
	}{
		{"08:00", "09:30", "1h 30m"},
		{"08:00", "08:45", "45m"},
		{"23:30", "01:00", "1h 30m"}, // wraps past midnight
		{"08:00", "08:00", "0m"},
		{"bad", "09:00", ""},
	}
	for _, tc := range cases {
		if got := Duration(tc.depart, tc.arrive); got != tc.want {
			t.Errorf("Duration(%q, %q) = %q, want %q", tc.depart, tc.arrive, got, tc.want)
		}
	}
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2025, 5, 1, 15, 0, 0, 0, time.Local)

	if IsPastDate("2025-04-30", now) != true {
		t.Error("yesterday should be past")
	}
	if IsPastDate("2025-05-01", now) != false {
		t.Error("today should not be past")
	}
	if IsPastDate("2025-05-02", now) != false {
		t.Error("tomorrow should not be past")
	}
	if IsPastDate("never", now) != true {
		t.Error("unparseable date should count as past")
	}
}

func TestSlugRoundTrip(t *testing.T) {
	if got := SlugifyLocation("  Port  Blair "); got != "port-blair" {
		t.Errorf("SlugifyLocation = %q", got)
	}
	if got := TitleFromSlug("shaheed-dweep"); got != "Shaheed Dweep" {
		t.Errorf("TitleFromSlug = %q", got)
	}
	if got := TitleFromSlug(SlugifyLocation("Port Blair")); got != "Port Blair" {
		t.Errorf("round trip = %q", got)
	}
}

func TestSplitSeatList(t *testing.T) {
	got := SplitSeatList(" 1a, 2B ;3c\n,")
	want := []string{"1A", "2B", "3C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitSeatList = %v, want %v", got, want)
	}
	if got := SplitSeatList(""); len(got) != 0 {
		t.Errorf("empty input should yield empty slice, got %v", got)
	}
}
