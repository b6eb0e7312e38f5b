package usecase

import (
	"testing"
	"time"
)

func TestResolveDeliveryDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 14, 30, 0, 0, time.UTC)
	}

	cases := []struct {
		name  string
		token string
		now   time.Time
		want  string
	}{
		{"later this month", "25", day(2026, 10, 20), "2026-10-25"},
		{"today stays", "20", day(2026, 10, 20), "2026-10-20"},
		{"passed rolls to next month", "15", day(2026, 10, 20), "2026-11-15"},
		{"december wraps year", "3", day(2026, 12, 10), "2027-01-03"},
		{"clamped to short month", "31", day(2026, 11, 5), "2026-11-30"},
		{"rolled then clamped", "30", day(2027, 1, 31), "2027-02-28"},
		{"leap february", "30", day(2028, 2, 1), "2028-02-29"},
		{"missing token is tomorrow", "", day(2026, 10, 20), "2026-10-21"},
		{"tomorrow across year end", "", day(2026, 12, 31), "2027-01-01"},
		{"out of range day is tomorrow", "45", day(2026, 10, 20), "2026-10-21"},
		{"zero is tomorrow", "0", day(2026, 10, 20), "2026-10-21"},
		{"leading zero", "05", day(2026, 10, 2), "2026-10-05"},
	}
	for _, tc := range cases {
		got := ResolveDeliveryDate(tc.token, tc.now)
		if FormatDeliveryDate(got) != tc.want {
			t.Fatalf("%s: ResolveDeliveryDate(%q) = %s, want %s", tc.name, tc.token, FormatDeliveryDate(got), tc.want)
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Fatalf("%s: expected midnight, got %v", tc.name, got)
		}
	}
}

func TestResolveDeliveryDateKeepsLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got := ResolveDeliveryDate("", time.Date(2026, 10, 20, 23, 30, 0, 0, loc))
	if got.Location() != loc {
		t.Fatalf("expected location %v, got %v", loc, got.Location())
	}
	if FormatDeliveryDate(got) != "2026-10-21" {
		t.Fatalf("unexpected date %s", FormatDeliveryDate(got))
	}
}
