package daykey

import (
	"testing"
	"time"
)

func TestNormalize_CanonicalKeyIsIdempotent(t *testing.T) {
	for _, key := range []string{"20240101", "20261231", "19991231"} {
		got, ok := Normalize(key)
		if !ok {
			t.Fatalf("Normalize(%q) not ok", key)
		}
		if got != key {
			t.Fatalf("Normalize(%q) = %q, want input unchanged", key, got)
		}
	}
}

func TestNormalize_EquivalentEncodingsAgree(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"2026-08-31", "20260831"},
		{"2026-08-31T09:15:00Z", "20260831"},
		{"2026-08-31T23:59:59+00:00", "20260831"},
		// Offsets shift the UTC day.
		{"2026-08-31T23:30:00-02:00", "20260901"},
		{"2026-09-01T01:30:00+05:00", "20260831"},
	}
	for _, tc := range cases {
		got, ok := Normalize(tc.raw)
		if !ok {
			t.Fatalf("Normalize(%q) not ok", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "today", "2026/08/31", "20261345", "202608", "9999999999"} {
		if got, ok := Normalize(raw); ok {
			t.Fatalf("Normalize(%q) = %q, want rejection", raw, got)
		}
	}
}

func TestFromTime_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	local := time.Date(2026, 8, 31, 22, 30, 0, 0, loc)
	if got := FromTime(local); got != "20260901" {
		t.Fatalf("FromTime = %q, want 20260901", got)
	}
}
