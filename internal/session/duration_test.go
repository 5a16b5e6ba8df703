package session

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		name string
		in   *float64
		want string
	}{
		{name: "nil", in: nil, want: "--:--.---"},
		{name: "nan", in: ptr(math.NaN()), want: "--:--.---"},
		{name: "inf", in: ptr(math.Inf(1)), want: "--:--.---"},
		{name: "negative", in: ptr(-1), want: "--:--.---"},
		{name: "zero", in: ptr(0), want: "00:00.000"},
		{name: "minute and a half second", in: ptr(65.5), want: "01:05.500"},
		{name: "with hours", in: ptr(3725.25), want: "01:02:05.250"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatSeconds(tc.in); got != tc.want {
				t.Fatalf("FormatSeconds() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSplitDuration_RejectsInvalid(t *testing.T) {
	for _, ms := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := SplitDuration(ms); err == nil {
			t.Fatalf("expected error for %v", ms)
		}
	}
}

func TestSplitDuration_Fields(t *testing.T) {
	parts, err := SplitDuration(2*3600*1000 + 3*60*1000 + 4*1000 + 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DurationParts{Hours: 2, Minutes: 3, Seconds: 4, Milliseconds: 5}
	if parts != want {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}
