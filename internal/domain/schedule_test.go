package domain

import (
	"testing"
	"time"
)

// helper: build a UTC+8 wall-clock time and return it in UTC
func chinaUTC(hh, mm int) time.Time {
	return time.Date(2025, time.May, 6, hh, mm, 0, 0, China).UTC()
}

func TestNewCheckinTime_AllSlots(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			ct, err := NewCheckinTime(h, m)
			valid := h >= 16 && h <= 19 && (m == 0 || m == 30)
			if valid {
				if err != nil {
					t.Fatalf("%02d:%02d: unexpected error %v", h, m, err)
				}
				if ct.Hour() != h || ct.Minute() != m {
					t.Fatalf("%02d:%02d: got %s", h, m, ct)
				}
				continue
			}
			if !IsKind(err, KindInvalidScheduleTime) {
				t.Fatalf("%02d:%02d: want InvalidScheduleTime, got %v", h, m, err)
			}
		}
	}
}

func TestParseCheckinTime(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "16:00", want: "16:00"},
		{in: " 19:30 ", want: "19:30"},
		{in: "17:5", wantErr: true},
		{in: "1730", wantErr: true},
		{in: "aa:30", wantErr: true},
		{in: "17:bb", wantErr: true},
		{in: "20:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		ct, err := ParseCheckinTime(tc.in)
		if tc.wantErr {
			if !IsKind(err, KindInvalidScheduleTime) {
				t.Errorf("%q: want InvalidScheduleTime, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if ct.String() != tc.want {
			t.Errorf("%q: want %s, got %s", tc.in, tc.want, ct)
		}
	}
}

func TestMinutesOfDay_UsesChinaTime(t *testing.T) {
	// 09:30 UTC is 17:30 in UTC+8
	now := time.Date(2025, time.May, 6, 9, 30, 0, 0, time.UTC)
	if got := MinutesOfDay(now); got != 17*60+30 {
		t.Fatalf("want %d, got %d", 17*60+30, got)
	}
}

func TestInWindow_Boundaries(t *testing.T) {
	r := UserRecord{CheckinHour: 17, CheckinMinute: 30}
	cases := []struct {
		hh, mm int
		want   bool
	}{
		{17, 30, true},
		{17, 20, true},  // exactly 10 before
		{17, 40, true},  // exactly 10 after
		{17, 19, false}, // 11 before
		{17, 41, false}, // 11 after
		{5, 30, false},
	}
	for _, tc := range cases {
		got := InWindow(r, MinutesOfDay(chinaUTC(tc.hh, tc.mm)))
		if got != tc.want {
			t.Errorf("%02d:%02d: want %v, got %v", tc.hh, tc.mm, tc.want, got)
		}
	}
}

func TestAllowedSlots(t *testing.T) {
	want := "16:00, 16:30, 17:00, 17:30, 18:00, 18:30, 19:00, 19:30"
	if got := AllowedSlots(); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestWindowKey_UsesChinaDateAndSlot(t *testing.T) {
	r := UserRecord{CheckinHour: 16, CheckinMinute: 0}
	// 16:05 UTC on the 6th is already the 7th in UTC+8
	now := time.Date(2025, time.May, 6, 16, 5, 0, 0, time.UTC)
	if got := WindowKey(r, now); got != "2025-05-07 16:00" {
		t.Fatalf("got %q", got)
	}
}
