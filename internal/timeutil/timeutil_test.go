package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "day first", input: "02-12-2025", want: Date{2025, time.December, 2}},
		{name: "iso", input: "2025-12-02", want: Date{2025, time.December, 2}},
		{name: "whitespace", input: "  2025-01-31 ", want: Date{2025, time.January, 31}},
		{name: "slashes", input: "2025/12/02", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "next tuesday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Errorf("expected *ParseError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDateAmbiguousPrefersDayFirst(t *testing.T) {
	// 02-12-2025 parses under both layouts conceptually; day-first wins.
	got, err := ParseDate("02-12-2025")
	if err != nil {
		t.Fatal(err)
	}
	if got.Month != time.December || got.Day != 2 {
		t.Errorf("expected December 2, got %v", got)
	}
}

func TestParseTimeOrDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeOrDuration
		wantErr bool
	}{
		{name: "clock", input: "14:30", want: TimeOrDuration{Clock: Clock{14, 30}}},
		{name: "hours", input: "2h", want: TimeOrDuration{Duration: 2 * time.Hour, IsDuration: true}},
		{name: "hours long", input: "2hr", want: TimeOrDuration{Duration: 2 * time.Hour, IsDuration: true}},
		{name: "hours word", input: "3 hours", want: TimeOrDuration{Duration: 3 * time.Hour, IsDuration: true}},
		{name: "minutes", input: "30min", want: TimeOrDuration{Duration: 30 * time.Minute, IsDuration: true}},
		{name: "minutes short", input: "45m", want: TimeOrDuration{Duration: 45 * time.Minute, IsDuration: true}},
		{name: "uppercase", input: "2H", want: TimeOrDuration{Duration: 2 * time.Hour, IsDuration: true}},
		{name: "compound rejected", input: "1h30m", wantErr: true},
		{name: "compound spaced rejected", input: "1h 30m", wantErr: true},
		{name: "no digits", input: "hr", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "bad clock", input: "25:99", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOrDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveEndAbsolute(t *testing.T) {
	d := Date{2025, time.December, 2}
	endDate, endClock := ResolveEnd(d, Clock{14, 0}, TimeOrDuration{Clock: Clock{15, 0}})
	if endDate != d {
		t.Errorf("date changed unexpectedly: %v", endDate)
	}
	if endClock != (Clock{15, 0}) {
		t.Errorf("got %v", endClock)
	}
}

func TestResolveEndRollsOverMidnight(t *testing.T) {
	d := Date{2025, time.December, 2}
	endDate, endClock := ResolveEnd(d, Clock{23, 30}, TimeOrDuration{Duration: time.Hour, IsDuration: true})
	if endDate != (Date{2025, time.December, 3}) {
		t.Errorf("expected rollover to Dec 3, got %v", endDate)
	}
	if endClock != (Clock{0, 30}) {
		t.Errorf("expected 00:30, got %v", endClock)
	}
}

func TestResolveEndYearRollover(t *testing.T) {
	endDate, _ := ResolveEnd(Date{2025, time.December, 31}, Clock{23, 30}, TimeOrDuration{Duration: time.Hour, IsDuration: true})
	if endDate != (Date{2026, time.January, 1}) {
		t.Errorf("expected Jan 1 2026, got %v", endDate)
	}
}

func TestToUTCSingapore(t *testing.T) {
	// Singapore has no daylight saving; the 8 hour offset is stable.
	loc, err := LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatal(err)
	}
	got := ToUTC(Date{2025, time.December, 2}, Clock{14, 0}, loc)
	want := time.Date(2025, time.December, 2, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadLocationFixedOffset(t *testing.T) {
	tests := []struct {
		input  string
		offset int
	}{
		{"UTC+08:00", 8 * 3600},
		{"+08:00", 8 * 3600},
		{"-05:30", -(5*3600 + 30*60)},
		{"utc-02:00", -2 * 3600},
	}
	for _, tt := range tests {
		loc, err := LoadLocation(tt.input)
		if err != nil {
			t.Fatalf("%s: %v", tt.input, err)
		}
		_, offset := time.Date(2025, 6, 1, 12, 0, 0, 0, loc).Zone()
		if offset != tt.offset {
			t.Errorf("%s: got offset %d, want %d", tt.input, offset, tt.offset)
		}
	}
}

func TestLoadLocationRejectsEmpty(t *testing.T) {
	if _, err := LoadLocation(""); err == nil {
		t.Fatal("expected error for empty timezone")
	}
	if _, err := LoadLocation("Atlantis/Lost"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestResolveInterval(t *testing.T) {
	loc, err := LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatal(err)
	}
	iv, err := ResolveInterval(Date{2025, time.December, 2}, Clock{23, 30}, TimeOrDuration{Duration: time.Hour, IsDuration: true}, loc)
	if err != nil {
		t.Fatal(err)
	}
	wantStart := time.Date(2025, time.December, 2, 15, 30, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.December, 2, 16, 30, 0, 0, time.UTC)
	if !iv.Start.Equal(wantStart) || !iv.End.Equal(wantEnd) {
		t.Errorf("got %v, want %v/%v", iv, wantStart, wantEnd)
	}
	if iv.Duration() != time.Hour {
		t.Errorf("duration: got %v", iv.Duration())
	}
}

func TestNewIntervalRejectsInvertedWindow(t *testing.T) {
	now := time.Now()
	if _, err := NewInterval(now, now); err == nil {
		t.Error("expected error for zero-length interval")
	}
	if _, err := NewInterval(now.Add(time.Hour), now); err == nil {
		t.Error("expected error for inverted interval")
	}
}

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2025, 12, 2, 14, 0, 0, 0, time.UTC)
	a := Interval{Start: base, End: base.Add(time.Hour)}

	tests := []struct {
		name string
		b    Interval
		want bool
	}{
		{"identical", a, true},
		{"contained", Interval{base.Add(10 * time.Minute), base.Add(20 * time.Minute)}, true},
		{"overlapping tail", Interval{base.Add(30 * time.Minute), base.Add(2 * time.Hour)}, true},
		{"adjacent after", Interval{base.Add(time.Hour), base.Add(2 * time.Hour)}, false},
		{"disjoint", Interval{base.Add(3 * time.Hour), base.Add(4 * time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.b); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateWeekday(t *testing.T) {
	d := Date{2025, time.November, 29} // a Saturday
	if d.Weekday() != time.Saturday {
		t.Errorf("got %v", d.Weekday())
	}
	if !d.IsWeekend() {
		t.Error("expected weekend")
	}
	if (Date{2025, time.December, 1}).IsWeekend() {
		t.Error("Monday is not a weekend")
	}
}
