package workhours

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/conflictfewer/internal/directory"
	"github.com/teemow/conflictfewer/internal/timeutil"
)

type fakeHolidays struct {
	dates map[string]bool
	calls int
}

func (f *fakeHolidays) IsHoliday(ctx context.Context, date timeutil.Date, country string) bool {
	f.calls++
	return f.dates[country+":"+date.String()]
}

func testUser() directory.User {
	return directory.User{
		Username: "mika",
		Email:    "mika@example.com",
		Country:  "Germany",
		Timezone: "Europe/Berlin",
		Preferences: directory.Preferences{
			WorkingDays:   []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
			WorkingHours:  directory.WorkingHours{Start: "09:00", End: "17:00"},
			VacationDates: []string{"2026-08-14"},
		},
	}
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func TestCheck(t *testing.T) {
	loc := berlin(t)
	checker := NewChecker(&fakeHolidays{dates: map[string]bool{
		"Germany:2026-10-03": true,
	}})

	tests := []struct {
		name       string
		at         time.Time
		wantWork   bool
		wantReason string
	}{
		{
			name:     "midweek inside hours",
			at:       time.Date(2026, 8, 12, 10, 0, 0, 0, loc),
			wantWork: true,
		},
		{
			name:       "vacation day",
			at:         time.Date(2026, 8, 14, 10, 0, 0, 0, loc),
			wantReason: "on vacation",
		},
		{
			name:       "weekend",
			at:         time.Date(2026, 8, 15, 10, 0, 0, 0, loc),
			wantReason: "not a working day",
		},
		{
			name:       "before hours",
			at:         time.Date(2026, 8, 12, 8, 30, 0, 0, loc),
			wantReason: "outside working hours",
		},
		{
			name:       "at end of hours",
			at:         time.Date(2026, 8, 12, 17, 0, 0, 0, loc),
			wantReason: "outside working hours",
		},
		{
			name:     "non-holiday weekday",
			at:       time.Date(2026, 10, 2, 10, 0, 0, 0, loc),
			wantWork: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := checker.Check(context.Background(), testUser(), tt.at)
			assert.Equal(t, tt.wantWork, st.Working, st.Reason)
			if tt.wantReason != "" {
				assert.Contains(t, st.Reason, tt.wantReason)
			}
		})
	}
}

func TestCheckHolidayObservance(t *testing.T) {
	holidays := &fakeHolidays{dates: map[string]bool{
		// 2026-06-04 is a Thursday.
		"Germany:2026-06-04": true,
	}}
	checker := NewChecker(holidays)
	loc := berlin(t)
	at := time.Date(2026, 6, 4, 10, 0, 0, 0, loc)

	st := checker.Check(context.Background(), testUser(), at)
	assert.False(t, st.Working)
	assert.Contains(t, st.Reason, "public holiday")

	worksHolidays := testUser()
	worksHolidays.Preferences.WorkOnHolidays = true
	st = checker.Check(context.Background(), worksHolidays, at)
	assert.True(t, st.Working)
}

func TestCheckDefaultCountryFallback(t *testing.T) {
	holidays := &fakeHolidays{dates: map[string]bool{
		"Germany:2026-06-04": true,
	}}
	loc := berlin(t)
	at := time.Date(2026, 6, 4, 10, 0, 0, 0, loc)
	user := testUser()
	user.Country = ""

	st := NewChecker(holidays).Check(context.Background(), user, at)
	assert.True(t, st.Working, "no country, no lookup")

	st = NewChecker(holidays).WithDefaultCountry("Germany").Check(context.Background(), user, at)
	assert.False(t, st.Working)
	assert.Contains(t, st.Reason, "public holiday")
}

func TestCheckTimezoneConversion(t *testing.T) {
	checker := NewChecker(nil)
	// 02:00 UTC on a Wednesday is 10:00 in Singapore.
	at := time.Date(2026, 8, 12, 2, 0, 0, 0, time.UTC)
	user := testUser()
	user.Timezone = "Asia/Singapore"
	user.Country = ""
	user.Preferences.VacationDates = nil

	st := checker.Check(context.Background(), user, at)
	assert.True(t, st.Working, st.Reason)

	// The same instant is 04:00 in Berlin, outside working hours.
	user.Timezone = "Europe/Berlin"
	st = checker.Check(context.Background(), user, at)
	assert.False(t, st.Working)
	assert.Contains(t, st.Reason, "outside working hours")
}

func TestCheckNoPreferences(t *testing.T) {
	checker := NewChecker(nil)
	user := directory.User{Username: "guest"}
	at := time.Date(2026, 8, 16, 3, 0, 0, 0, time.UTC) // Sunday, 03:00

	st := checker.Check(context.Background(), user, at)
	assert.True(t, st.Working, "no preferences means no restriction")
}

func TestCheckWindow(t *testing.T) {
	checker := NewChecker(nil)
	loc := berlin(t)
	user := testUser()

	window, err := timeutil.NewInterval(
		time.Date(2026, 8, 12, 16, 0, 0, 0, loc),
		time.Date(2026, 8, 12, 17, 0, 0, 0, loc),
	)
	if err != nil {
		t.Fatal(err)
	}
	st := checker.CheckWindow(context.Background(), user, window)
	assert.True(t, st.Working, "a window ending exactly at close of business is working time")

	window, err = timeutil.NewInterval(
		time.Date(2026, 8, 12, 16, 30, 0, 0, loc),
		time.Date(2026, 8, 12, 18, 0, 0, 0, loc),
	)
	if err != nil {
		t.Fatal(err)
	}
	st = checker.CheckWindow(context.Background(), user, window)
	assert.False(t, st.Working)

	holidays := &fakeHolidays{}
	NewChecker(holidays).CheckWindow(context.Background(), user, window)
	assert.Zero(t, holidays.calls, "holiday lookup must not fire when hours already exclude the window")
}
