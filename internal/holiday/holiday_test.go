package holiday

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/conflictfewer/internal/timeutil"
)

type fakeSearcher struct {
	result string
	err    error
	calls  int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (string, error) {
	f.calls++
	return f.result, f.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		results string
		want    bool
	}{
		{
			name:    "affirmative public holiday",
			results: "January 1 is a public holiday in Germany, with banks closed.",
			want:    true,
		},
		{
			name:    "affirmative national holiday",
			results: "It is observed as a national holiday across the country.",
			want:    true,
		},
		{
			name:    "negation wins over affirmative",
			results: "Although often confused with a public holiday, it is not a holiday.",
			want:    false,
		},
		{
			name:    "no signal",
			results: "The weather on that day is usually mild.",
			want:    false,
		},
		{
			name:    "empty results",
			results: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.results); got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckerCachesVerdicts(t *testing.T) {
	searcher := &fakeSearcher{result: "New Year's Day is a public holiday in Singapore."}
	checker := NewChecker(searcher, NewCache(0), nil)

	date := timeutil.Date{Year: 2026, Month: time.January, Day: 1}
	assert.True(t, checker.IsHoliday(context.Background(), date, "Singapore"))
	assert.True(t, checker.IsHoliday(context.Background(), date, "Singapore"))
	assert.Equal(t, 1, searcher.calls, "second lookup should hit the cache")
}

func TestCheckerDistinctCountriesNotShared(t *testing.T) {
	searcher := &fakeSearcher{result: "It is a public holiday."}
	checker := NewChecker(searcher, NewCache(0), nil)

	date := timeutil.Date{Year: 2026, Month: time.October, Day: 3}
	checker.IsHoliday(context.Background(), date, "Germany")
	checker.IsHoliday(context.Background(), date, "France")
	assert.Equal(t, 2, searcher.calls)
}

func TestCheckerFailsOpen(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("quota exceeded")}
	checker := NewChecker(searcher, nil, nil)

	date := timeutil.Date{Year: 2026, Month: time.May, Day: 1}
	assert.False(t, checker.IsHoliday(context.Background(), date, "Germany"))
	assert.Equal(t, 0, checker.cache.Len(), "errors must not be cached")
}

func TestCheckerNoCountryNoSearcher(t *testing.T) {
	date := timeutil.Date{Year: 2026, Month: time.May, Day: 1}

	checker := NewChecker(&fakeSearcher{result: "public holiday"}, nil, nil)
	assert.False(t, checker.IsHoliday(context.Background(), date, ""))

	checker = NewChecker(nil, nil, nil)
	assert.False(t, checker.IsHoliday(context.Background(), date, "Germany"))
}

func TestCacheTTL(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(time.Hour).WithClock(func() time.Time { return current })

	cache.put("Germany:2026-10-03", true)
	got, ok := cache.get("Germany:2026-10-03")
	assert.True(t, ok)
	assert.True(t, got)

	current = current.Add(2 * time.Hour)
	_, ok = cache.get("Germany:2026-10-03")
	assert.False(t, ok, "entry should expire after the TTL")
}
