// Package availability fans out free/busy lookups across a meeting's
// attendee list and merges the outcomes into a single aggregate. One
// attendee's slow or broken calendar never affects a sibling's result.
package availability

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/conflictfewer/internal/calendar"
	"github.com/teemow/conflictfewer/internal/directory"
	"github.com/teemow/conflictfewer/internal/logging"
	"github.com/teemow/conflictfewer/internal/timeutil"
	"github.com/teemow/conflictfewer/internal/workhours"
)

const (
	// DefaultTimeout bounds a single attendee's free/busy lookup.
	DefaultTimeout = 3 * time.Second

	// DefaultMaxConcurrent caps the number of simultaneous lookups.
	// Larger attendee lists are processed in sequential batches.
	DefaultMaxConcurrent = 50

	// nominalSequentialCost is the assumed duration of one sequential
	// lookup, used only for the diagnostic parallelization factor.
	nominalSequentialCost = time.Second
)

// FreeBusySource is the remote lookup the coordinator fans out over.
// *calendar.Client satisfies it.
type FreeBusySource interface {
	FreeBusy(ctx context.Context, identity string, window timeutil.Interval) (calendar.FreeBusyResult, error)
}

var _ FreeBusySource = (*calendar.Client)(nil)

// Aggregate is the merged outcome of checking every attendee. The three
// buckets are mutually exclusive and callers must treat them as sets;
// no ordering is promised.
type Aggregate struct {
	Window    timeutil.Interval
	Available []string
	Busy      map[string][]calendar.BusyRange
	Errors    map[string]string
	Elapsed   time.Duration

	// ParallelizationFactor compares the observed wall-clock time against
	// a nominal one-second-per-attendee sequential baseline. Diagnostic
	// only, never used for decisions.
	ParallelizationFactor float64
}

// AllAvailable reports whether every attendee is free: no busy intervals
// and no lookup errors.
func (a *Aggregate) AllAvailable() bool {
	return len(a.Busy) == 0 && len(a.Errors) == 0
}

// Total returns the number of attendees checked.
func (a *Aggregate) Total() int {
	return len(a.Available) + len(a.Busy) + len(a.Errors)
}

// Coordinator runs availability checks for whole attendee lists.
type Coordinator struct {
	source        FreeBusySource
	roster        *directory.Store
	working       *workhours.Checker
	timeout       time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout overrides the per-attendee lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxConcurrent overrides the concurrency cap.
func WithMaxConcurrent(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxConcurrent = n
		}
	}
}

// WithWorkingTime layers working-time awareness on top of calendar
// free/busy. Attendees found in the roster who are free on calendar but
// outside their working time get one synthetic busy range covering the
// whole window, with the reason in the range's detail.
func WithWorkingTime(roster *directory.Store, checker *workhours.Checker) Option {
	return func(c *Coordinator) {
		c.roster = roster
		c.working = checker
	}
}

// WithLogger overrides the coordinator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates a coordinator over the given free/busy source.
func NewCoordinator(source FreeBusySource, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:        source,
		timeout:       DefaultTimeout,
		maxConcurrent: DefaultMaxConcurrent,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAll checks every attendee's availability for the window. Attendees
// are trimmed and deduplicated first; an empty list returns an
// all-available aggregate without any remote call. Lists above the
// concurrency cap are processed in sequential batches, each batch fanned
// out with one goroutine per attendee.
func (c *Coordinator) CheckAll(ctx context.Context, attendees []string, window timeutil.Interval) *Aggregate {
	deduped := dedupe(attendees)

	agg := &Aggregate{
		Window: window,
		Busy:   make(map[string][]calendar.BusyRange),
		Errors: make(map[string]string),
	}
	if len(deduped) == 0 {
		agg.ParallelizationFactor = 1.0
		return agg
	}

	start := time.Now()
	for len(deduped) > 0 {
		batch := deduped
		if len(batch) > c.maxConcurrent {
			batch = deduped[:c.maxConcurrent]
		}
		deduped = deduped[len(batch):]
		c.checkBatch(ctx, batch, window, agg)
	}
	agg.Elapsed = time.Since(start)
	agg.ParallelizationFactor = parallelizationFactor(agg.Total(), agg.Elapsed)

	c.logger.Info("availability check complete",
		logging.Operation("check_all"),
		slog.Int("attendees", agg.Total()),
		slog.Int("busy", len(agg.Busy)),
		slog.Int("errored", len(agg.Errors)),
		logging.Duration(agg.Elapsed),
	)
	return agg
}

// checkBatch fans one goroutine out per attendee and merges the results
// into agg. Worker errors are recorded per attendee and never returned to
// the group, so no attendee's failure cancels a sibling.
func (c *Coordinator) checkBatch(ctx context.Context, batch []string, window timeutil.Interval, agg *Aggregate) {
	results := make([]calendar.FreeBusyResult, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	for i, attendee := range batch {
		i, attendee := i, attendee
		g.Go(func() error {
			results[i] = c.checkOne(gctx, attendee, window)
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	for _, r := range results {
		switch {
		case r.ErrorReason != "":
			agg.Errors[r.Identity] = r.ErrorReason
		case len(r.Busy) > 0:
			agg.Busy[r.Identity] = r.Busy
		default:
			agg.Available = append(agg.Available, r.Identity)
		}
	}
}

// checkOne runs a single attendee's lookup under the per-call timeout and
// applies the working-time layer to calendar-free attendees.
func (c *Coordinator) checkOne(ctx context.Context, attendee string, window timeutil.Interval) calendar.FreeBusyResult {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.source.FreeBusy(callCtx, attendee, window)
	if err != nil {
		reason := err.Error()
		if callCtx.Err() == context.DeadlineExceeded {
			reason = "availability lookup timed out after " + c.timeout.String()
		}
		c.logger.Warn("availability lookup failed",
			logging.Operation("free_busy"),
			logging.UserHash(attendee),
			logging.Err(err),
		)
		return calendar.FreeBusyResult{Identity: attendee, ErrorReason: reason}
	}
	result.Identity = attendee

	if result.Available() && result.ErrorReason == "" {
		if busy, ok := c.workingTimeBusy(ctx, attendee, window); ok {
			result.Busy = append(result.Busy, busy)
		}
	}
	return result
}

// workingTimeBusy returns a synthetic busy range when the attendee is
// known in the roster and the window falls outside their working time.
func (c *Coordinator) workingTimeBusy(ctx context.Context, attendee string, window timeutil.Interval) (calendar.BusyRange, bool) {
	if c.roster == nil || c.working == nil {
		return calendar.BusyRange{}, false
	}
	user, ok := c.roster.UserDetails(attendee)
	if !ok {
		return calendar.BusyRange{}, false
	}
	status := c.working.CheckWindow(ctx, user, window)
	if status.Working {
		return calendar.BusyRange{}, false
	}
	return calendar.BusyRange{
		Start:  window.Start,
		End:    window.End,
		Detail: status.Reason,
	}, true
}

// dedupe trims whitespace and removes duplicates while preserving first
// occurrence order, so results are reproducible in tests.
func dedupe(attendees []string) []string {
	seen := make(map[string]struct{}, len(attendees))
	out := make([]string, 0, len(attendees))
	for _, a := range attendees {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func parallelizationFactor(n int, elapsed time.Duration) float64 {
	if n == 0 || elapsed <= 0 {
		return 1.0
	}
	return float64(n) * float64(nominalSequentialCost) / float64(elapsed)
}

// BusyIdentities returns the busy attendees in sorted order, for stable
// report output.
func (a *Aggregate) BusyIdentities() []string {
	out := make([]string, 0, len(a.Busy))
	for id := range a.Busy {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ErroredIdentities returns the errored attendees in sorted order.
func (a *Aggregate) ErroredIdentities() []string {
	out := make([]string, 0, len(a.Errors))
	for id := range a.Errors {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
