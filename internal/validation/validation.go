// Package validation runs independent checks over a proposed meeting and
// merges them into one verdict. The four dimensions run concurrently and
// a failure inside one never disturbs the others.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/conflictfewer/internal/availability"
	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/logging"
	"github.com/teemow/conflictfewer/internal/policy"
	"github.com/teemow/conflictfewer/internal/timeutil"
)

// Dimension names one validation check.
type Dimension string

const (
	DimensionConflicts Dimension = "calendar_conflicts"
	DimensionRoom      Dimension = "room_availability"
	DimensionTimezone  Dimension = "timezone_sanity"
	DimensionPolicy    Dimension = "policy_compliance"
)

// dimensions is the evaluation set, in report order.
var dimensions = []Dimension{
	DimensionConflicts,
	DimensionRoom,
	DimensionTimezone,
	DimensionPolicy,
}

// EventDetails is the meeting under validation. Window is the meeting in
// UTC; Date, Start and End are the same meeting in its local timezone,
// which the hour-based checks compare against.
type EventDetails struct {
	Title     string
	Date      timeutil.Date
	Start     timeutil.Clock
	End       timeutil.Clock
	Window    timeutil.Interval
	Attendees []string
	Location  string
}

// Result is one dimension's outcome. Issues block scheduling, warnings
// do not. A skipped dimension has Skipped set and contributes nothing.
type Result struct {
	Dimension Dimension     `json:"dimension"`
	Passed    bool          `json:"passed"`
	Issues    []string      `json:"issues,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
	Skipped   bool          `json:"skipped,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Verdict is the merged outcome across all dimensions.
type Verdict struct {
	Valid   bool                 `json:"valid"`
	Results map[Dimension]Result `json:"results"`
	Elapsed time.Duration        `json:"elapsed"`
}

// Issues returns every blocking issue across dimensions, in report order.
func (v *Verdict) Issues() []string {
	var out []string
	for _, d := range dimensions {
		out = append(out, v.Results[d].Issues...)
	}
	return out
}

// Warnings returns every advisory warning across dimensions.
func (v *Verdict) Warnings() []string {
	var out []string
	for _, d := range dimensions {
		out = append(out, v.Results[d].Warnings...)
	}
	return out
}

// AvailabilityChecker is the attendee availability dependency.
// *availability.Coordinator satisfies it.
type AvailabilityChecker interface {
	CheckAll(ctx context.Context, attendees []string, window timeutil.Interval) *availability.Aggregate
}

var _ AvailabilityChecker = (*availability.Coordinator)(nil)

// PolicyChecker is the policy dependency. *policy.Engine satisfies it.
type PolicyChecker interface {
	Check(event policy.EventSummary) []policy.Violation
}

var _ PolicyChecker = (*policy.Engine)(nil)

// Orchestrator runs the validation dimensions.
type Orchestrator struct {
	availability AvailabilityChecker
	policies     PolicyChecker
	logger       *slog.Logger

	// roomAdvisoryThreshold is the attendee count at which a missing
	// location draws a warning.
	roomAdvisoryThreshold int
}

// NewOrchestrator creates an orchestrator. Either dependency may be nil,
// in which case its dimension is skipped.
func NewOrchestrator(avail AvailabilityChecker, policies PolicyChecker, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		availability:          avail,
		policies:              policies,
		logger:                logger,
		roomAdvisoryThreshold: 3,
	}
}

// Validate runs all dimensions concurrently and merges their results.
// The event is valid iff no dimension produced a blocking issue; warnings
// never affect validity. A dimension that panics or cannot run is
// recorded as skipped and the remaining dimensions' results stand.
func (o *Orchestrator) Validate(ctx context.Context, event EventDetails) *Verdict {
	start := time.Now()
	verdict := &Verdict{Results: make(map[Dimension]Result, len(dimensions))}

	checks := map[Dimension]func(context.Context, EventDetails) Result{
		DimensionConflicts: o.checkConflicts,
		DimensionRoom:      o.checkRoom,
		DimensionTimezone:  o.checkTimezone,
		DimensionPolicy:    o.checkPolicies,
	}

	results := make([]Result, len(dimensions))
	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range dimensions {
		i, dim := i, dim
		check := checks[dim]
		g.Go(func() error {
			results[i] = o.runContained(gctx, dim, check, event)
			return nil
		})
	}
	_ = g.Wait()

	valid := true
	for i, dim := range dimensions {
		verdict.Results[dim] = results[i]
		if len(results[i].Issues) > 0 {
			valid = false
		}
	}
	verdict.Valid = valid
	verdict.Elapsed = time.Since(start)

	o.logger.Info("validation complete",
		logging.Operation("validate"),
		slog.Bool("valid", verdict.Valid),
		slog.Int("issues", len(verdict.Issues())),
		slog.Int("warnings", len(verdict.Warnings())),
		logging.Duration(verdict.Elapsed),
	)
	return verdict
}

// runContained executes one dimension's check, converting a panic into a
// skipped result so one broken dimension cannot take down the rest.
func (o *Orchestrator) runContained(ctx context.Context, dim Dimension, check func(context.Context, EventDetails) Result, event EventDetails) (result Result) {
	ctx, span := instrumentation.StartDimensionSpan(ctx, string(dim))
	defer span.End()

	start := time.Now()
	defer func() {
		result.Dimension = dim
		result.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			o.logger.Error("validation dimension panicked",
				logging.Dimension(string(dim)),
				slog.Any("panic", r),
			)
			result = Result{Dimension: dim, Passed: true, Skipped: true, Elapsed: time.Since(start)}
		}
		if len(result.Issues) > 0 {
			instrumentation.SetSpanError(span, fmt.Errorf("%d blocking issue(s)", len(result.Issues)))
		} else {
			instrumentation.SetSpanSuccess(span)
		}
	}()
	return check(ctx, event)
}

// checkConflicts delegates to the availability coordinator. Busy
// attendees block; unreachable calendars only warn, since a calendar
// being down is not evidence of a conflict.
func (o *Orchestrator) checkConflicts(ctx context.Context, event EventDetails) Result {
	if o.availability == nil {
		return Result{Passed: true, Skipped: true}
	}

	agg := o.availability.CheckAll(ctx, event.Attendees, event.Window)

	var result Result
	for _, id := range agg.BusyIdentities() {
		result.Issues = append(result.Issues,
			fmt.Sprintf("%s has %d conflicting event(s) in this window", id, len(agg.Busy[id])))
	}
	for _, id := range agg.ErroredIdentities() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("could not check %s: %s", id, agg.Errors[id]))
	}
	result.Passed = len(result.Issues) == 0
	return result
}

// checkRoom is advisory only: it flags larger meetings with no location
// rather than verifying a specific room's calendar.
func (o *Orchestrator) checkRoom(_ context.Context, event EventDetails) Result {
	result := Result{Passed: true}
	if len(event.Attendees) >= o.roomAdvisoryThreshold && event.Location == "" {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d attendees but no location set; consider booking a room", len(event.Attendees)))
	}
	return result
}

// checkTimezone flags start hours that are likely painful somewhere.
func (o *Orchestrator) checkTimezone(_ context.Context, event EventDetails) Result {
	result := Result{Passed: true}
	if event.Start.Hour < 6 || event.Start.Hour >= 22 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("start time %s may be unsuitable for some participants' timezones", event.Start))
	}
	return result
}

// checkPolicies delegates to the policy engine. Blocking severities
// become issues; everything else becomes a warning.
func (o *Orchestrator) checkPolicies(_ context.Context, event EventDetails) Result {
	if o.policies == nil {
		return Result{Passed: true, Skipped: true}
	}

	summary := policy.EventSummary{
		Date:          event.Date,
		Start:         event.Start,
		End:           event.End,
		AttendeeCount: len(event.Attendees),
	}

	violations := o.policies.Check(summary)

	var result Result
	for _, v := range policy.Blocking(violations) {
		result.Issues = append(result.Issues, v.String())
	}
	for _, v := range violations {
		if !v.Blocking() {
			result.Warnings = append(result.Warnings, v.String())
		}
	}
	result.Passed = len(result.Issues) == 0
	return result
}
