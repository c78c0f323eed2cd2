// Package policy evaluates organizational scheduling rules against a
// proposed meeting. Rules are declarative data routed to pure evaluator
// functions; adding a rule kind means adding one evaluator to the
// dispatch table.
package policy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/teemow/conflictfewer/internal/timeutil"
)

// Severity classifies how strongly a violation objects to the event.
type Severity string

const (
	// SeverityInfo is purely informational.
	SeverityInfo Severity = "info"
	// SeverityWarning recommends a change but does not block.
	SeverityWarning Severity = "warning"
	// SeverityError blocks event creation.
	SeverityError Severity = "error"
)

// Rule is one declarative policy. The threshold fields are a union; each
// rule kind reads only its own and falls back to a built-in default when
// the field is unset.
type Rule struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`

	MaxHours     float64 `json:"max_hours,omitempty"`
	MinAttendees int     `json:"min_attendees,omitempty"`
	StartTime    string  `json:"start_time,omitempty"`
	EndTime      string  `json:"end_time,omitempty"`
	AfterHour    int     `json:"after_hour,omitempty"`
	BeforeHour   int     `json:"before_hour,omitempty"`
}

// IsEnabled reports whether the rule participates in checks. Rules are
// enabled unless explicitly disabled.
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Violation is one rule's objection to an event.
type Violation struct {
	RuleID   string         `json:"rule_id"`
	RuleName string         `json:"rule_name"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Blocking reports whether this violation prevents event creation.
func (v Violation) Blocking() bool {
	return v.Severity == SeverityError
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.RuleName, v.Message)
}

// EventSummary carries the derived scalars the evaluators compare against.
type EventSummary struct {
	Date          timeutil.Date
	Start         timeutil.Clock
	End           timeutil.Clock
	AttendeeCount int
}

// DurationHours returns the event length in fractional hours.
func (e EventSummary) DurationHours() float64 {
	start := e.Start.Hour*60 + e.Start.Minute
	end := e.End.Hour*60 + e.End.Minute
	return float64(end-start) / 60.0
}

// evaluator checks one rule against an event. A nil return means the rule
// is satisfied; otherwise exactly one violation.
type evaluator func(Rule, EventSummary) *Violation

// evaluators routes rule IDs to their check. Unknown IDs are skipped so
// a newer policies file works against an older binary.
var evaluators = map[string]evaluator{
	"max_meeting_duration":   checkMaxDuration,
	"minimum_attendees":      checkMinimumAttendees,
	"large_meeting_approval": checkLargeMeeting,
	"business_hours":         checkBusinessHours,
	"weekend_scheduling":     checkWeekend,
	"late_night_meetings":    checkLateNight,
	"early_morning_meetings": checkEarlyMorning,
}

// Engine holds a rule set and checks events against it.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over the given rules.
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() []Rule {
	return e.rules
}

type rulesFile struct {
	Policies []Rule `json:"policies"`
}

// LoadRules reads a policies JSON file of the form {"policies": [...]}.
// A missing file yields an empty rule set rather than an error; a file
// that exists but does not parse is a configuration error.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read policies file: %w", err)
	}
	var f rulesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policies file: %w", err)
	}
	return f.Policies, nil
}

// DefaultRules returns the built-in organizational rule set, used when no
// policies file is configured.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "max_meeting_duration",
			Name:     "Maximum Meeting Duration",
			Severity: SeverityWarning,
			Message:  "Meetings longer than 4 hours are discouraged; consider splitting into multiple sessions",
			MaxHours: 4,
		},
		{
			ID:           "minimum_attendees",
			Name:         "Minimum Attendees",
			Severity:     SeverityInfo,
			Message:      "Meetings usually need at least two participants",
			MinAttendees: 2,
		},
		{
			ID:           "large_meeting_approval",
			Name:         "Large Meeting Approval",
			Severity:     SeverityError,
			Message:      "Meetings with 20 or more attendees require management approval before scheduling",
			MinAttendees: 20,
		},
		{
			ID:        "business_hours",
			Name:      "Business Hours",
			Severity:  SeverityWarning,
			Message:   "Meeting falls outside standard business hours (09:00-17:00)",
			StartTime: "09:00",
			EndTime:   "17:00",
		},
		{
			ID:       "weekend_scheduling",
			Name:     "Weekend Scheduling",
			Severity: SeverityWarning,
			Message:  "Scheduling meetings on weekends is discouraged",
		},
		{
			ID:        "late_night_meetings",
			Name:      "Late Night Meetings",
			Severity:  SeverityWarning,
			Message:   "Meetings starting at 20:00 or later are discouraged",
			AfterHour: 20,
		},
		{
			ID:         "early_morning_meetings",
			Name:       "Early Morning Meetings",
			Severity:   SeverityInfo,
			Message:    "Meetings starting before 07:00 may be inconvenient",
			BeforeHour: 7,
		},
	}
}

// Check evaluates every enabled rule against the event. Rules are
// independent; the result set does not depend on evaluation order.
func (e *Engine) Check(event EventSummary) []Violation {
	var violations []Violation
	for _, rule := range e.rules {
		if !rule.IsEnabled() {
			continue
		}
		eval, ok := evaluators[rule.ID]
		if !ok {
			continue
		}
		if v := eval(rule, event); v != nil {
			violations = append(violations, *v)
		}
	}
	return violations
}

// Blocking filters violations down to those that prevent creation.
func Blocking(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Blocking() {
			out = append(out, v)
		}
	}
	return out
}

func (r Rule) violation(metadata map[string]any) *Violation {
	return &Violation{
		RuleID:   r.ID,
		RuleName: r.Name,
		Severity: r.Severity,
		Message:  r.Message,
		Metadata: metadata,
	}
}

func checkMaxDuration(r Rule, e EventSummary) *Violation {
	maxHours := r.MaxHours
	if maxHours <= 0 {
		maxHours = 4
	}
	duration := e.DurationHours()
	if duration > maxHours {
		return r.violation(map[string]any{
			"duration_hours": duration,
			"max_hours":      maxHours,
		})
	}
	return nil
}

func checkMinimumAttendees(r Rule, e EventSummary) *Violation {
	minAttendees := r.MinAttendees
	if minAttendees <= 0 {
		minAttendees = 2
	}
	if e.AttendeeCount < minAttendees {
		return r.violation(map[string]any{
			"attendee_count": e.AttendeeCount,
			"minimum":        minAttendees,
		})
	}
	return nil
}

func checkLargeMeeting(r Rule, e EventSummary) *Violation {
	threshold := r.MinAttendees
	if threshold <= 0 {
		threshold = 20
	}
	if e.AttendeeCount >= threshold {
		return r.violation(map[string]any{
			"attendee_count": e.AttendeeCount,
			"threshold":      threshold,
		})
	}
	return nil
}

func checkBusinessHours(r Rule, e EventSummary) *Violation {
	openHour, closeHour := 9, 17
	if c, err := timeutil.ParseClock(r.StartTime); err == nil {
		openHour = c.Hour
	}
	if c, err := timeutil.ParseClock(r.EndTime); err == nil {
		closeHour = c.Hour
	}
	if e.Start.Hour < openHour || e.End.Hour > closeHour {
		return r.violation(map[string]any{
			"start_time":     e.Start.String(),
			"end_time":       e.End.String(),
			"business_hours": fmt.Sprintf("%02d:00-%02d:00", openHour, closeHour),
		})
	}
	return nil
}

func checkWeekend(r Rule, e EventSummary) *Violation {
	if e.Date.IsWeekend() {
		return r.violation(map[string]any{
			"day_of_week": e.Date.Weekday().String(),
		})
	}
	return nil
}

func checkLateNight(r Rule, e EventSummary) *Violation {
	afterHour := r.AfterHour
	if afterHour <= 0 {
		afterHour = 20
	}
	if e.Start.Hour >= afterHour {
		return r.violation(map[string]any{
			"start_hour": e.Start.Hour,
			"threshold":  afterHour,
		})
	}
	return nil
}

func checkEarlyMorning(r Rule, e EventSummary) *Violation {
	beforeHour := r.BeforeHour
	if beforeHour <= 0 {
		beforeHour = 7
	}
	if e.Start.Hour < beforeHour {
		return r.violation(map[string]any{
			"start_hour": e.Start.Hour,
			"threshold":  beforeHour,
		})
	}
	return nil
}
