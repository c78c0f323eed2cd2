package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// CommandInvocation captures all information about a scheduling command for
// audit logging. This provides an audit trail for every operation that reads
// or writes calendar data.
//
// # Privacy Considerations
//
// The OrganizerEmail field contains PII. When logging, consider:
//   - Using OrganizerDomain() to get only the domain for metrics/general logs
//   - Only logging full email in audit-specific log streams
//   - Ensuring audit logs have appropriate access controls
type CommandInvocation struct {
	// Command name (check, validate, schedule, slots)
	Command string

	// Organizer identity (from OAuth)
	OrganizerEmail string

	// Target information for Google services
	Account     string // Account name (default, work, personal)
	ServiceName string // Google service (calendar, customsearch)
	Operation   string // Operation type (freebusy, list, insert, query)

	// Scheduling details
	AttendeeCount int
	EventID       string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// OrganizerDomain returns the domain portion of the organizer's email for
// lower-cardinality logging.
func (ci *CommandInvocation) OrganizerDomain() string {
	return ExtractUserDomain(ci.OrganizerEmail)
}

// Status returns "success" or "error" based on the Success field.
func (ci *CommandInvocation) Status() string {
	if ci.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
// This provides a consistent set of fields for all command logs.
//
// # Cardinality
//
// This function uses cardinality-controlled values (organizer_domain)
// for metrics-compatible logging. For full audit logging, use LogAuditAttrs.
func (ci *CommandInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("command", ci.Command),
		slog.String("organizer_domain", ci.OrganizerDomain()),
		slog.Duration("duration", ci.Duration),
		slog.Bool("success", ci.Success),
	}

	// Add optional fields only if present
	if ci.Account != "" && ci.Account != "default" {
		attrs = append(attrs, slog.String("account", ci.Account))
	}
	if ci.ServiceName != "" {
		attrs = append(attrs, slog.String("service", ci.ServiceName))
	}
	if ci.Operation != "" {
		attrs = append(attrs, slog.String("operation", ci.Operation))
	}
	if ci.AttendeeCount > 0 {
		attrs = append(attrs, slog.Int("attendees", ci.AttendeeCount))
	}
	if ci.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ci.TraceID))
	}
	if ci.Error != "" {
		attrs = append(attrs, slog.String("error", ci.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging.
// This includes the full organizer email for compliance/audit purposes.
//
// # Security Warning
//
// This method includes PII (full email). Ensure audit logs are:
//   - Stored securely with appropriate access controls
//   - Not exposed to general monitoring dashboards
//   - Retained according to compliance requirements
func (ci *CommandInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("command", ci.Command),
		slog.String("organizer", ci.OrganizerEmail),
		slog.Duration("duration", ci.Duration),
		slog.Bool("success", ci.Success),
	}

	// Add all optional fields
	if ci.Account != "" {
		attrs = append(attrs, slog.String("account", ci.Account))
	}
	if ci.ServiceName != "" {
		attrs = append(attrs, slog.String("service", ci.ServiceName))
	}
	if ci.Operation != "" {
		attrs = append(attrs, slog.String("operation", ci.Operation))
	}
	if ci.AttendeeCount > 0 {
		attrs = append(attrs, slog.Int("attendees", ci.AttendeeCount))
	}
	if ci.EventID != "" {
		attrs = append(attrs, slog.String("event_id", ci.EventID))
	}
	if ci.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ci.TraceID))
	}
	if ci.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ci.SpanID))
	}
	if ci.Error != "" {
		attrs = append(attrs, slog.String("error", ci.Error))
	}

	return attrs
}

// NewCommandInvocation creates a new CommandInvocation with timing started.
// Call Complete() when the command finishes.
func NewCommandInvocation(command string) *CommandInvocation {
	return &CommandInvocation{
		Command:   command,
		StartTime: time.Now(),
	}
}

// WithOrganizer sets the organizer identity information.
func (ci *CommandInvocation) WithOrganizer(email string) *CommandInvocation {
	ci.OrganizerEmail = email
	return ci
}

// WithAccount sets the Google account name.
func (ci *CommandInvocation) WithAccount(account string) *CommandInvocation {
	ci.Account = account
	return ci
}

// WithService sets the Google service and operation.
func (ci *CommandInvocation) WithService(serviceName, operation string) *CommandInvocation {
	ci.ServiceName = serviceName
	ci.Operation = operation
	return ci
}

// WithAttendees sets the number of attendees involved.
func (ci *CommandInvocation) WithAttendees(count int) *CommandInvocation {
	ci.AttendeeCount = count
	return ci
}

// WithEvent sets the created event ID.
func (ci *CommandInvocation) WithEvent(eventID string) *CommandInvocation {
	ci.EventID = eventID
	return ci
}

// WithSpanContext extracts trace context from the current span.
func (ci *CommandInvocation) WithSpanContext(ctx context.Context) *CommandInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ci.TraceID = span.SpanContext().TraceID().String()
		ci.SpanID = span.SpanContext().SpanID().String()
	}
	return ci
}

// Complete marks the invocation as completed and calculates duration.
// Returns the same CommandInvocation for method chaining.
func (ci *CommandInvocation) Complete(success bool, err error) *CommandInvocation {
	ci.Duration = time.Since(ci.StartTime)
	ci.Success = success
	if err != nil {
		ci.Error = err.Error()
	}
	return ci
}

// CompleteWithError marks the invocation as failed with the given error.
func (ci *CommandInvocation) CompleteWithError(err error) *CommandInvocation {
	return ci.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ci *CommandInvocation) CompleteSuccess() *CommandInvocation {
	return ci.Complete(true, nil)
}

// AuditLogger provides structured audit logging for scheduling commands.
// It wraps slog.Logger with convenience methods for logging command runs.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, PII is not included in logs (anonymized identifiers are used instead).
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: false,
		enabled:    true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether to include full email addresses in audit logs.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogCommandInvocation logs a command run using the standard log attributes.
// This is suitable for general operational logging with cardinality controls.
// If the logger is configured with IncludePII, full organizer emails are
// logged; otherwise, only domain-based anonymized identifiers are used.
func (al *AuditLogger) LogCommandInvocation(ci *CommandInvocation) {
	if !al.enabled {
		return
	}

	// Choose between PII and anonymized logging based on configuration
	var attrs []slog.Attr
	if al.includePII {
		attrs = ci.LogAuditAttrs()
	} else {
		attrs = ci.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ci.Success {
		al.logger.Info("command_executed", args...)
	} else {
		al.logger.Warn("command_failed", args...)
	}
}

// LogCommandAudit logs a command run with full audit details.
// This includes PII (full email addresses) for compliance/audit purposes.
// SECURITY: Ensure audit logs are routed to secure storage with appropriate access controls.
//
// Note: This method respects the enabled flag but always includes PII when
// called, regardless of the IncludePII configuration. Use
// LogCommandInvocation for configuration-aware logging.
func (al *AuditLogger) LogCommandAudit(ci *CommandInvocation) {
	if !al.enabled {
		return
	}

	attrs := ci.LogAuditAttrs()
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	al.logger.Info("command_audit", args...)
}
