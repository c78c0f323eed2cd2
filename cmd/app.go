package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/conflictfewer/internal/availability"
	"github.com/teemow/conflictfewer/internal/calendar"
	"github.com/teemow/conflictfewer/internal/config"
	"github.com/teemow/conflictfewer/internal/directory"
	"github.com/teemow/conflictfewer/internal/holiday"
	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/logging"
	"github.com/teemow/conflictfewer/internal/policy"
	"github.com/teemow/conflictfewer/internal/reasoning"
	"github.com/teemow/conflictfewer/internal/server"
	"github.com/teemow/conflictfewer/internal/timeutil"
	"github.com/teemow/conflictfewer/internal/workhours"
)

// app ties the configured collaborators together for one command run.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	loc      *time.Location
	provider *instrumentation.Provider
	audit    *instrumentation.AuditLogger
	thoughts *reasoning.Engine
	metrics  *server.MetricsServer

	// roster and working are nil when no users file is configured;
	// availability checks then skip the working-time layer.
	roster  *directory.Store
	working *workhours.Checker
}

// newApp loads config, sets up logging and instrumentation, and starts
// the metrics server when one is configured.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if accountFlag != "" {
		cfg.Account = accountFlag
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	logger := logging.Setup(logging.ParseLevel(cfg.LogLevel), cfg.LogJSON)
	slog.SetDefault(logger)

	loc, err := timeutil.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		loc:      loc,
		provider: provider,
		audit:    instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging),
		thoughts: reasoning.NewEngine(true),
	}
	if verbose {
		a.thoughts.OnThought(reasoning.SlogListener(logger))
	}

	if cfg.UsersFile != "" || cfg.FacilitiesFile != "" {
		roster, err := directory.Load(cfg.UsersFile, cfg.FacilitiesFile)
		if err != nil {
			logger.Warn("failed to load roster, working-time checks disabled", logging.Err(err))
		} else {
			a.roster = roster
			// Avoid handing a typed-nil checker to the interface.
			var holidays workhours.HolidayChecker
			if hc := a.holidayChecker(ctx); hc != nil {
				holidays = hc
			}
			a.working = workhours.NewChecker(holidays).WithDefaultCountry(cfg.HolidayCountry)
		}
	}

	if cfg.MetricsAddr != "" && provider.Enabled() {
		if err := a.startMetricsServer(); err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
	}

	return a, nil
}

func (a *app) startMetricsServer() error {
	ms, err := server.NewMetricsServer(a.cfg.MetricsAddr, a.provider)
	if err != nil {
		return fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		if err := ms.Start(ready); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ready:
		a.logger.Info("metrics server started", slog.String("addr", ms.Addr()))
	case err := <-errCh:
		return fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return fmt.Errorf("metrics server startup timed out")
	}

	a.metrics = ms
	return nil
}

// Close shuts down the metrics server and the instrumentation provider.
func (a *app) Close(ctx context.Context) {
	if a.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := a.metrics.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("error during metrics server shutdown", logging.Err(err))
		}
		cancel()
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("error during instrumentation shutdown", logging.Err(err))
	}
}

// holidayChecker builds the search-backed holiday lookup, or nil when the
// Custom Search credentials are not configured.
func (a *app) holidayChecker(ctx context.Context) *holiday.Checker {
	if a.cfg.SearchAPIKey == "" || a.cfg.SearchEngineID == "" {
		return nil
	}
	search, err := holiday.NewCustomSearch(ctx, a.cfg.SearchAPIKey, a.cfg.SearchEngineID)
	if err != nil {
		a.logger.Warn("holiday lookup disabled", logging.Err(err))
		return nil
	}
	return holiday.NewChecker(search, holiday.NewCache(12*time.Hour), a.logger).
		WithMetrics(a.provider.Metrics())
}

func (a *app) account() string {
	if a.cfg.Account != "" {
		return a.cfg.Account
	}
	return "default"
}

func (a *app) calendarClient(ctx context.Context) (*calendar.Client, error) {
	account := a.account()
	if !calendar.HasTokenForAccount(account) {
		return nil, fmt.Errorf("no Google token for account %q; run 'conflictfewer auth' first", account)
	}
	client, err := calendar.NewClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
	}
	return client.WithMetrics(a.provider.Metrics()), nil
}

func (a *app) coordinator(source availability.FreeBusySource) *availability.Coordinator {
	opts := []availability.Option{
		availability.WithTimeout(a.cfg.CheckTimeout),
		availability.WithMaxConcurrent(a.cfg.MaxConcurrentChecks),
		availability.WithLogger(a.logger),
	}
	if a.roster != nil && a.working != nil {
		opts = append(opts, availability.WithWorkingTime(a.roster, a.working))
	}
	return availability.NewCoordinator(source, opts...)
}

// policyEngine loads the configured rule file, falling back to the
// built-in rules when none is configured. A broken rule file downgrades
// to no policy checks rather than failing the whole command.
func (a *app) policyEngine() *policy.Engine {
	if a.cfg.PoliciesFile == "" {
		return policy.NewEngine(policy.DefaultRules())
	}
	rules, err := policy.LoadRules(a.cfg.PoliciesFile)
	if err != nil {
		a.logger.Warn("failed to load policies, continuing without policy checks", logging.Err(err))
		return policy.NewEngine(nil)
	}
	return policy.NewEngine(rules)
}

// resolveWindow turns the date/start/end command inputs into the local
// meeting coordinates plus the UTC interval remote services consume.
func (a *app) resolveWindow(dateStr, startStr, endStr string) (timeutil.Date, timeutil.Clock, timeutil.Clock, timeutil.Interval, error) {
	var window timeutil.Interval

	date, err := timeutil.ParseDate(dateStr)
	if err != nil {
		return timeutil.Date{}, timeutil.Clock{}, timeutil.Clock{}, window, err
	}
	start, err := timeutil.ParseClock(startStr)
	if err != nil {
		return timeutil.Date{}, timeutil.Clock{}, timeutil.Clock{}, window, err
	}
	end, err := timeutil.ParseTimeOrDuration(endStr)
	if err != nil {
		return timeutil.Date{}, timeutil.Clock{}, timeutil.Clock{}, window, err
	}

	window, err = timeutil.ResolveInterval(date, start, end, a.loc)
	if err != nil {
		return timeutil.Date{}, timeutil.Clock{}, timeutil.Clock{}, window, err
	}

	_, endClock := timeutil.ResolveEnd(date, start, end)
	return date, start, endClock, window, nil
}

// expandAttendees merges explicit attendee arguments with a roster team.
func (a *app) expandAttendees(args []string, team string) ([]string, error) {
	attendees := append([]string(nil), args...)
	if team != "" {
		if a.roster == nil {
			return nil, fmt.Errorf("--team requires a users_file in the config")
		}
		members := a.roster.TeamMembers(team)
		if len(members) == 0 {
			return nil, fmt.Errorf("no members found for team %q", team)
		}
		attendees = append(attendees, members...)
	}
	if len(attendees) == 0 {
		return nil, fmt.Errorf("no attendees given: pass email addresses or --team")
	}
	return attendees, nil
}
