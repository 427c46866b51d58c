package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kobot/internal/core/model"
	"kobot/internal/ports/browser"
	"kobot/internal/ports/messaging"
	"kobot/internal/ports/notify"
	"kobot/pkg/logger"
	"kobot/pkg/telemetry"
)

// DefaultReportTimeout bounds notification, publishing and the recovery
// logout once the run's own context is gone.
const DefaultReportTimeout = 30 * time.Second

// Options is the part of the configuration the run acts on.
type Options struct {
	Direction   model.ClockDirection
	DryRun      bool
	Force       bool
	SkipDates   []string
	Geolocation bool
}

// Launcher starts the browser the run will own.
type Launcher func(ctx context.Context) (browser.Browser, error)

// Deps are the collaborators an Engine drives.
type Deps struct {
	Launch    Launcher
	Notifier  notify.Notifier
	Publisher messaging.OutcomePublisher
	Logger    zerolog.Logger
	RunID     string
	// ReportTimeout defaults to DefaultReportTimeout.
	ReportTimeout time.Duration
}

// Engine sequences one run: gate, login, read, validate, clock, logout.
type Engine struct {
	opts     Options
	rc       model.RunContext
	creds    Credentials
	launch   Launcher
	reporter *Reporter
	log      zerolog.Logger
	tracer   trace.Tracer

	reportTimeout time.Duration
}

func NewEngine(opts Options, rc model.RunContext, creds Credentials, deps Deps) *Engine {
	log := deps.Logger.With().
		Str("today", rc.Today).
		Str("direction", string(opts.Direction)).
		Logger()
	reportTimeout := deps.ReportTimeout
	if reportTimeout <= 0 {
		reportTimeout = DefaultReportTimeout
	}
	return &Engine{
		opts:          opts,
		rc:            rc,
		creds:         creds,
		launch:        deps.Launch,
		reporter:      NewReporter(rc, deps.Notifier, deps.Publisher, deps.RunID, log),
		log:           log,
		tracer:        otel.Tracer("kobot-engine"),
		reportTimeout: reportTimeout,
	}
}

// Run performs the single pass. Domain failures and recovered unexpected
// failures come back as a Failed outcome with a nil error. The error is set
// only when the browser cannot be launched or when logging out after a
// failure fails too; the caller is expected to report those itself.
func (e *Engine) Run(ctx context.Context) (model.Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("app.today", e.rc.Today),
		attribute.String("app.direction", string(e.opts.Direction)),
		attribute.Bool("app.dryrun", e.opts.DryRun),
	))
	defer span.End()
	e.log = logger.WithSpan(e.log, span)
	e.reporter.log = e.log

	if ok, reason := Proceed(e.log, e.rc, e.opts.SkipDates, e.opts.Force); !ok {
		out := model.Skipped(e.opts.Direction, reason)
		e.publish(ctx, out)
		return out, nil
	}

	b, err := e.launch(ctx)
	if err != nil {
		err = fmt.Errorf("launch browser: %w", err)
		telemetry.RecordError(span, err)
		out := model.Failed(e.opts.Direction, model.KindUnclassified, err.Error(), model.AttendanceRecord{})
		e.publish(ctx, out)
		return out, err
	}
	e.log.Info().Msg("Launch browser successful")

	out, err := e.runSession(ctx, b)
	telemetry.RecordError(span, err)
	span.SetAttributes(attribute.String("app.outcome", string(out.Status)))
	e.publish(ctx, out)
	return out, err
}

// detach outlives cancellation of ctx, keeping its values, for at most reportTimeout.
func (e *Engine) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.reportTimeout)
}

func (e *Engine) publish(ctx context.Context, out model.Outcome) {
	ctx, cancel := e.detach(ctx)
	defer cancel()
	e.reporter.Publish(ctx, out)
}

func (e *Engine) runSession(ctx context.Context, b browser.Browser) (model.Outcome, error) {
	defer func() {
		if err := b.Quit(); err != nil {
			e.log.Warn().Err(err).Msg("Quit browser failed")
		}
	}()

	sess := NewSession(b, e.rc.URL, e.opts.Geolocation, e.log)
	out, err := e.attempt(ctx, b, sess)
	if out.Status != model.StatusFailed && err == nil {
		return out, nil
	}

	rctx, cancel := e.detach(ctx)
	defer cancel()
	if err != nil {
		out = e.reporter.Unclassified(rctx, e.opts.Direction, err)
	}
	if err := e.stage(rctx, "logout", sess.Logout); err != nil {
		return out, fmt.Errorf("logout after failure: %w", err)
	}
	return out, nil
}

// attempt runs the happy path. A Failed outcome has already been reported and
// still needs a logout; an error is unexpected and has not been reported.
func (e *Engine) attempt(ctx context.Context, b browser.Browser, sess *Session) (model.Outcome, error) {
	dir := e.opts.Direction

	err := e.stage(ctx, "login", func(ctx context.Context) error {
		return sess.Login(ctx, e.creds)
	})
	if err != nil {
		return model.Outcome{}, err
	}

	reader := NewRecordReader(b, e.log)
	var rec model.AttendanceRecord
	err = e.stage(ctx, "read_record", func(ctx context.Context) (err error) {
		rec, err = reader.Read(ctx, e.rc.Today)
		return err
	})
	if err != nil {
		return model.Outcome{}, err
	}

	if f := Validate(e.log, e.rc.Today, rec, e.opts.Force); f != nil {
		out := model.Failed(dir, f.Kind, f.Message, rec)
		e.report(ctx, out)
		return out, nil
	}

	action := NewClockAction(b, reader, e.rc, e.opts.DryRun, e.log)
	var out model.Outcome
	err = e.stage(ctx, "clock", func(ctx context.Context) (err error) {
		out, err = action.Perform(ctx, dir, rec)
		return err
	})
	if err != nil {
		return model.Outcome{}, err
	}

	e.report(ctx, out)
	if out.Status == model.StatusFailed {
		return out, nil
	}

	if err := e.stage(ctx, "logout", sess.Logout); err != nil {
		return out, err
	}
	return out, nil
}

// report notifies a finished clock action or a classified failure.
func (e *Engine) report(ctx context.Context, out model.Outcome) {
	ctx, cancel := e.detach(ctx)
	defer cancel()
	switch out.Status {
	case model.StatusFailed:
		e.reporter.Failure(ctx, out)
	case model.StatusSuccess:
		e.reporter.Success(ctx, out)
	}
}

func (e *Engine) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, name)
	defer span.End()

	err := fn(ctx)
	telemetry.RecordError(span, err)
	return err
}
