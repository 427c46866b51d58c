package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kobot/internal/core/model"
	"kobot/internal/ports/messaging"
	"kobot/internal/ports/notify"
)

// Reporter turns outcomes into log entries, notifications and outcome events.
type Reporter struct {
	rc        model.RunContext
	notifier  notify.Notifier
	publisher messaging.OutcomePublisher
	runID     string
	log       zerolog.Logger
}

func NewReporter(rc model.RunContext, n notify.Notifier, p messaging.OutcomePublisher, runID string, log zerolog.Logger) *Reporter {
	if p == nil {
		p = messaging.NopPublisher{}
	}
	return &Reporter{rc: rc, notifier: n, publisher: p, runID: runID, log: log}
}

// Success notifies a verified clock action. Simulated actions are not notified.
func (r *Reporter) Success(ctx context.Context, out model.Outcome) {
	if out.DryRun {
		r.log.Info().Str("direction", string(out.Direction)).Msg("[Dryrun] no notification for simulated action")
		return
	}
	body, err := ComposeSuccess(r.rc.Today, out.Direction, out.Record)
	if err != nil {
		r.log.Error().Err(err).Msg("Compose success notification failed")
		return
	}
	r.send(ctx, body)
}

// Failure logs and notifies a classified domain failure.
func (r *Reporter) Failure(ctx context.Context, out model.Outcome) {
	class := out.Kind.Class()
	r.log.Warn().
		Str("kind", string(out.Kind)).
		Str("class", string(class)).
		Msg(out.Message)
	body, err := ComposeFailure(r.rc.Today, class, out.Message, out.Record)
	if err != nil {
		r.log.Error().Err(err).Msg("Compose failure notification failed")
		return
	}
	r.send(ctx, body)
}

// Unclassified logs an unexpected error with its full chain, notifies it, and
// returns the failed outcome that replaces whatever the run had produced.
func (r *Reporter) Unclassified(ctx context.Context, dir model.ClockDirection, err error) model.Outcome {
	r.log.Error().
		Err(err).
		Str("error_type", fmt.Sprintf("%T", err)).
		Str("kind", string(model.KindUnclassified)).
		Msg("Unexpected failure during run")
	out := model.Failed(dir, model.KindUnclassified, err.Error(), model.AttendanceRecord{})
	body, cerr := ComposeFailure(r.rc.Today, model.ClassUnclassified, out.Message, out.Record)
	if cerr != nil {
		r.log.Error().Err(cerr).Msg("Compose failure notification failed")
		return out
	}
	r.send(ctx, body)
	return out
}

// Publish emits the outcome event. Failures never change the outcome.
func (r *Reporter) Publish(ctx context.Context, out model.Outcome) {
	event := messaging.OutcomeEvent{
		RunID:      r.runID,
		Date:       r.rc.ISODate(),
		Direction:  string(out.Direction),
		Status:     string(out.Status),
		Kind:       string(out.Kind),
		Message:    out.Message,
		ClockIn:    out.Record.ClockIn,
		ClockOut:   out.Record.ClockOut,
		DryRun:     out.DryRun,
		OccurredAt: time.Now().In(r.rc.Location),
	}
	if err := r.publisher.PublishOutcome(ctx, event); err != nil {
		r.log.Warn().Err(err).Msg("Publish outcome event failed")
	}
}

func (r *Reporter) send(ctx context.Context, body string) {
	if err := r.notifier.Send(ctx, body); err != nil {
		r.log.Warn().Err(err).Msg("Send notification failed")
	}
}
