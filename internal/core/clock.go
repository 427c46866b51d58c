package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"kobot/internal/core/model"
	"kobot/internal/ports/browser"
)

// ClockAction performs the clock-in or clock-out interaction at most once a day.
type ClockAction struct {
	b      browser.Browser
	reader *RecordReader
	rc     model.RunContext
	dryRun bool
	log    zerolog.Logger
}

func NewClockAction(b browser.Browser, reader *RecordReader, rc model.RunContext, dryRun bool, log zerolog.Logger) *ClockAction {
	return &ClockAction{b: b, reader: reader, rc: rc, dryRun: dryRun, log: log}
}

// Perform acts on today's record in the given direction. Fields already set
// short-circuit to AlreadyDone; otherwise the record is re-read after the click
// to verify the time was recorded. Errors are unexpected page failures.
func (a *ClockAction) Perform(ctx context.Context, dir model.ClockDirection, rec model.AttendanceRecord) (model.Outcome, error) {
	switch dir {
	case model.ClockIn:
		return a.clockIn(ctx, rec)
	case model.ClockOut:
		return a.clockOut(ctx, rec)
	default:
		return model.Outcome{}, fmt.Errorf("invalid clock direction %q", dir)
	}
}

func (a *ClockAction) clockIn(ctx context.Context, rec model.AttendanceRecord) (model.Outcome, error) {
	if a.rc.Now.Hour() > 12 {
		a.log.Warn().Time("now", a.rc.Now).Msg("Clock in during the afternoon")
	}
	if rec.HasClockIn() {
		a.log.Warn().Str("clock_in", rec.ClockIn).Msg("Clock in done already")
		return model.AlreadyDone(model.ClockIn, rec), nil
	}

	if err := a.click(ctx, selClockInButton, "clock in button (出勤)"); err != nil {
		return model.Outcome{}, err
	}
	if a.dryRun {
		return model.Simulated(model.ClockIn, rec), nil
	}

	after, err := a.reader.Read(ctx, a.rc.Today)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("verify clock in: %w", err)
	}
	if !after.HasClockIn() {
		return model.Failed(model.ClockIn, model.KindClockInFailed, "Clock in operation seems to have failed", after), nil
	}
	a.log.Info().Str("clock_in", after.ClockIn).Msg("Clock in successful")
	return model.Succeeded(model.ClockIn, after), nil
}

func (a *ClockAction) clockOut(ctx context.Context, rec model.AttendanceRecord) (model.Outcome, error) {
	if a.rc.Now.Hour() <= 12 {
		a.log.Warn().Time("now", a.rc.Now).Msg("Clock out during the morning")
	}
	if !a.dryRun && !rec.HasClockIn() {
		msg := fmt.Sprintf("!!!No clock in record for today=%s!!!", rec.Date)
		return model.Failed(model.ClockOut, model.KindClockOutFailed, msg, rec), nil
	}
	if rec.HasClockOut() {
		a.log.Warn().Str("clock_out", rec.ClockOut).Msg("Clock out done already")
		return model.AlreadyDone(model.ClockOut, rec), nil
	}

	if err := a.click(ctx, selClockOutButton, "clock out button (退勤)"); err != nil {
		return model.Outcome{}, err
	}
	if a.dryRun {
		return model.Simulated(model.ClockOut, rec), nil
	}

	after, err := a.reader.Read(ctx, a.rc.Today)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("verify clock out: %w", err)
	}
	if !after.HasClockOut() {
		return model.Failed(model.ClockOut, model.KindClockOutFailed, "Clock out operation seems to have failed", after), nil
	}
	a.log.Info().Str("clock_out", after.ClockOut).Msg("Clock out successful")
	return model.Succeeded(model.ClockOut, after), nil
}

// click returns to the recorder page and presses the control. In dry-run the
// control is located but the press is only logged.
func (a *ClockAction) click(ctx context.Context, sel browser.Selector, what string) error {
	if err := a.b.Navigate(ctx, a.rc.URL); err != nil {
		return fmt.Errorf("navigate to %s: %w", a.rc.URL, err)
	}
	button, err := browser.WaitFor(ctx, a.b, sel)
	if err != nil {
		return err
	}
	if a.dryRun {
		a.log.Info().Msgf("[Dryrun] %s would have been clicked", what)
		return nil
	}
	if err := button.Click(); err != nil {
		return fmt.Errorf("click %s: %w", what, err)
	}
	return nil
}
