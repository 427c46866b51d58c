package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"kobot/internal/core/model"
	"kobot/internal/kotsim"
	"kobot/internal/ports/browser"
)

func TestRun_ClockIn(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})

	out, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.False(t, out.DryRun)
	assert.Equal(t, "09:00", out.Record.ClockIn)
	assert.Equal(t, "09:00", h.day().ClockIn)
	assert.Equal(t, 1, h.browser.Clicks("div.record-clock-in"))

	bodies := h.notifier.Bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "<b>Date:</b> 10/15")
	assert.Contains(t, bodies[0], ">success</span>")
	assert.Contains(t, bodies[0], "<b>Clock_in:</b> 09:00")
	assert.NotContains(t, bodies[0], "Clock_out")

	assert.False(t, h.site.LoggedIn())
	assert.Equal(t, 1, h.site.Logouts())
	assert.Equal(t, 1, h.browser.Quits())
	assert.Equal(t, kotID, h.browser.InputValue("id"))

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, "SUCCESS", h.publisher.events[0].Status)
	assert.Equal(t, "2026-10-15", h.publisher.events[0].Date)
	assert.Equal(t, "run-test", h.publisher.events[0].RunID)

	assert.Contains(t, h.logs.String(), "Login successful")
	assert.Contains(t, h.logs.String(), "Clock in successful")
	assert.Contains(t, h.logs.String(), "Logout successful")
}

func TestRun_ClockOut(t *testing.T) {
	h := newHarness(t, at(thursday, 18, 30))
	h.today(kotsim.Day{DayType: "平日", ClockIn: "09:00"})

	out, err := h.run(Options{Direction: model.ClockOut})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.Equal(t, "18:30", h.day().ClockOut)
	assert.Equal(t, "09:00", h.day().ClockIn)

	bodies := h.notifier.Bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "<b>Clock_in:</b> 09:00")
	assert.Contains(t, bodies[0], "<b>Clock_out:</b> 18:30")
}

func TestRun_ClockInAlreadyDone(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 10))
	h.today(kotsim.Day{DayType: "平日", ClockIn: "08:55"})

	out, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.StatusAlreadyDone, out.Status)
	assert.Equal(t, "08:55", h.day().ClockIn)
	assert.Zero(t, h.browser.Clicks("div.record-clock-in"))
	assert.Empty(t, h.notifier.Bodies())
	assert.Equal(t, 1, h.site.Logouts())
	assert.Contains(t, h.logs.String(), "Clock in done already")
}

func TestRun_ClockOutAlreadyDone(t *testing.T) {
	h := newHarness(t, at(thursday, 19, 0))
	h.today(kotsim.Day{DayType: "平日", ClockIn: "09:00", ClockOut: "18:00"})

	out, err := h.run(Options{Direction: model.ClockOut})
	require.NoError(t, err)

	assert.Equal(t, model.StatusAlreadyDone, out.Status)
	assert.Equal(t, "18:00", h.day().ClockOut)
	assert.Zero(t, h.browser.Clicks("div.record-clock-out"))
	assert.Empty(t, h.notifier.Bodies())
}

func TestRun_ClockInTwiceIsIdempotent(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})

	first, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)
	second, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, first.Status)
	assert.Equal(t, model.StatusAlreadyDone, second.Status)
	assert.Equal(t, "09:00", h.day().ClockIn)
	assert.Len(t, h.notifier.Bodies(), 1)
	assert.Equal(t, 2, h.launches)
}

func TestRun_ClockOutWithoutClockIn(t *testing.T) {
	h := newHarness(t, at(thursday, 18, 0))
	h.today(kotsim.Day{DayType: "平日"})

	out, err := h.run(Options{Direction: model.ClockOut})
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, out.Status)
	assert.Equal(t, model.KindClockOutFailed, out.Kind)
	assert.Equal(t, "!!!No clock in record for today=10/15（木）!!!", out.Message)
	assert.Zero(t, h.browser.Clicks("div.record-clock-out"))
	assert.Empty(t, h.day().ClockOut)

	bodies := h.notifier.Bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "color:red")
	assert.Contains(t, bodies[0], "No clock in record for today=10/15")
	assert.Contains(t, bodies[0], "Clock_out")

	assert.Equal(t, 1, h.site.Logouts())
	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, "FAILED", h.publisher.events[0].Status)
	assert.Equal(t, "CLOCK_OUT_FAILED", h.publisher.events[0].Kind)
}

func TestRun_DryRunClockIn(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})

	out, err := h.run(Options{Direction: model.ClockIn, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.True(t, out.DryRun)
	assert.Empty(t, h.day().ClockIn)
	assert.Zero(t, h.browser.Clicks("div.record-clock-in"))
	assert.Empty(t, h.notifier.Bodies())
	assert.Contains(t, h.logs.String(), "[Dryrun] clock in button (出勤) would have been clicked")

	// The run ends on the recorder page, so logout goes through the menu dialog.
	assert.Equal(t, 1, h.browser.AlertsAccepted())
	assert.Equal(t, 1, h.site.Logouts())
	require.Len(t, h.publisher.events, 1)
	assert.True(t, h.publisher.events[0].DryRun)
}

func TestRun_DryRunClockOutWithoutClockIn(t *testing.T) {
	h := newHarness(t, at(thursday, 18, 0))
	h.today(kotsim.Day{DayType: "平日"})

	out, err := h.run(Options{Direction: model.ClockOut, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.True(t, out.DryRun)
	assert.Empty(t, h.day().ClockOut)
	assert.Contains(t, h.logs.String(), "[Dryrun] clock out button (退勤) would have been clicked")
}

func TestRun_WeekendSkipsWithoutBrowser(t *testing.T) {
	h := newHarness(t, at(saturday, 9, 0))

	out, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSkipped, out.Status)
	assert.Zero(t, h.launches)
	assert.Empty(t, h.notifier.Bodies())
	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, "SKIPPED", h.publisher.events[0].Status)
	assert.Contains(t, h.logs.String(), "Today is weekend")
}

func TestRun_SkipDateVetoesForce(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})

	out, err := h.run(Options{Direction: model.ClockIn, Force: true, SkipDates: []string{"2026-10-15"}})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSkipped, out.Status)
	assert.Zero(t, h.launches)
	assert.Empty(t, h.day().ClockIn)
}

func TestRun_ForceOnWeekend(t *testing.T) {
	h := newHarness(t, at(saturday, 10, 0))
	h.today(kotsim.Day{DayType: "平日"})

	out, err := h.run(Options{Direction: model.ClockIn, Force: true})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.Equal(t, "10:00", h.day().ClockIn)
	assert.Contains(t, h.logs.String(), "[Force] should have exited: today is weekend")
	assert.Contains(t, h.logs.String(), "[Force] should have exited: today is marked as weekend on kot")
}

func TestRun_RecordNotFound(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.site.SetDay(kotsim.Day{Date: at(thursday-1, 0, 0), DayType: "平日"})

	out, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, out.Status)
	assert.Equal(t, model.KindRecordNotFound, out.Kind)
	assert.Equal(t, "Today=10/15 is not found on kot", out.Message)
	assert.Zero(t, h.browser.Clicks("div.record-clock-in"))

	bodies := h.notifier.Bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "Today=10/15 is not found on kot")
	assert.NotContains(t, bodies[0], "Clock_in")
	assert.Equal(t, 1, h.site.Logouts())
}

func TestRun_RecordMarkedHoliday(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "休日"})

	out, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.KindRecordMarkedHoliday, out.Kind)
	assert.Equal(t, "Today=10/15 is marked as public holiday on kot: 10/15（木）", out.Message)
	assert.Empty(t, h.day().ClockIn)
	assert.Len(t, h.notifier.Bodies(), 1)
}

func TestRun_RecordHighlightedAsHoliday(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日", Highlight: "sunday"})

	out, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.KindRecordMarkedHoliday, out.Kind)
	assert.Contains(t, h.logs.String(), "Today is highlighted (holiday) but not marked as 休日")
}

func TestRun_ForceOverridesHoliday(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "休日"})

	out, err := h.run(Options{Direction: model.ClockIn, Force: true})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.Equal(t, "09:00", h.day().ClockIn)
}

func TestRun_ClockInNotRecorded(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})
	h.site.IgnoreClicks("in")

	out, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.StatusFailed, out.Status)
	assert.Equal(t, model.KindClockInFailed, out.Kind)
	assert.Equal(t, "Clock in operation seems to have failed", out.Message)
	assert.Equal(t, 1, h.browser.Clicks("div.record-clock-in"))

	bodies := h.notifier.Bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "Clock_in")
	assert.NotContains(t, bodies[0], "Clock_out")
	assert.Equal(t, 1, h.site.Logouts())
}

func TestRun_ClockOutNotRecorded(t *testing.T) {
	h := newHarness(t, at(thursday, 18, 0))
	h.today(kotsim.Day{DayType: "平日", ClockIn: "09:00"})
	h.site.IgnoreClicks("out")

	out, err := h.run(Options{Direction: model.ClockOut})
	require.NoError(t, err)

	assert.Equal(t, model.KindClockOutFailed, out.Kind)
	assert.Equal(t, "Clock out operation seems to have failed", out.Message)
}

func TestRun_LoginFailureIsUnclassified(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})
	h.timeout = 30 * time.Millisecond

	out, err := h.engineWithCreds(Options{Direction: model.ClockIn}, Credentials{ID: kotID, Password: "wrong"}).
		Run(context.Background())

	// The recovery logout cannot find the menu on the login page either.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logout after failure")
	assert.Equal(t, model.StatusFailed, out.Status)
	assert.Equal(t, model.KindUnclassified, out.Kind)
	assert.Contains(t, out.Message, "wait for login confirmation")

	bodies := h.notifier.Bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "wait for login confirmation")
	assert.Equal(t, 1, h.browser.Quits())
	assert.Contains(t, h.logs.String(), "Unexpected failure during run")
	assert.Empty(t, h.day().ClockIn)
}

func TestRun_LaunchFailure(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.launchErr = errLaunch

	out, err := h.run(Options{Direction: model.ClockIn})
	require.ErrorIs(t, err, errLaunch)
	assert.Contains(t, err.Error(), "launch browser")
	assert.Nil(t, h.browser)
	assert.Empty(t, h.notifier.Bodies(), "the caller reports launch errors")

	assert.Equal(t, model.StatusFailed, out.Status)
	assert.Equal(t, model.KindUnclassified, out.Kind)
	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, "FAILED", h.publisher.events[0].Status)
	assert.Equal(t, "UNCLASSIFIED", h.publisher.events[0].Kind)
	assert.Contains(t, h.publisher.events[0].Message, "chrome not found")
}

func TestRun_CancelledRunStillReportsAndLogsOut(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})
	h.timeout = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := h.engineWithCreds(Options{Direction: model.ClockIn}, Credentials{ID: kotID, Password: "wrong"}).
		Run(ctx)

	assert.Equal(t, model.StatusFailed, out.Status)
	assert.Equal(t, model.KindUnclassified, out.Kind)

	require.Len(t, h.notifier.Bodies(), 1)
	assert.Equal(t, []error{nil}, h.notifier.ContextErrors(), "notification gets a live context")
	assert.Equal(t, []error{nil}, h.publisher.ctxErrs, "outcome event gets a live context")

	// The login page has no menu, so the recovery logout runs to its own wait timeout.
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrTimeout)
	assert.NotErrorIs(t, err, context.Canceled)
}

func TestRun_LogsCarryTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})

	_, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)
	assert.Contains(t, h.logs.String(), `"trace_id":"`)
	assert.Contains(t, h.logs.String(), `"span_id":"`)
}

func TestRun_NotificationFailureKeepsOutcome(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})
	h.notifier.err = errors.New("smtp: 535 authentication failed")

	out, err := h.run(Options{Direction: model.ClockIn})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.Contains(t, h.logs.String(), "Send notification failed")
	assert.Equal(t, 1, h.site.Logouts())
}

func TestRun_GeolocationWaitIsBestEffort(t *testing.T) {
	h := newHarness(t, at(thursday, 9, 0))
	h.today(kotsim.Day{DayType: "平日"})
	h.timeout = 30 * time.Millisecond

	out, err := h.run(Options{Direction: model.ClockIn, Geolocation: true})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, out.Status)
	assert.Contains(t, h.logs.String(), "Get geolocation failed")
}
