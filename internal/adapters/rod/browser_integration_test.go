//go:build integration

package rod

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kobot/internal/core"
	"kobot/internal/core/model"
	"kobot/internal/kotsim"
	"kobot/internal/ports/browser"
	"kobot/internal/ports/messaging"
)

type discard struct{}

func (discard) Send(context.Context, string) error { return nil }

func TestEngineAgainstChrome(t *testing.T) {
	jst := time.FixedZone("+09:00", 9*3600)
	now := time.Now().In(jst)

	srv := httptest.NewUnstartedServer(nil)
	site := kotsim.New("http://"+srv.Listener.Addr().String(), "emp", "pw", jst,
		kotsim.WithClock(func() time.Time { return now }))
	site.SetDay(kotsim.Day{Date: now, DayType: "平日"})
	srv.Config.Handler = site.Handler()
	srv.Start()
	defer srv.Close()

	log := zerolog.New(zerolog.NewTestWriter(t))
	rc := model.NewRunContext(now, jst, "01/02", site.RecorderURL())
	engine := core.NewEngine(
		core.Options{Direction: model.ClockIn, Force: true},
		rc,
		core.Credentials{ID: "emp", Password: "pw"},
		core.Deps{
			Launch: func(ctx context.Context) (browser.Browser, error) {
				return Launch(ctx, Config{Headless: true, WaitTimeout: 10 * time.Second}, log)
			},
			Notifier:  discard{},
			Publisher: messaging.NopPublisher{},
			Logger:    log,
			RunID:     "integration",
		},
	)

	out, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, out.Status)

	day, ok := site.Day(now)
	require.True(t, ok)
	assert.NotEmpty(t, day.ClockIn)
}
