// Local stand-in for the KOT recorder, for end-to-end runs against a real browser:
//
//	go run ./tools/kot-mock -p 8081
//	KOBOT_KOT_URL=http://localhost:8081/independent/recorder/personal/ KOT_ID=emp KOT_PASSWORD=pw go run ./cmd/kobot -c in
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"kobot/internal/kotsim"
	"kobot/pkg/logger"
	"kobot/pkg/telemetry"
)

func main() {
	port := pflag.StringP("port", "p", "8081", "Port to listen on")
	id := pflag.String("id", "emp", "Accepted login id")
	password := pflag.String("password", "pw", "Accepted login password")
	offset := pflag.Int("offset-hours", 9, "UTC offset of the simulated site")
	clockedIn := pflag.Bool("clocked-in", false, "Start with today's clock-in already recorded")
	pflag.Parse()

	lvl, _ := logger.ParseLevel("debug")
	logger.Setup(lvl, logger.FormatConsole)

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "kot-mock", os.Getenv("KOBOT_TRACE_EXPORTER"), "localhost:4317")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	loc := time.FixedZone("KOT", *offset*3600)
	site := kotsim.New("http://localhost:"+*port, *id, *password, loc, kotsim.WithGeolocation())
	seed(site, time.Now().In(loc), *clockedIn)

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("KOT mock is operational."))
	}).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(site.Handler())

	accessLog := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Info().Str("method", r.Method).Str("path", r.URL.Path).Msg("Request")
			next.ServeHTTP(w, r)
		})
	}

	srv := &http.Server{
		Addr:    ":" + *port,
		Handler: otelhttp.NewHandler(accessLog(r), "kot-mock"),
	}

	go func() {
		log.Info().Str("port", *port).Str("url", site.RecorderURL()).Msg("KOT mock starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down KOT mock...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
}

// seed fills the two weeks around today, with finished days in the past.
func seed(site *kotsim.Site, today time.Time, clockedIn bool) {
	for i := -7; i <= 7; i++ {
		d := kotsim.Day{Date: today.AddDate(0, 0, i), DayType: "平日"}
		if wd := d.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			d.DayType = "休日"
		} else if i < 0 {
			d.ClockIn, d.ClockOut = "09:00", "18:00"
		}
		if i == 0 && clockedIn {
			d.ClockIn = "09:00"
		}
		site.SetDay(d)
	}
}
