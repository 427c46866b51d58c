package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"kobot/internal/config"
	"kobot/internal/ports/notify"
	"kobot/internal/worker"
	"kobot/internal/worker/outcome"
	awsconf "kobot/pkg/aws"
	"kobot/pkg/logger"
	"kobot/pkg/telemetry"
)

func main() {
	cfg, err := config.Decode(viper.New())
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	level, err := cfg.Level()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	logger.Setup(level, cfg.LogFormat)

	if cfg.OutcomeQueueURL == "" {
		log.Fatal().Msg("KOBOT_OUTCOME_QUEUE_URL is required")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.InitTracer(ctx, "kobot-outcome-worker", cfg.TraceExporter, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not init tracer")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	awsCfg, err := awsconf.NewAWSConfig(ctx, awsconf.Settings{
		Region:     cfg.AWSRegion,
		Endpoint:   cfg.AWSEndpoint,
		IsLocalDev: cfg.IsLocalDev,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load SDK config")
	}

	// Relay is SES only, the worker holds no SMTP credentials.
	var relay notify.Notifier
	if cfg.Notify && cfg.NotifyTo != "" {
		env := notify.Envelope{From: cfg.NotifyTo, To: cfg.NotifyTo, Subject: cfg.NotifySubject, Location: loc}
		relay = notify.NewBreaker(notify.NewSESNotifier(ses.NewFromConfig(awsCfg), env), cfg.NotifyBreakerFailures, log.Logger)
	}

	processor := outcome.NewProcessor(relay)
	app := worker.NewWorker(sqs.NewFromConfig(awsCfg), cfg.OutcomeQueueURL, processor)

	app.Start(ctx)

	log.Info().Interface("outcomes", processor.Counts()).Msg("Worker exited gracefully")
}
