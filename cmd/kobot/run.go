package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	rodadapter "kobot/internal/adapters/rod"
	"kobot/internal/config"
	"kobot/internal/core"
	"kobot/internal/core/model"
	"kobot/internal/credential"
	"kobot/internal/ports/browser"
	"kobot/internal/ports/messaging"
	"kobot/internal/ports/notify"
	awsconf "kobot/pkg/aws"
	"kobot/pkg/logger"
	"kobot/pkg/telemetry"
)

func run(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.LoadConfig(v)
	if err != nil {
		cmd.PrintErrln(err)
		cmd.PrintErr(cmd.UsageString())
		return err
	}
	// Validated by LoadConfig.
	level, _ := cfg.Level()
	dir, _ := cfg.Direction()
	loc, _ := cfg.Location()
	logger.Setup(level, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.InitTracer(ctx, "kobot", cfg.TraceExporter, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	runID := uuid.NewString()
	ctx = logger.WithRun(ctx, runID)
	log := *zerolog.Ctx(ctx)

	needMail := cfg.Notify && cfg.NotifyTransport == config.TransportSMTP
	creds, err := credential.NewProvider(cfg.CredentialsFile, needMail, log,
		credential.WithPrompt(os.Stdin, cmd.OutOrStdout()),
	).Load()
	if err != nil {
		log.Error().Err(err).Msg("Load credentials failed")
		return err
	}

	notifier, err := buildNotifier(ctx, cfg, creds, loc, log)
	if err != nil {
		log.Error().Err(err).Msg("Build notifier failed")
		return err
	}
	publisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Build outcome publisher failed")
		return err
	}

	rc := model.NewRunContext(time.Now(), loc, cfg.KOTDateFormat, cfg.KOTURL)
	engine := core.NewEngine(
		core.Options{
			Direction:   dir,
			DryRun:      cfg.DryRun,
			Force:       cfg.Force,
			SkipDates:   cfg.Skip,
			Geolocation: cfg.Geolocation,
		},
		rc,
		core.Credentials{ID: creds.KOTID, Password: creds.KOTPassword},
		core.Deps{
			Launch:    launcher(cfg, log),
			Notifier:  notifier,
			Publisher: publisher,
			Logger:    log,
			RunID:     runID,
		},
	)

	out, err := engine.Run(ctx)
	if err != nil {
		log.Error().Err(err).Str("error_type", fmt.Sprintf("%T", err)).Msg("Run aborted")
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), core.DefaultReportTimeout)
		defer cancel()
		if nerr := notifier.Send(nctx, err.Error()); nerr != nil {
			log.Warn().Err(nerr).Msg("Send notification failed")
		}
		return err
	}
	log.Info().
		Str("status", string(out.Status)).
		Str("kind", string(out.Kind)).
		Bool("dryrun", out.DryRun).
		Msg("Run finished")
	return nil
}

func launcher(cfg config.Config, log zerolog.Logger) core.Launcher {
	return func(ctx context.Context) (browser.Browser, error) {
		b, err := rodadapter.Launch(ctx, rodadapter.Config{
			Bin:         cfg.BrowserBin,
			Headless:    cfg.Headless,
			Geolocation: cfg.Geolocation,
			Origin:      rodadapter.OriginOf(cfg.KOTURL),
			WaitTimeout: cfg.BrowserWaitTimeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// buildNotifier logs instead of sending unless notification is enabled.
func buildNotifier(ctx context.Context, cfg config.Config, creds credential.Credentials, loc *time.Location, log zerolog.Logger) (notify.Notifier, error) {
	from := creds.GmailID
	if from == "" {
		from = cfg.NotifyTo
	}
	env := notify.Envelope{From: from, To: cfg.NotifyTo, Subject: cfg.NotifySubject, Location: loc}
	if !cfg.Notify {
		return notify.NewLogNotifier(env, log), nil
	}

	var transport notify.Notifier
	switch cfg.NotifyTransport {
	case config.TransportSES:
		awsCfg, err := awsconf.NewAWSConfig(ctx, awsSettings(cfg))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		transport = notify.NewSESNotifier(ses.NewFromConfig(awsCfg), env)
	default:
		transport = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPAddress,
			Port:     cfg.SMTPPort,
			Username: creds.GmailID,
			Password: creds.GmailPassword,
		}, env)
	}
	return notify.NewBreaker(transport, cfg.NotifyBreakerFailures, log), nil
}

func buildPublisher(ctx context.Context, cfg config.Config) (messaging.OutcomePublisher, error) {
	if cfg.OutcomeQueueURL == "" {
		return messaging.NopPublisher{}, nil
	}
	awsCfg, err := awsconf.NewAWSConfig(ctx, awsSettings(cfg))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.OutcomeQueueURL), nil
}

func awsSettings(cfg config.Config) awsconf.Settings {
	return awsconf.Settings{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint, IsLocalDev: cfg.IsLocalDev}
}
