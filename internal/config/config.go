package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"kobot/internal/core/model"
	"kobot/pkg/logger"
)

var (
	ErrInvalidClock          = errors.New("the clock option must be either: in, out")
	ErrInvalidLogLevel       = errors.New("the log level must be one of: debug, info, warn, error")
	ErrInvalidSkipDate       = errors.New("skip dates must be formatted as YYYY-MM-DD")
	ErrInvalidTimezoneOffset = errors.New("the timezone offset must look like +09:00")
)

// EnvPrefix namespaces the environment variables read by LoadConfig.
const EnvPrefix = "KOBOT"

// Notification transports.
const (
	TransportSMTP = "smtp"
	TransportSES  = "ses"
)

// Config is resolved once per process from defaults, KOBOT_* environment
// variables and bound command-line flags.
type Config struct {
	Clock       string   `mapstructure:"CLOCK"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	LogFormat   string   `mapstructure:"LOG_FORMAT"`
	Skip        []string `mapstructure:"SKIP"`
	DryRun      bool     `mapstructure:"DRYRUN"`
	Force       bool     `mapstructure:"FORCE"`
	Headless    bool     `mapstructure:"HEADLESS"`
	Geolocation bool     `mapstructure:"GEOLOCATION"`

	KOTURL            string `mapstructure:"KOT_URL"`
	KOTTimezoneOffset string `mapstructure:"KOT_TIMEZONE_OFFSET"`
	KOTDateFormat     string `mapstructure:"KOT_DATE_FORMAT"`

	BrowserWaitTimeout time.Duration `mapstructure:"BROWSER_WAIT_TIMEOUT"`
	BrowserBin         string        `mapstructure:"BROWSER_BIN"`

	Notify                bool   `mapstructure:"NOTIFY"`
	NotifyTo              string `mapstructure:"NOTIFY_TO"`
	NotifyTransport       string `mapstructure:"NOTIFY_TRANSPORT"`
	NotifySubject         string `mapstructure:"NOTIFY_SUBJECT"`
	NotifyBreakerFailures uint32 `mapstructure:"NOTIFY_BREAKER_FAILURES"`
	SMTPAddress           string `mapstructure:"SMTP_ADDRESS"`
	SMTPPort              int    `mapstructure:"SMTP_PORT"`

	AWSRegion       string `mapstructure:"AWS_REGION"`
	AWSEndpoint     string `mapstructure:"AWS_ENDPOINT"`
	IsLocalDev      bool   `mapstructure:"IS_LOCAL_DEV"`
	OutcomeQueueURL string `mapstructure:"OUTCOME_QUEUE_URL"`

	TraceExporter string `mapstructure:"TRACE_EXPORTER"`
	OTLPEndpoint  string `mapstructure:"OTLP_ENDPOINT"`

	CredentialsFile string `mapstructure:"CREDENTIALS_FILE"`
}

// SetDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("CLOCK", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", logger.FormatConsole)
	v.SetDefault("SKIP", []string{})
	v.SetDefault("DRYRUN", false)
	v.SetDefault("FORCE", false)
	v.SetDefault("HEADLESS", false)
	v.SetDefault("GEOLOCATION", false)

	v.SetDefault("KOT_URL", "https://s2.kingtime.jp/independent/recorder/personal/")
	v.SetDefault("KOT_TIMEZONE_OFFSET", "+09:00")
	v.SetDefault("KOT_DATE_FORMAT", "01/02")

	v.SetDefault("BROWSER_WAIT_TIMEOUT", 10*time.Second)
	v.SetDefault("BROWSER_BIN", "")

	v.SetDefault("NOTIFY", false)
	v.SetDefault("NOTIFY_TO", "")
	v.SetDefault("NOTIFY_TRANSPORT", TransportSMTP)
	v.SetDefault("NOTIFY_SUBJECT", "[Kobot] Notification")
	v.SetDefault("NOTIFY_BREAKER_FAILURES", 2)
	v.SetDefault("SMTP_ADDRESS", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("AWS_REGION", "ap-northeast-1")
	v.SetDefault("AWS_ENDPOINT", "")
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("OUTCOME_QUEUE_URL", "")

	v.SetDefault("TRACE_EXPORTER", "none")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")

	v.SetDefault("CREDENTIALS_FILE", defaultCredentialsFile())
}

// LoadConfig reads configuration from defaults, environment and any flags
// already bound to v, then validates it.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode is LoadConfig without validation, for processes that never clock.
func Decode(v *viper.Viper) (cfg Config, err error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.Skip = splitSkip(cfg.Skip)
	cfg.CredentialsFile = expandHome(cfg.CredentialsFile)
	return cfg, nil
}

// Validate rejects values that would make the run meaningless.
func (c Config) Validate() error {
	if _, err := c.Direction(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for _, d := range c.Skip {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidSkipDate, d)
		}
	}
	switch c.NotifyTransport {
	case TransportSMTP, TransportSES:
	default:
		return fmt.Errorf("unknown notify transport %q", c.NotifyTransport)
	}
	switch c.LogFormat {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

func (c Config) Direction() (model.ClockDirection, error) {
	if strings.TrimSpace(c.Clock) == "" {
		return "", fmt.Errorf("the clock option is required: %w", ErrInvalidClock)
	}
	dir, err := model.ParseClockDirection(c.Clock)
	if err != nil {
		return "", fmt.Errorf("%w (got %q)", ErrInvalidClock, c.Clock)
	}
	return dir, nil
}

func (c Config) Level() (zerolog.Level, error) {
	lvl, ok := logger.ParseLevel(c.LogLevel)
	if !ok {
		return zerolog.NoLevel, fmt.Errorf("%w (got %q)", ErrInvalidLogLevel, c.LogLevel)
	}
	return lvl, nil
}

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// Location turns the KOT timezone offset into a fixed zone.
func (c Config) Location() (*time.Location, error) {
	m := offsetPattern.FindStringSubmatch(c.KOTTimezoneOffset)
	if m == nil {
		return nil, fmt.Errorf("%w (got %q)", ErrInvalidTimezoneOffset, c.KOTTimezoneOffset)
	}
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("%w (got %q)", ErrInvalidTimezoneOffset, c.KOTTimezoneOffset)
	}
	secs := hours*3600 + minutes*60
	if m[1] == "-" {
		secs = -secs
	}
	return time.FixedZone(c.KOTTimezoneOffset, secs), nil
}

// splitSkip accepts both repeated flags and one comma separated value.
func splitSkip(in []string) []string {
	var out []string
	for _, s := range in {
		for _, d := range strings.Split(s, ",") {
			if d = strings.TrimSpace(d); d != "" {
				out = append(out, d)
			}
		}
	}
	return out
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kobot"
	}
	return filepath.Join(home, ".kobot")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
