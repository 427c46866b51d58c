package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kobot",
		Short: "Clock in or out on KING OF TIME",
		Long: `kobot logs in to the KING OF TIME recorder, checks today's timecard row and
clicks the clock-in or clock-out button at most once per day. Weekends, skip
dates and days marked as holidays on the timecard are left alone.

Every flag can also be set as a KOBOT_ environment variable, e.g. KOBOT_CLOCK=in.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, v)
		},
	}

	f := cmd.Flags()
	f.StringP("clock", "c", "", "The clock action: in, out")
	f.StringP("loglevel", "l", "info", "Specify log level: debug, info, warn, error")
	f.StringSliceP("skip", "s", nil, "Dates to skip, formatted YYYY-MM-DD and comma separated, such as: 2020-05-01,2020-12-31")
	f.StringP("to", "t", "", "Email address to send notification to (defaults to the sender account)")
	f.BoolP("notify", "n", false, "Enable email notification")
	f.BoolP("dryrun", "d", false, "Run the process without actual clock in/out")
	f.BoolP("force", "f", false, "Run even when today looks like a weekend or holiday")
	f.BoolP("headless", "x", false, "Start browser in headless mode")
	f.BoolP("geolocation", "g", false, "Allow browser to use geolocation")

	for key, name := range map[string]string{
		"CLOCK":       "clock",
		"LOG_LEVEL":   "loglevel",
		"SKIP":        "skip",
		"NOTIFY_TO":   "to",
		"NOTIFY":      "notify",
		"DRYRUN":      "dryrun",
		"FORCE":       "force",
		"HEADLESS":    "headless",
		"GEOLOCATION": "geolocation",
	} {
		_ = v.BindPFlag(key, f.Lookup(name))
	}
	return cmd
}
