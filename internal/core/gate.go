package core

import (
	"slices"
	"time"

	"github.com/rs/zerolog"

	"kobot/internal/core/model"
)

// Proceed decides, before any browser interaction, whether today's run goes ahead.
// Skip dates veto unconditionally; the weekend check yields to force.
func Proceed(log zerolog.Logger, rc model.RunContext, skipDates []string, force bool) (bool, string) {
	iso := rc.ISODate()
	if slices.Contains(skipDates, iso) {
		log.Info().Str("today", rc.Today).Str("date", iso).Msg("Today is holiday (skip date)")
		return false, "today=" + rc.Today + " is a skip date"
	}
	if wd := rc.Now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		if !force {
			log.Info().Str("today", rc.Today).Str("weekday", wd.String()).Msg("Today is weekend")
			return false, "today=" + rc.Today + " is weekend"
		}
		log.Info().Str("today", rc.Today).Str("weekday", wd.String()).Msg("[Force] should have exited: today is weekend")
	}
	return true, ""
}
