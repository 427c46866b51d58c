package core

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"kobot/internal/core/model"
)

func TestProceed(t *testing.T) {
	tests := []struct {
		name   string
		day    int
		skip   []string
		force  bool
		want   bool
		reason string
	}{
		{name: "weekday", day: thursday, want: true},
		{name: "saturday", day: saturday, reason: "today=10/17 is weekend"},
		{name: "sunday", day: saturday + 1, reason: "today=10/18 is weekend"},
		{name: "saturday forced", day: saturday, force: true, want: true},
		{name: "skip date", day: thursday, skip: []string{"2026-10-01", "2026-10-15"}, reason: "today=10/15 is a skip date"},
		{name: "skip date beats force", day: thursday, skip: []string{"2026-10-15"}, force: true, reason: "today=10/15 is a skip date"},
		{name: "other skip date", day: thursday, skip: []string{"2026-10-16"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := model.NewRunContext(at(tt.day, 9, 0), jst, "01/02", "https://kot.test/")
			ok, reason := Proceed(zerolog.Nop(), rc, tt.skip, tt.force)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestProceed_UsesConfiguredZone(t *testing.T) {
	// Friday 23:30 UTC is already Saturday in Tokyo.
	rc := model.NewRunContext(time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC), jst, "01/02", "https://kot.test/")

	ok, _ := Proceed(zerolog.Nop(), rc, nil, false)
	assert.False(t, ok)
}

func TestProceed_ForceIsLogged(t *testing.T) {
	var buf bytes.Buffer
	rc := model.NewRunContext(at(saturday, 9, 0), jst, "01/02", "https://kot.test/")

	ok, _ := Proceed(zerolog.New(&buf), rc, nil, true)
	assert.True(t, ok)
	assert.Contains(t, buf.String(), "[Force] should have exited: today is weekend")
}
