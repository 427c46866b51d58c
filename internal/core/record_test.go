package core

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kobot/internal/core/model"
)

func TestValidate(t *testing.T) {
	weekday := model.AttendanceRecord{
		Date:     "10/15（木）",
		CSSClass: "htBlock-scrollTable_day",
		DayType:  "平日",
	}
	withClass := weekday
	withClass.CSSClass += " saturday"
	holiday := weekday
	holiday.DayType = "休日"
	saturdayRow := model.AttendanceRecord{Date: "10/17（土）", CSSClass: "htBlock-scrollTable_day saturday", DayType: "平日"}

	tests := []struct {
		name  string
		rec   model.AttendanceRecord
		force bool
		kind  model.FailureKind
		msg   string
	}{
		{name: "ordinary day", rec: weekday},
		{name: "missing", rec: model.AttendanceRecord{}, kind: model.KindRecordNotFound, msg: "Today=10/15 is not found on kot"},
		{name: "missing forced", rec: model.AttendanceRecord{}, force: true, kind: model.KindRecordNotFound, msg: "Today=10/15 is not found on kot"},
		{name: "weekend date", rec: saturdayRow, kind: model.KindRecordMarkedWeekend, msg: "Today=10/15 is marked as weekend on kot: 10/17（土）"},
		{name: "holiday type", rec: holiday, kind: model.KindRecordMarkedHoliday, msg: "Today=10/15 is marked as public holiday on kot: 10/15（木）"},
		{name: "holiday class", rec: withClass, kind: model.KindRecordMarkedHoliday, msg: "Today=10/15 is marked as public holiday on kot: 10/15（木）"},
		{name: "weekend forced", rec: saturdayRow, force: true},
		{name: "holiday forced", rec: holiday, force: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Validate(zerolog.Nop(), "10/15", tt.rec, tt.force)
			if tt.kind == "" {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.msg, f.Message)
		})
	}
}

func TestValidate_HighlightWithoutHolidayTypeWarns(t *testing.T) {
	var buf bytes.Buffer
	rec := model.AttendanceRecord{Date: "10/15（木）", CSSClass: "htBlock-scrollTable_day sunday"}

	f := Validate(zerolog.New(&buf), "10/15", rec, false)
	require.NotNil(t, f)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "Today is highlighted (holiday) but not marked as 休日")
}
