package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"kobot/internal/core/model"
	"kobot/internal/ports/browser"
)

// RecordReader extracts today's row from the timecard.
type RecordReader struct {
	b   browser.Browser
	log zerolog.Logger
}

func NewRecordReader(b browser.Browser, log zerolog.Logger) *RecordReader {
	return &RecordReader{b: b, log: log}
}

// Read opens the timecard through the menu and returns the first row whose
// date cell contains today. No match yields an empty record.
func (r *RecordReader) Read(ctx context.Context, today string) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord

	menu, err := browser.WaitFor(ctx, r.b, selMenuIcon)
	if err != nil {
		return rec, err
	}
	if err := menu.Click(); err != nil {
		return rec, fmt.Errorf("open menu: %w", err)
	}
	link, err := browser.WaitFor(ctx, r.b, selTimecardLink)
	if err != nil {
		return rec, err
	}
	if err := link.Click(); err != nil {
		return rec, fmt.Errorf("open timecard: %w", err)
	}

	table, err := browser.WaitFor(ctx, r.b, selTimeTable)
	if err != nil {
		return rec, err
	}
	rows, err := table.FindElements(selTableRows)
	if err != nil {
		return rec, fmt.Errorf("list timecard rows: %w", err)
	}
	for _, tr := range rows {
		dateCell, err := tr.FindElement(selDateCell)
		if errors.Is(err, browser.ErrNotFound) {
			continue
		}
		if err != nil {
			return rec, err
		}
		date, err := dateCell.Text()
		if err != nil {
			return rec, fmt.Errorf("read date cell: %w", err)
		}
		if !strings.Contains(date, today) {
			continue
		}

		r.log.Info().Msg("Reading today record")
		if rec, err = extractRow(tr, dateCell, date); err != nil {
			return model.AttendanceRecord{}, err
		}
		r.log.Debug().
			Str("date", rec.Date).
			Str("css_class", rec.CSSClass).
			Str("day_type", rec.DayType).
			Str("clock_in", rec.ClockIn).
			Str("clock_out", rec.ClockOut).
			Msg("Today record")
		return rec, nil
	}
	return model.AttendanceRecord{}, nil
}

func extractRow(tr, dateCell browser.Element, date string) (model.AttendanceRecord, error) {
	rec := model.AttendanceRecord{Date: date}
	var err error
	if rec.CSSClass, err = dateCell.Attribute("class"); err != nil {
		return rec, fmt.Errorf("read date class: %w", err)
	}
	if rec.DayType, err = cellText(tr, selDayTypeCell); err != nil {
		return rec, err
	}
	if rec.ClockIn, err = cellText(tr, selClockInCell); err != nil {
		return rec, err
	}
	if rec.ClockOut, err = cellText(tr, selClockOutCell); err != nil {
		return rec, err
	}
	return rec, nil
}

func cellText(tr browser.Element, sel browser.Selector) (string, error) {
	cell, err := tr.FindElement(sel)
	if err != nil {
		return "", err
	}
	text, err := cell.Text()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", sel, err)
	}
	return strings.TrimSpace(text), nil
}

// Validate checks a freshly read record for conditions that must stop the run.
// With force set, weekend and holiday markers are logged and ignored.
func Validate(log zerolog.Logger, today string, rec model.AttendanceRecord, force bool) *model.Failure {
	if !rec.Found() {
		return &model.Failure{
			Kind:    model.KindRecordNotFound,
			Message: fmt.Sprintf("Today=%s is not found on kot", today),
		}
	}

	if containsAny(rec.Date, weekendDateMarkers) {
		if !force {
			return &model.Failure{
				Kind:    model.KindRecordMarkedWeekend,
				Message: fmt.Sprintf("Today=%s is marked as weekend on kot: %s", today, rec.Date),
			}
		}
		log.Info().Str("today", today).Str("date", rec.Date).Msg("[Force] should have exited: today is marked as weekend on kot")
	}

	if markedHoliday(log, rec) {
		if !force {
			return &model.Failure{
				Kind:    model.KindRecordMarkedHoliday,
				Message: fmt.Sprintf("Today=%s is marked as public holiday on kot: %s", today, rec.Date),
			}
		}
		log.Info().Str("today", today).Str("date", rec.Date).Msg("[Force] should have exited: today is marked as public holiday on kot")
	}
	return nil
}

func markedHoliday(log zerolog.Logger, rec model.AttendanceRecord) bool {
	if strings.Contains(rec.DayType, markerHoliday) {
		return true
	}
	if containsAny(rec.CSSClass, weekendCSSMarkers) {
		log.Warn().Str("date", rec.Date).Str("css_class", rec.CSSClass).Msg("Today is highlighted (holiday) but not marked as 休日")
		return true
	}
	return false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
