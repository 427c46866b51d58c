package core

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"kobot/internal/core/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var notificationTmpl = template.Must(template.ParseFS(templateFS, "templates/notification.html"))

const (
	statusSuccess = "success"
	colorSuccess  = "green"
	colorFailure  = "red"
)

type notificationData struct {
	Date         string
	Status       string
	Color        string
	ShowClockIn  bool
	ShowClockOut bool
	ClockIn      string
	ClockOut     string
}

// ComposeSuccess renders the body sent after a verified clock action.
func ComposeSuccess(today string, dir model.ClockDirection, rec model.AttendanceRecord) (string, error) {
	return compose(notificationData{
		Date:         today,
		Status:       statusSuccess,
		Color:        colorSuccess,
		ShowClockIn:  true,
		ShowClockOut: dir == model.ClockOut,
		ClockIn:      rec.ClockIn,
		ClockOut:     rec.ClockOut,
	})
}

// ComposeFailure renders the body for a failed run. Clock failures carry the
// recorded times for their direction.
func ComposeFailure(today string, class model.FailureClass, message string, rec model.AttendanceRecord) (string, error) {
	return compose(notificationData{
		Date:         today,
		Status:       message,
		Color:        colorFailure,
		ShowClockIn:  class == model.ClassClockIn || class == model.ClassClockOut,
		ShowClockOut: class == model.ClassClockOut,
		ClockIn:      rec.ClockIn,
		ClockOut:     rec.ClockOut,
	})
}

func compose(data notificationData) (string, error) {
	var body bytes.Buffer
	if err := notificationTmpl.ExecuteTemplate(&body, "notification", data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return body.String(), nil
}
