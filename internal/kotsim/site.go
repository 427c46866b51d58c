// Package kotsim simulates the KOT recorder and timecard pages for one
// employee. It renders documents for the htmldoc browser and serves the same
// pages over HTTP for a real browser.
package kotsim

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kobot/internal/adapters/htmldoc"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Paths served by the site.
const (
	RecorderPath = "/independent/recorder/personal/"
	TimecardPath = "/admin/timecard"
	LogoutPath   = "/logout"
	LoginPath    = "/login"
	ClockInPath  = "/clock/in"
	ClockOutPath = "/clock/out"
)

const (
	dateKey        = "2006-01-02"
	timeFormat     = "15:04"
	loginErrorText = "IDまたはパスワードが正しくありません"
)

var kanjiWeekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// Day is one timecard row.
type Day struct {
	Date     time.Time
	DayType  string
	ClockIn  string
	ClockOut string
	// Highlight adds a CSS class to the date cell, e.g. "sunday".
	Highlight string
}

// Site holds the account and timecard state.
type Site struct {
	mu sync.Mutex

	base       string
	id         string
	password   string
	loc        *time.Location
	now        func() time.Time
	dateFormat string

	days       map[string]*Day
	loggedIn   bool
	loginError bool
	geolocated bool
	stuck      map[string]bool
	logins     int
	logouts    int
}

type Option func(*Site)

// WithClock sets the time used to stamp clock actions.
func WithClock(now func() time.Time) Option {
	return func(s *Site) { s.now = now }
}

// WithGeolocation makes the recorder page report a resolved location.
func WithGeolocation() Option {
	return func(s *Site) { s.geolocated = true }
}

// WithDateFormat sets the month/day layout of the date column.
func WithDateFormat(layout string) Option {
	return func(s *Site) { s.dateFormat = layout }
}

// New builds a site reachable under base (scheme://host) that accepts the
// given login. Timecard rows are added with SetDay.
func New(base, id, password string, loc *time.Location, opts ...Option) *Site {
	s := &Site{
		base:       strings.TrimRight(base, "/"),
		id:         id,
		password:   password,
		loc:        loc,
		now:        time.Now,
		dateFormat: "01/02",
		days:       make(map[string]*Day),
		stuck:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the absolute URL of path on this site.
func (s *Site) URL(path string) string { return s.base + path }

// RecorderURL is the page a run starts from.
func (s *Site) RecorderURL() string { return s.URL(RecorderPath) }

// SetDay adds or replaces the row for d.Date.
func (s *Site) SetDay(d Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Date = d.Date.In(s.loc)
	s.days[d.Date.Format(dateKey)] = &d
}

// Day returns the row for date.
func (s *Site) Day(date time.Time) (Day, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[date.In(s.loc).Format(dateKey)]
	if !ok {
		return Day{}, false
	}
	return *d, true
}

// IgnoreClicks makes the clock button for "in" or "out" accept clicks
// without recording a time.
func (s *Site) IgnoreClicks(direction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stuck[direction] = true
}

// LoggedIn reports whether a session is open.
func (s *Site) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Logins and Logouts count completed session transitions.
func (s *Site) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

func (s *Site) Logouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logouts
}

// Render implements htmldoc.Source.
func (s *Site) Render(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Path {
	case RecorderPath:
		if !s.loggedIn {
			return s.renderLocked("login")
		}
		return s.renderLocked("recorder")
	case TimecardPath:
		if !s.loggedIn {
			return s.renderLocked("login")
		}
		return s.renderLocked("timecard")
	case LogoutPath:
		s.logoutLocked()
		return s.renderLocked("login")
	default:
		return "", fmt.Errorf("404 %s", u.Path)
	}
}

// Bind registers the interactive controls on a document browser.
func (s *Site) Bind(b *htmldoc.Browser) {
	b.OnClick("div.btn-control-message", func(b *htmldoc.Browser, _ *goquery.Selection) error {
		s.Login(b.InputValue("id"), b.InputValue("password"))
		return b.Reload()
	})
	b.OnClick("div.record-clock-in", func(b *htmldoc.Browser, _ *goquery.Selection) error {
		s.Clock("in")
		return b.Reload()
	})
	b.OnClick("div.record-clock-out", func(b *htmldoc.Browser, _ *goquery.Selection) error {
		s.Clock("out")
		return b.Reload()
	})
	b.OnClick("div.htBlock-header_logoutButton", func(b *htmldoc.Browser, _ *goquery.Selection) error {
		return b.Navigate(context.Background(), s.URL(LogoutPath))
	})
}

// Login opens a session when id and password match.
func (s *Site) Login(id, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.id || password != s.password {
		s.loginError = true
		return false
	}
	s.loggedIn, s.loginError = true, false
	s.logins++
	return true
}

// Logout closes the session.
func (s *Site) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutLocked()
}

// Clock stamps the current time on today's row. It is a no-op without a
// session, without a row for today, or when the field is already set.
func (s *Site) Clock(direction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn || s.stuck[direction] {
		return
	}
	now := s.now().In(s.loc)
	d, ok := s.days[now.Format(dateKey)]
	if !ok {
		return
	}
	stamp := now.Format(timeFormat)
	switch direction {
	case "in":
		if d.ClockIn == "" {
			d.ClockIn = stamp
		}
	case "out":
		if d.ClockOut == "" {
			d.ClockOut = stamp
		}
	}
}

func (s *Site) logoutLocked() {
	if s.loggedIn {
		s.logouts++
	}
	s.loggedIn = false
}

type row struct {
	Class    string
	Date     string
	DayType  string
	ClockIn  string
	ClockOut string
}

type page struct {
	Error        string
	Geolocated   bool
	Rows         []row
	LoginPath    string
	TimecardPath string
	LogoutPath   string
	ClockInPath  string
	ClockOutPath string
}

func (s *Site) renderLocked(name string) (string, error) {
	p := page{
		Geolocated:   s.geolocated,
		LoginPath:    LoginPath,
		TimecardPath: TimecardPath,
		LogoutPath:   LogoutPath,
		ClockInPath:  ClockInPath,
		ClockOutPath: ClockOutPath,
	}
	if name == "login" && s.loginError {
		p.Error = loginErrorText
	}
	if name == "timecard" {
		p.Rows = s.rowsLocked()
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, p); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *Site) rowsLocked() []row {
	keys := make([]string, 0, len(s.days))
	for k := range s.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]row, 0, len(keys))
	for _, k := range keys {
		d := s.days[k]
		class := "htBlock-scrollTable_day"
		switch d.Date.Weekday() {
		case time.Sunday:
			class += " sunday"
		case time.Saturday:
			class += " saturday"
		}
		if d.Highlight != "" {
			class += " " + d.Highlight
		}
		rows = append(rows, row{
			Class:    class,
			Date:     fmt.Sprintf("%s（%s）", d.Date.Format(s.dateFormat), kanjiWeekdays[d.Date.Weekday()]),
			DayType:  d.DayType,
			ClockIn:  d.ClockIn,
			ClockOut: d.ClockOut,
		})
	}
	return rows
}
