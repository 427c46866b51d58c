package core

import "kobot/internal/ports/browser"

// Element locations and text markers of the KOT recorder and timecard pages.
var (
	selLoginID       = browser.ByID("id")
	selLoginPassword = browser.ByID("password")
	selLoginButton   = browser.ByCSS("div.btn-control-message")
	selNotification  = browser.ByID("notification_content")
	selLocationArea  = browser.ByID("location_area")

	selMenuIcon     = browser.ByID("menu_icon")
	selTimecardLink = browser.ByLinkText("タイムカード")
	selLogoutLink   = browser.ByLinkText("ログアウト")
	selAdminLogout  = browser.ByCSS("div.htBlock-header_logoutButton")

	selTimeTable    = browser.ByCSS("div.htBlock-adjastableTableF_inner > table")
	selTableRows    = browser.ByCSS("tbody > tr")
	selDateCell     = browser.ByCSS("td.htBlock-scrollTable_day")
	selDayTypeCell  = browser.ByCSS("td.work_day_type")
	selClockInCell  = browser.ByCSS(`td.start_end_timerecord[data-ht-sort-index="START_TIMERECORD"]`)
	selClockOutCell = browser.ByCSS(`td.start_end_timerecord[data-ht-sort-index="END_TIMERECORD"]`)

	selClockInButton  = browser.ByCSS("div.record-clock-in")
	selClockOutButton = browser.ByCSS("div.record-clock-out")
)

const (
	markerDataLoaded  = "データを取得しました"
	markerGeolocated  = "位置情報取得済み"
	markerHoliday     = "休日"
	adminPathFragment = "admin"
)

var (
	weekendDateMarkers = []string{"土", "日"}
	weekendCSSMarkers  = []string{"sunday", "saturday"}
)
