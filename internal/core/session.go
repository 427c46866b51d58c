package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"kobot/internal/ports/browser"
)

// Credentials authenticate against KOT.
type Credentials struct {
	ID       string
	Password string
}

// Session owns the browser handle for the run.
type Session struct {
	b           browser.Browser
	url         string
	geolocation bool
	log         zerolog.Logger
}

func NewSession(b browser.Browser, url string, geolocation bool, log zerolog.Logger) *Session {
	return &Session{b: b, url: url, geolocation: geolocation, log: log}
}

// Login opens the recorder page, submits the credentials and waits for the
// page to confirm the data was loaded.
func (s *Session) Login(ctx context.Context, creds Credentials) error {
	if err := s.b.Navigate(ctx, s.url); err != nil {
		return fmt.Errorf("navigate to %s: %w", s.url, err)
	}
	s.log.Info().Str("url", s.url).Msg("Navigate to KOT")
	s.log.Debug().Str("id", creds.ID).Msg("Login with id")

	idField, err := browser.WaitFor(ctx, s.b, selLoginID)
	if err != nil {
		return err
	}
	if err := idField.Input(creds.ID); err != nil {
		return fmt.Errorf("enter id: %w", err)
	}
	pwField, err := s.b.FindElement(selLoginPassword)
	if err != nil {
		return err
	}
	if err := pwField.Input(creds.Password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	button, err := s.b.FindElement(selLoginButton)
	if err != nil {
		return err
	}
	if err := button.Click(); err != nil {
		return fmt.Errorf("click login: %w", err)
	}

	if err := s.b.WaitUntil(ctx, browser.TextContains(s.b, selNotification, markerDataLoaded)); err != nil {
		return fmt.Errorf("wait for login confirmation: %w", err)
	}
	s.log.Info().Msg("Login successful")

	if s.geolocation {
		if err := s.b.WaitUntil(ctx, browser.TextContains(s.b, selLocationArea, markerGeolocated)); err != nil {
			s.log.Warn().Err(err).Msg("Get geolocation failed")
		}
	}
	if title, err := s.b.Title(); err == nil {
		s.log.Info().Str("title", title).Msg("Page loaded")
	}
	return nil
}

// Logout leaves through the header button on admin pages, or through the
// recorder menu (which asks for confirmation) everywhere else.
func (s *Session) Logout(ctx context.Context) error {
	current, err := s.b.CurrentURL()
	if err != nil {
		return fmt.Errorf("read current url: %w", err)
	}
	if strings.Contains(current, adminPathFragment) {
		button, err := s.b.FindElement(selAdminLogout)
		if err != nil {
			return err
		}
		if err := button.Click(); err != nil {
			return fmt.Errorf("click logout: %w", err)
		}
	} else {
		menu, err := browser.WaitFor(ctx, s.b, selMenuIcon)
		if err != nil {
			return err
		}
		if err := menu.Click(); err != nil {
			return fmt.Errorf("open menu: %w", err)
		}
		link, err := browser.WaitFor(ctx, s.b, selLogoutLink)
		if err != nil {
			return err
		}
		if err := s.b.ClickAcceptingAlert(ctx, link); err != nil {
			return fmt.Errorf("confirm logout: %w", err)
		}
	}
	s.log.Info().Msg("Logout successful")
	return nil
}
