// Package rod drives a real Chrome instance over the DevTools protocol.
package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"kobot/internal/ports/browser"
)

// Config holds launch settings.
type Config struct {
	Bin         string
	Headless    bool
	Geolocation bool
	// Origin receives the geolocation permission when Geolocation is set.
	Origin      string
	WaitTimeout time.Duration
}

// Browser is a browser.Browser backed by one Chrome page.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	timeout  time.Duration
	log      zerolog.Logger
}

// Launch starts Chrome and opens a blank page.
func Launch(ctx context.Context, cfg Config, log zerolog.Logger) (*Browser, error) {
	l := launcher.New().Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	rb := rod.New().ControlURL(controlURL).Context(ctx)
	if err := rb.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	if cfg.Geolocation && cfg.Origin != "" {
		err := proto.BrowserGrantPermissions{
			Permissions: []proto.BrowserPermissionType{proto.BrowserPermissionTypeGeolocation},
			Origin:      cfg.Origin,
		}.Call(rb)
		if err != nil {
			log.Warn().Err(err).Msg("Grant geolocation permission failed")
		}
	}

	page, err := rb.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = rb.Close()
		l.Kill()
		return nil, fmt.Errorf("create page: %w", err)
	}

	timeout := cfg.WaitTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Browser{launcher: l, browser: rb, page: page, timeout: timeout, log: log}, nil
}

// OriginOf returns scheme://host of rawURL, or "" when it cannot be parsed.
func OriginOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (b *Browser) Navigate(ctx context.Context, u string) error {
	p := b.page.Context(ctx).Timeout(b.timeout)
	defer p.CancelTimeout()
	if err := p.Navigate(u); err != nil {
		return translate(err)
	}
	return translate(p.WaitLoad())
}

func (b *Browser) FindElement(sel browser.Selector) (browser.Element, error) {
	return b.wrapFound(findIn(b.page, sel))
}

func (b *Browser) FindElements(sel browser.Selector) ([]browser.Element, error) {
	els, err := findAllIn(b.page, sel)
	if err != nil {
		return nil, err
	}
	return b.wrapAll(els), nil
}

func (b *Browser) WaitUntil(ctx context.Context, cond browser.Condition) error {
	return browser.Poll(ctx, b.timeout, browser.DefaultPollInterval, cond)
}

func (b *Browser) CurrentURL() (string, error) {
	info, err := b.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (b *Browser) Title() (string, error) {
	info, err := b.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// ClickAcceptingAlert arms a dialog handler, clicks, and accepts the dialog.
// The click blocks until the dialog is handled, so it runs on its own goroutine.
func (b *Browser) ClickAcceptingAlert(ctx context.Context, el browser.Element) error {
	re, ok := el.(*element)
	if !ok {
		return fmt.Errorf("foreign element %T", el)
	}
	p := b.page.Context(ctx).Timeout(b.timeout)
	defer p.CancelTimeout()

	wait, handle := p.HandleDialog()
	clicked := make(chan error, 1)
	go func() { clicked <- re.Click() }()

	if dialog := wait(); dialog != nil {
		b.log.Debug().Str("message", dialog.Message).Msg("Accepting dialog")
	}
	if err := handle(&proto.PageHandleJavaScriptDialog{Accept: true}); err != nil {
		return fmt.Errorf("accept dialog: %w", translate(err))
	}
	return <-clicked
}

func (b *Browser) Quit() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

func (b *Browser) wrapFound(el *rod.Element, err error) (browser.Element, error) {
	if err != nil {
		return nil, err
	}
	return &element{el: el, b: b}, nil
}

func (b *Browser) wrapAll(els rod.Elements) []browser.Element {
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el, b: b})
	}
	return out
}

// searcher is what rod.Page and rod.Element have in common for lookups.
type searcher interface {
	Elements(selector string) (rod.Elements, error)
}

func cssFor(sel browser.Selector) string {
	if sel.Kind == browser.KindID {
		return fmt.Sprintf("[id=%q]", sel.Value)
	}
	return sel.Value
}

func findIn(s searcher, sel browser.Selector) (*rod.Element, error) {
	els, err := findAllIn(s, sel)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, browser.NotFound(sel)
	}
	return els[0], nil
}

func findAllIn(s searcher, sel browser.Selector) (rod.Elements, error) {
	if sel.Kind != browser.KindLinkText {
		els, err := s.Elements(cssFor(sel))
		return els, translate(err)
	}
	links, err := s.Elements("a")
	if err != nil {
		return nil, translate(err)
	}
	want := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(sel.Value) + `\s*$`)
	var out rod.Elements
	for _, a := range links {
		text, err := a.Text()
		if err != nil {
			continue
		}
		if want.MatchString(text) {
			out = append(out, a)
		}
	}
	return out, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", browser.ErrNotFound, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", browser.ErrTimeout, err)
	}
	return err
}

type element struct {
	el *rod.Element
	b  *Browser
}

func (e *element) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", translate(err)
	}
	return strings.TrimSpace(text), nil
}

func (e *element) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", translate(err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *element) Click() error {
	el := e.el.Timeout(e.b.timeout)
	defer el.CancelTimeout()
	return translate(el.Click(proto.InputMouseButtonLeft, 1))
}

func (e *element) Input(text string) error {
	el := e.el.Timeout(e.b.timeout)
	defer el.CancelTimeout()
	return translate(el.Input(text))
}

func (e *element) FindElement(sel browser.Selector) (browser.Element, error) {
	return e.b.wrapFound(findIn(e.el, sel))
}

func (e *element) FindElements(sel browser.Selector) ([]browser.Element, error) {
	els, err := findAllIn(e.el, sel)
	if err != nil {
		return nil, err
	}
	return e.b.wrapAll(els), nil
}
