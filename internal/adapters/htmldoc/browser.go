// Package htmldoc implements the browser capability over static HTML documents.
// Pages are rendered by a Source on every navigation and queried with CSS
// selectors; clicks run registered handlers or follow links.
package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kobot/internal/ports/browser"
)

var ErrClosed = errors.New("browser already closed")

// Source renders the document served at a URL.
type Source interface {
	Render(url string) (string, error)
}

// Pages is a fixed set of documents keyed by absolute URL.
type Pages map[string]string

func (p Pages) Render(u string) (string, error) {
	html, ok := p[u]
	if !ok {
		return "", fmt.Errorf("no page at %s", u)
	}
	return html, nil
}

// ClickHandler runs when an element matching its selector is clicked.
type ClickHandler func(b *Browser, target *goquery.Selection) error

type clickBinding struct {
	css string
	fn  ClickHandler
}

// Browser is a browser.Browser backed by goquery documents.
type Browser struct {
	src      Source
	timeout  time.Duration
	interval time.Duration
	handlers []clickBinding

	url    string
	doc    *goquery.Document
	inputs map[string]string
	clicks []*goquery.Selection
	alerts int
	quits  int
}

type Option func(*Browser)

// WithTimeout bounds every WaitUntil call.
func WithTimeout(d time.Duration) Option {
	return func(b *Browser) { b.timeout = d }
}

// WithPollInterval sets how often WaitUntil re-evaluates its condition.
func WithPollInterval(d time.Duration) Option {
	return func(b *Browser) { b.interval = d }
}

// New returns a browser with no page loaded.
func New(src Source, opts ...Option) *Browser {
	b := &Browser{
		src:      src,
		timeout:  time.Second,
		interval: 10 * time.Millisecond,
		inputs:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnClick registers fn for clicks on elements matching css.
func (b *Browser) OnClick(css string, fn ClickHandler) {
	b.handlers = append(b.handlers, clickBinding{css: css, fn: fn})
}

func (b *Browser) Navigate(_ context.Context, rawURL string) error {
	if b.quits > 0 {
		return ErrClosed
	}
	target, err := b.resolve(rawURL)
	if err != nil {
		return err
	}
	html, err := b.src.Render(target)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse %s: %w", target, err)
	}
	b.url, b.doc = target, doc
	return nil
}

// Reload renders the current URL again.
func (b *Browser) Reload() error {
	return b.Navigate(context.Background(), b.url)
}

func (b *Browser) resolve(rawURL string) (string, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if b.url == "" || ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(b.url)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (b *Browser) FindElement(sel browser.Selector) (browser.Element, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	return first(b, b.doc.Selection, sel)
}

func (b *Browser) FindElements(sel browser.Selector) ([]browser.Element, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	return all(b, b.doc.Selection, sel), nil
}

func (b *Browser) WaitUntil(ctx context.Context, cond browser.Condition) error {
	return browser.Poll(ctx, b.timeout, b.interval, cond)
}

func (b *Browser) CurrentURL() (string, error) {
	if b.quits > 0 {
		return "", ErrClosed
	}
	return b.url, nil
}

func (b *Browser) Title() (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.doc.Find("title").First().Text()), nil
}

// ClickAcceptingAlert accepts the dialog declared by the element's data-confirm attribute.
func (b *Browser) ClickAcceptingAlert(_ context.Context, el browser.Element) error {
	e, ok := el.(*element)
	if !ok {
		return fmt.Errorf("foreign element %T", el)
	}
	if _, ok := e.sel.Attr("data-confirm"); !ok {
		return fmt.Errorf("%w: no dialog opened", browser.ErrTimeout)
	}
	b.alerts++
	return b.click(e.sel)
}

func (b *Browser) Quit() error {
	b.quits++
	if b.quits > 1 {
		return ErrClosed
	}
	return nil
}

// Quits reports how many times Quit was called.
func (b *Browser) Quits() int { return b.quits }

// AlertsAccepted reports how many dialogs were accepted.
func (b *Browser) AlertsAccepted() int { return b.alerts }

// InputValue returns what was typed into the element with the given id.
func (b *Browser) InputValue(id string) string { return b.inputs[id] }

// Clicks counts clicks on elements matching css.
func (b *Browser) Clicks(css string) int {
	n := 0
	for _, s := range b.clicks {
		if s.Is(css) {
			n++
		}
	}
	return n
}

func (b *Browser) ready() error {
	if b.quits > 0 {
		return ErrClosed
	}
	if b.doc == nil {
		return errors.New("no page loaded")
	}
	return nil
}

func (b *Browser) click(sel *goquery.Selection) error {
	if err := b.ready(); err != nil {
		return err
	}
	b.clicks = append(b.clicks, sel)
	for _, h := range b.handlers {
		if sel.Is(h.css) {
			if err := h.fn(b, sel); err != nil {
				return err
			}
		}
	}
	if goquery.NodeName(sel) == "a" {
		if href, ok := sel.Attr("href"); ok && href != "" {
			return b.Navigate(context.Background(), href)
		}
	}
	return nil
}
