package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("element not found")
	ErrTimeout  = errors.New("timed out waiting for page")
)

// SelectorKind tells an implementation how to interpret a selector value.
type SelectorKind int

const (
	KindID SelectorKind = iota
	KindCSS
	KindLinkText
)

// Selector locates elements on the current page.
type Selector struct {
	Kind  SelectorKind
	Value string
}

func ByID(id string) Selector         { return Selector{Kind: KindID, Value: id} }
func ByCSS(css string) Selector       { return Selector{Kind: KindCSS, Value: css} }
func ByLinkText(text string) Selector { return Selector{Kind: KindLinkText, Value: text} }

func (s Selector) String() string {
	switch s.Kind {
	case KindID:
		return "id=" + s.Value
	case KindLinkText:
		return "link=" + s.Value
	default:
		return "css=" + s.Value
	}
}

// NotFound builds the error implementations return for a failed lookup.
func NotFound(sel Selector) error {
	return fmt.Errorf("%w: %s", ErrNotFound, sel)
}

// Element is a handle to a node on the rendered page.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	Click() error
	Input(text string) error
	FindElement(sel Selector) (Element, error)
	FindElements(sel Selector) ([]Element, error)
}

// Browser is the capability the run consumes. Lookups never wait; waiting
// goes through WaitUntil / WaitFor so every suspension is bounded.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	FindElement(sel Selector) (Element, error)
	FindElements(sel Selector) ([]Element, error)
	// WaitUntil polls cond until it reports true or the configured timeout expires.
	WaitUntil(ctx context.Context, cond Condition) error
	CurrentURL() (string, error)
	Title() (string, error)
	// ClickAcceptingAlert clicks el and accepts the confirmation dialog it opens.
	ClickAcceptingAlert(ctx context.Context, el Element) error
	Quit() error
}

// WaitFor waits until sel resolves to an element and returns it.
func WaitFor(ctx context.Context, b Browser, sel Selector) (Element, error) {
	var found Element
	err := b.WaitUntil(ctx, func() (bool, error) {
		el, err := b.FindElement(sel)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		found = el
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", sel, err)
	}
	return found, nil
}

// TextContains is a Condition matching when the element's text contains want.
func TextContains(b Browser, sel Selector, want string) Condition {
	return func() (bool, error) {
		el, err := b.FindElement(sel)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		text, err := el.Text()
		if err != nil {
			return false, nil
		}
		return strings.Contains(text, want), nil
	}
}
