package htmldoc

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kobot/internal/ports/browser"
)

var errUnhandledDialog = errors.New("click opened a dialog nobody accepted")

type element struct {
	b   *Browser
	sel *goquery.Selection
}

func (e *element) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *element) Attribute(name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

func (e *element) Click() error {
	if _, ok := e.sel.Attr("data-confirm"); ok {
		return errUnhandledDialog
	}
	return e.b.click(e.sel)
}

func (e *element) Input(text string) error {
	e.sel.SetAttr("value", text)
	if id, ok := e.sel.Attr("id"); ok {
		e.b.inputs[id] = text
	}
	return nil
}

func (e *element) FindElement(sel browser.Selector) (browser.Element, error) {
	return first(e.b, e.sel, sel)
}

func (e *element) FindElements(sel browser.Selector) ([]browser.Element, error) {
	return all(e.b, e.sel, sel), nil
}

func match(root *goquery.Selection, sel browser.Selector) *goquery.Selection {
	switch sel.Kind {
	case browser.KindID:
		return root.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			id, _ := s.Attr("id")
			return id == sel.Value
		})
	case browser.KindLinkText:
		return root.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.TrimSpace(s.Text()) == sel.Value
		})
	default:
		return root.Find(sel.Value)
	}
}

func first(b *Browser, root *goquery.Selection, sel browser.Selector) (browser.Element, error) {
	found := match(root, sel)
	if found.Length() == 0 {
		return nil, browser.NotFound(sel)
	}
	return &element{b: b, sel: found.First()}, nil
}

func all(b *Browser, root *goquery.Selection, sel browser.Selector) []browser.Element {
	found := match(root, sel)
	out := make([]browser.Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{b: b, sel: s})
	})
	return out
}
