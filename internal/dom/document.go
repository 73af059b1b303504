package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const blankPage = `<!DOCTYPE html><html><head></head><body></body></html>`

// Document is the root of a parsed page.
type Document struct {
	root   *html.Node
	window *Window
	list   listenerList

	elements  map[*html.Node]*Element
	selectors map[string]cascadia.Selector
}

// Window is the global object that owns a Document. It only carries
// listeners; events reach it by bubbling or by direct dispatch.
type Window struct {
	doc  *Document
	list listenerList
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	d := &Document{
		root:      root,
		elements:  make(map[*html.Node]*Element),
		selectors: make(map[string]cascadia.Selector),
	}
	d.window = &Window{doc: d}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument returns an empty page with head and body.
func NewDocument() *Document {
	d, err := ParseString(blankPage)
	if err != nil {
		// A strings.Reader cannot fail.
		panic(err)
	}
	return d
}

// Window returns the window that owns d.
func (d *Document) Window() *Window { return d.window }

// Node exposes the underlying document node.
func (d *Document) Node() *html.Node { return d.root }

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.wrap(c)
		}
	}
	return nil
}

// Body returns the <body> element.
func (d *Document) Body() *Element {
	el, _ := d.QuerySelector("body")
	return el
}

// SetBodyHTML replaces the body's children.
func (d *Document) SetBodyHTML(s string) error {
	body := d.Body()
	if body == nil {
		return fmt.Errorf("document has no body")
	}
	return body.SetInnerHTML(s)
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	return d.wrap(n)
}

// QuerySelector returns the first element in document order matching sel.
func (d *Document) QuerySelector(sel string) (*Element, error) {
	s, err := d.compile(sel)
	if err != nil {
		return nil, err
	}
	return d.first(d.root, s), nil
}

// QuerySelectorAll returns every element matching sel in document order.
func (d *Document) QuerySelectorAll(sel string) ([]*Element, error) {
	s, err := d.compile(sel)
	if err != nil {
		return nil, err
	}
	return d.all(d.root, s), nil
}

// CheckSelector reports whether sel parses, without querying.
func (d *Document) CheckSelector(sel string) error {
	_, err := d.compile(sel)
	return err
}

// Contains reports whether el is connected to d.
func (d *Document) Contains(el *Element) bool {
	if el == nil {
		return false
	}
	return rootOf(el.node) == d.root
}

func (d *Document) AddEventListener(typ string, l *Listener)    { d.list.add(typ, l) }
func (d *Document) RemoveEventListener(typ string, l *Listener) { d.list.remove(typ, l) }

// ListenerCount returns the number of listeners for typ, or for every type
// when typ is empty.
func (d *Document) ListenerCount(typ string) int { return d.list.count(typ) }

// DispatchEvent fires e at the document, then at the window if it bubbles.
func (d *Document) DispatchEvent(e *Event) bool {
	return dispatch(e, []EventTarget{d, d.window})
}

func (d *Document) listeners() *listenerList { return &d.list }

// Document returns the window's document.
func (w *Window) Document() *Document { return w.doc }

func (w *Window) AddEventListener(typ string, l *Listener)    { w.list.add(typ, l) }
func (w *Window) RemoveEventListener(typ string, l *Listener) { w.list.remove(typ, l) }

// ListenerCount returns the number of listeners for typ, or for every type
// when typ is empty.
func (w *Window) ListenerCount(typ string) int { return w.list.count(typ) }

// DispatchEvent fires e at the window only.
func (w *Window) DispatchEvent(e *Event) bool {
	return dispatch(e, []EventTarget{w})
}

func (w *Window) listeners() *listenerList { return &w.list }

// Describe renders a short label for a target: "window", "document" or a
// tag with id and classes such as "form#signup.wide".
func Describe(t EventTarget) string {
	switch v := t.(type) {
	case nil:
		return ""
	case *Window:
		return "window"
	case *Document:
		return "document"
	case *Element:
		if v == nil {
			return ""
		}
		var b strings.Builder
		b.WriteString(v.TagName())
		if id := v.ID(); id != "" {
			b.WriteString("#" + id)
		}
		for _, c := range v.ClassList() {
			b.WriteString("." + c)
		}
		return b.String()
	default:
		return fmt.Sprintf("%T", t)
	}
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{node: n, doc: d}
	d.elements[n] = el
	return el
}

// forget drops wrappers of a subtree that is being discarded.
func (d *Document) forget(n *html.Node) {
	delete(d.elements, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

func (d *Document) compile(sel string) (cascadia.Selector, error) {
	if s, ok := d.selectors[sel]; ok {
		return s, nil
	}
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, &SelectorError{Selector: sel, Err: err}
	}
	d.selectors[sel] = s
	return s, nil
}

// first and all search the descendants of n, excluding n itself.
func (d *Document) first(n *html.Node, s cascadia.Selector) *Element {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && s.Match(c) {
			return d.wrap(c)
		}
		if found := d.first(c, s); found != nil {
			return found
		}
	}
	return nil
}

func (d *Document) all(n *html.Node, s cascadia.Selector) []*Element {
	var out []*Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && s.Match(c) {
				out = append(out, d.wrap(c))
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func rootOf(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// SelectorError reports a selector cascadia could not parse.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }
