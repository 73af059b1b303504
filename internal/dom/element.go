package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Element wraps an element node. Wrappers are interned per document, so two
// lookups of the same node return the same *Element.
type Element struct {
	node *html.Node
	doc  *Document
	list listenerList
}

// Node exposes the underlying html node.
func (el *Element) Node() *html.Node { return el.node }

// Document returns the document that created el.
func (el *Element) Document() *Document { return el.doc }

// TagName returns the lower-case tag name.
func (el *Element) TagName() string { return el.node.Data }

// ID returns the id attribute.
func (el *Element) ID() string { return el.GetAttribute("id") }

// GetAttribute returns the value of name, or "" when absent.
func (el *Element) GetAttribute(name string) string {
	v, _ := el.attribute(name)
	return v
}

// HasAttribute reports whether name is present.
func (el *Element) HasAttribute(name string) bool {
	_, ok := el.attribute(name)
	return ok
}

// SetAttribute sets name to value.
func (el *Element) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	for i, a := range el.node.Attr {
		if a.Namespace == "" && a.Key == name {
			el.node.Attr[i].Val = value
			return
		}
	}
	el.node.Attr = append(el.node.Attr, html.Attribute{Key: name, Val: value})
}

func (el *Element) attribute(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range el.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// ClassList returns the class names in attribute order.
func (el *Element) ClassList() []string {
	return strings.Fields(el.GetAttribute("class"))
}

// HasClass reports whether el carries class c.
func (el *Element) HasClass(c string) bool {
	for _, have := range el.ClassList() {
		if have == c {
			return true
		}
	}
	return false
}

// Parent returns the parent element, or nil at the top of the tree.
func (el *Element) Parent() *Element {
	p := el.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return el.doc.wrap(p)
}

// Children returns the child elements.
func (el *Element) Children() []*Element {
	var out []*Element
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, el.doc.wrap(c))
		}
	}
	return out
}

// Contains reports whether other is el or one of its descendants.
func (el *Element) Contains(other *Element) bool {
	if other == nil {
		return false
	}
	for n := other.node; n != nil; n = n.Parent {
		if n == el.node {
			return true
		}
	}
	return false
}

// Matches reports whether el matches sel.
func (el *Element) Matches(sel string) (bool, error) {
	s, err := el.doc.compile(sel)
	if err != nil {
		return false, err
	}
	return s.Match(el.node), nil
}

// Closest returns el or its nearest ancestor matching sel.
func (el *Element) Closest(sel string) (*Element, error) {
	s, err := el.doc.compile(sel)
	if err != nil {
		return nil, err
	}
	for n := el.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if s.Match(n) {
			return el.doc.wrap(n), nil
		}
	}
	return nil, nil
}

// QuerySelector returns the first descendant matching sel.
func (el *Element) QuerySelector(sel string) (*Element, error) {
	s, err := el.doc.compile(sel)
	if err != nil {
		return nil, err
	}
	return el.doc.first(el.node, s), nil
}

// QuerySelectorAll returns every descendant matching sel.
func (el *Element) QuerySelectorAll(sel string) ([]*Element, error) {
	s, err := el.doc.compile(sel)
	if err != nil {
		return nil, err
	}
	return el.doc.all(el.node, s), nil
}

// AppendChild moves child under el.
func (el *Element) AppendChild(child *Element) {
	if child.node.Parent != nil {
		child.node.Parent.RemoveChild(child.node)
	}
	el.node.AppendChild(child.node)
}

// Remove detaches el from its parent. Listeners stay attached.
func (el *Element) Remove() {
	if p := el.node.Parent; p != nil {
		p.RemoveChild(el.node)
	}
}

// Connected reports whether el is attached to its document.
func (el *Element) Connected() bool {
	return el.doc.Contains(el)
}

// SetInnerHTML replaces the children of el with the parsed fragment.
func (el *Element) SetInnerHTML(s string) error {
	nodes, err := html.ParseFragment(strings.NewReader(s), el.node)
	if err != nil {
		return fmt.Errorf("parsing fragment: %w", err)
	}
	for c := el.node.FirstChild; c != nil; {
		next := c.NextSibling
		el.node.RemoveChild(c)
		el.doc.forget(c)
		c = next
	}
	for _, n := range nodes {
		el.node.AppendChild(n)
	}
	return nil
}

// InnerHTML renders the children of el.
func (el *Element) InnerHTML() string {
	var buf bytes.Buffer
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// OuterHTML renders el itself.
func (el *Element) OuterHTML() string {
	var buf bytes.Buffer
	_ = html.Render(&buf, el.node)
	return buf.String()
}

// TextContent concatenates the text of every descendant text node.
func (el *Element) TextContent() string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el.node)
	return b.String()
}

func (el *Element) AddEventListener(typ string, l *Listener)    { el.list.add(typ, l) }
func (el *Element) RemoveEventListener(typ string, l *Listener) { el.list.remove(typ, l) }

// ListenerCount returns the number of listeners for typ, or for every type
// when typ is empty.
func (el *Element) ListenerCount(typ string) int { return el.list.count(typ) }

// DispatchEvent fires e at el and, if e bubbles, at each ancestor element.
// Connected elements continue to the document and the window.
func (el *Element) DispatchEvent(e *Event) bool {
	return dispatch(e, el.propagationPath())
}

func (el *Element) listeners() *listenerList { return &el.list }

func (el *Element) propagationPath() []EventTarget {
	path := []EventTarget{el}
	n := el.node.Parent
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		path = append(path, el.doc.wrap(n))
	}
	if n == el.doc.root {
		path = append(path, el.doc, el.doc.window)
	}
	return path
}

// Click dispatches a click and runs the activation behaviour when it was
// not cancelled: a submit button submits its form.
func (el *Element) Click() bool {
	if !el.DispatchEvent(NewMouseEvent("click")) {
		return false
	}
	if el.isSubmitButton() {
		if form := el.form(); form != nil {
			form.RequestSubmit()
		}
	}
	return true
}

// RequestSubmit fires a bubbling, cancelable "submit" at a form element.
// It returns false if el is not a form or the submission was cancelled.
func (el *Element) RequestSubmit() bool {
	if el.TagName() != "form" {
		return false
	}
	return el.DispatchEvent(NewEvent("submit", Bubbles(), Cancelable()))
}

// KeyUp dispatches a keyup for key at el.
func (el *Element) KeyUp(key string, code int) bool {
	return el.DispatchEvent(NewKeyboardEvent("keyup", key, code))
}

func (el *Element) isSubmitButton() bool {
	typ := strings.ToLower(el.GetAttribute("type"))
	switch el.TagName() {
	case "button":
		return typ == "" || typ == "submit"
	case "input":
		return typ == "submit" || typ == "image"
	}
	return false
}

func (el *Element) form() *Element {
	for n := el.node.Parent; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if n.Data == "form" {
			return el.doc.wrap(n)
		}
	}
	return nil
}
