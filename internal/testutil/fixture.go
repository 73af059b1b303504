// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/viewkit/internal/dom"
)

// GuestbookHTML is the page most view tests bind to: a form with a submit
// button and a list of two entries, inside a .guestbook container.
const GuestbookHTML = `<!DOCTYPE html>
<html><head><title>guestbook</title></head>
<body>
<div class="guestbook">
  <form>
    <input class="entryInput" placeholder="Type here..." type="text">
    <button class="submitBtn" type="submit">+</button>
  </form>
  <ul class="entryList">
    <li><span class="author">ana</span></li>
    <li><span class="author">ben</span></li>
  </ul>
</div>
<div class="outside"><a class="link" href="#">elsewhere</a></div>
</body></html>`

// Guestbook parses GuestbookHTML.
func Guestbook(t testing.TB) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(GuestbookHTML)
	require.NoError(t, err)
	return doc
}

// Query returns the first element matching sel and fails the test if there
// is none.
func Query(t testing.TB, doc *dom.Document, sel string) *dom.Element {
	t.Helper()
	el, err := doc.QuerySelector(sel)
	require.NoError(t, err)
	require.NotNil(t, el, "no element matches %q", sel)
	return el
}

// QueryAll returns every element matching sel.
func QueryAll(t testing.TB, doc *dom.Document, sel string) []*dom.Element {
	t.Helper()
	els, err := doc.QuerySelectorAll(sel)
	require.NoError(t, err)
	return els
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
