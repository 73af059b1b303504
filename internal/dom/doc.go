// Package dom is the host document that views bind to.
//
// It keeps a tree of golang.org/x/net/html nodes and layers the parts of the
// browser event model that views rely on over it:
//
//   - Element, Document and Window are event targets with ordered listener lists.
//   - Dispatch runs the target phase and then bubbles through ancestor
//     elements, the document and the window (connected nodes only).
//   - A listener removed while an event is in flight is not invoked for the
//     remainder of that dispatch.
//   - Selectors are compiled once per document with cascadia and cached.
//   - Clicking a submit button submits its form unless the click was cancelled.
//
// The package is not safe for concurrent use. All calls belong on the
// UI dispatch loop (see internal/engine).
package dom
