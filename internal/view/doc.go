// Package view is the view lifecycle and event-registry engine.
//
// A view type is declared once with Define, composing reusable behaviors
// (such as DismissListener) into ordered hook lists. Views are built from a
// type by a Runtime, which owns the document, the dispatch loop, id and
// sequence sources, the prop validator, and the journal.
//
// # Lifecycle
//
// A view moves constructing -> active -> removed. Construction resolves
// the element, validates props, runs initialize hooks and binds the
// declared events. Remove runs beforeRemove hooks, detaches every binding,
// removes every subview, optionally detaches the element, runs afterRemove
// hooks and drops every subscription. Removal is terminal.
//
// # Event specs
//
// Event maps bind spec strings to handlers:
//
//	"click"                  direct listener on the view element
//	"click .entryList li"    delegated: fires for matching descendants
//	"one:submit form"        detaches before its first invocation
//	"keyup document"         direct listener on the document
//	"resize window"          direct listener on the window
//
// Handlers are a Method name, resolved when events are set up, or a
// *Callback. Every attached listener has a registry record; removing the
// record detaches the listener.
//
// # Subviews
//
// MapView and MapViews build children on matching elements and register
// them with the parent. A child deregisters itself when it finishes
// removal. The lazy variants resolve the child type through a Provider off
// the loop and build the child on the loop.
package view
