// Package journal records view lifecycle activity.
//
// Every view runtime writes entries through a Recorder: view creation and
// removal, event bindings added and removed, dispatched events, subview
// attachment, and dismiss listener registration. Entries carry a logical
// sequence number from the runtime clock, never a wall-clock timestamp, so
// two runs of the same scenario produce identical journals.
//
// Three recorders are provided:
//   - Memory keeps entries in a slice and is used by tests and the harness
//   - Store appends entries to a SQLite database for later inspection
//   - Discard drops everything
//
// Entries serialize to canonical JSON (sorted keys, NFC strings, no HTML
// escaping) for golden-file comparison.
package journal
