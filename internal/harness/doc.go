// Package harness runs view scenarios declared in YAML.
//
// A scenario mounts views on an HTML fixture, drives them with DOM events
// and checks the journal and final view state. Runs are deterministic:
// view ids come from a sequence and journal entries from a fresh clock, so
// journals can be compared against golden files.
//
// # Scenario Format
//
//	name: guestbook_submit
//	description: "Submitting the form calls submitForm once"
//	html: |
//	  <div class="guestbook"><form><button class="submitBtn">Go</button></form></div>
//	views:
//	  - name: guestbook
//	    type: Guestbook
//	    el: .guestbook
//	    behaviors: [dismissListener]
//	    schema: |
//	      title: string | *"Guestbook"
//	    events:
//	      - spec: submit form
//	        handler: submitForm
//	    methods:
//	      submitForm: [prevent_default]
//	  - name: entries
//	    parent: guestbook
//	    map: .entryList li
//	steps:
//	  - click: .submitBtn
//	  - keyup: {target: .entryInput, key: Escape}
//	  - remove: guestbook
//	assertions:
//	  - type: handler_count
//	    view: guestbook
//	    handler: submitForm
//	    count: 1
//
// Views built with map are named entries[0], entries[1] and so on.
//
// # Steps
//
//   - click, submit: selector of the element
//   - keyup: target selector and key
//   - dispatch: custom event at a selector, "document" or "window"
//   - remove, remove_events, remove_views: view name
//   - add_dismiss, remove_dismiss: view, handler and optional container
//
// # Assertion Types
//
//   - handler_count: calls of a method on a view
//   - registry_size: active bindings of a view
//   - subview_count: registered children of a view
//   - view_state: constructing, active or removed
//   - journal_contains: an entry matching kind and optional view, event, selector
//   - journal_count: number of entries matching the same filter
package harness
