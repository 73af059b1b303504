package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/viewkit/internal/journal"
	"github.com/roach88/viewkit/internal/view"
)

// Scenario declares an HTML fixture, the views mounted on it, the steps that
// drive it and the assertions checked afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID tags journal entries. Defaults to Name.
	RunID string `yaml:"run_id,omitempty"`

	// HTML is the document the views are mounted on.
	HTML string `yaml:"html"`

	// Views are constructed in order. A view may only name an earlier view
	// as its parent.
	Views []ViewDecl `yaml:"views"`

	// Steps run in order after every view is constructed.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the journal and the final view state.
	Assertions []Assertion `yaml:"assertions"`
}

// ViewDecl declares a view type and the view (or views) built from it.
type ViewDecl struct {
	// Name refers to the view in steps and assertions. Views built with Map
	// are named "name[0]", "name[1]" and so on.
	Name string `yaml:"name"`

	// Type is the view type name. Defaults to Name.
	Type string `yaml:"type,omitempty"`

	// El is the selector of the root element.
	El string `yaml:"el,omitempty"`

	// Parent names an earlier view this one is registered under.
	Parent string `yaml:"parent,omitempty"`

	// Map builds one child of Parent per element matching the selector.
	Map string `yaml:"map,omitempty"`

	// Lazy resolves the type through a provider, the way deferred modules
	// are loaded. Only meaningful with Map.
	Lazy bool `yaml:"lazy,omitempty"`

	// Behaviors lists behavior names. Known: dismissListener.
	Behaviors []string `yaml:"behaviors,omitempty"`

	// Schema is the CUE source of the prop schema.
	Schema string `yaml:"schema,omitempty"`

	// Props are passed to the constructor.
	Props map[string]any `yaml:"props,omitempty"`

	// Events bind event specs to method names, in order.
	Events []EventDecl `yaml:"events,omitempty"`

	// Methods maps a method name to the actions it performs when called.
	// Every call is counted regardless of actions.
	Methods map[string][]string `yaml:"methods,omitempty"`

	// RemoveElement detaches the element when the view is removed.
	RemoveElement bool `yaml:"remove_element,omitempty"`

	// ParseEventVariables enables {{this.x}} expansion in event specs.
	ParseEventVariables bool `yaml:"parse_event_variables,omitempty"`

	// ExpectError is the error code construction must fail with. The view
	// is not registered when set.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// EventDecl is one event spec bound to a method.
type EventDecl struct {
	Spec    string `yaml:"spec"`
	Handler string `yaml:"handler"`
}

// Step is one interaction. Exactly one field is set.
type Step struct {
	Click         string        `yaml:"click,omitempty"`
	Submit        string        `yaml:"submit,omitempty"`
	KeyUp         *KeyStep      `yaml:"keyup,omitempty"`
	Dispatch      *DispatchStep `yaml:"dispatch,omitempty"`
	Remove        string        `yaml:"remove,omitempty"`
	RemoveEvents  string        `yaml:"remove_events,omitempty"`
	RemoveViews   string        `yaml:"remove_views,omitempty"`
	AddDismiss    *DismissStep  `yaml:"add_dismiss,omitempty"`
	RemoveDismiss *DismissStep  `yaml:"remove_dismiss,omitempty"`
}

// KeyStep fires a bubbling keyup on Target. Key "Escape" implies code 27.
type KeyStep struct {
	Target string `yaml:"target"`
	Key    string `yaml:"key"`
	Code   int    `yaml:"code,omitempty"`
}

// DispatchStep fires a custom event. Target may be a selector, "document"
// or "window".
type DispatchStep struct {
	Target  string `yaml:"target"`
	Event   string `yaml:"event"`
	Bubbles bool   `yaml:"bubbles,omitempty"`
}

// DismissStep registers or removes a dismiss listener calling Handler.
type DismissStep struct {
	View      string `yaml:"view"`
	Handler   string `yaml:"handler"`
	Container string `yaml:"container,omitempty"`
}

// Step kinds.
const (
	StepClick         = "click"
	StepSubmit        = "submit"
	StepKeyUp         = "keyup"
	StepDispatch      = "dispatch"
	StepRemove        = "remove"
	StepRemoveEvents  = "remove_events"
	StepRemoveViews   = "remove_views"
	StepAddDismiss    = "add_dismiss"
	StepRemoveDismiss = "remove_dismiss"
)

// Kinds returns the kinds of every field set on s.
func (s Step) Kinds() []string {
	var kinds []string
	add := func(set bool, kind string) {
		if set {
			kinds = append(kinds, kind)
		}
	}
	add(s.Click != "", StepClick)
	add(s.Submit != "", StepSubmit)
	add(s.KeyUp != nil, StepKeyUp)
	add(s.Dispatch != nil, StepDispatch)
	add(s.Remove != "", StepRemove)
	add(s.RemoveEvents != "", StepRemoveEvents)
	add(s.RemoveViews != "", StepRemoveViews)
	add(s.AddDismiss != nil, StepAddDismiss)
	add(s.RemoveDismiss != nil, StepRemoveDismiss)
	return kinds
}

// Kind returns the step kind, or "" unless exactly one field is set.
func (s Step) Kind() string {
	kinds := s.Kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Assertion validates the journal or the final view state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// View names the view (handler_count, registry_size, subview_count,
	// view_state, and optionally the journal assertions).
	View string `yaml:"view,omitempty"`

	// Handler is the method name (handler_count).
	Handler string `yaml:"handler,omitempty"`

	// State is the expected lifecycle state (view_state).
	State string `yaml:"state,omitempty"`

	// Kind is the journal entry kind (journal_contains, journal_count).
	Kind string `yaml:"kind,omitempty"`

	// Event and Selector narrow journal_contains.
	Event    string `yaml:"event,omitempty"`
	Selector string `yaml:"selector,omitempty"`

	// Count is the expected number (handler_count, registry_size,
	// subview_count, journal_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertHandlerCount    = "handler_count"
	AssertRegistrySize    = "registry_size"
	AssertSubviewCount    = "subview_count"
	AssertViewState       = "view_state"
	AssertJournalContains = "journal_contains"
	AssertJournalCount    = "journal_count"
)

// Method actions.
const (
	ActionPreventDefault  = "prevent_default"
	ActionStopPropagation = "stop_propagation"
	ActionStopImmediate   = "stop_immediate"
	ActionRemove          = "remove"
	ActionRemoveEvents    = "remove_events"
	ActionRemoveDismiss   = "remove_dismiss"
)

var knownActions = map[string]bool{
	ActionPreventDefault:  true,
	ActionStopPropagation: true,
	ActionStopImmediate:   true,
	ActionRemove:          true,
	ActionRemoveEvents:    true,
	ActionRemoveDismiss:   true,
}

var knownBehaviors = map[string]*view.Behavior{
	view.DismissListener.Name: view.DismissListener,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// name a step or assertion uses is declared.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(s.HTML) == "" {
		return fmt.Errorf("html is required")
	}
	if len(s.Views) == 0 {
		return fmt.Errorf("views list is required and must be non-empty")
	}

	declared := make(map[string]bool)
	for i, v := range s.Views {
		if err := validateView(v, declared); err != nil {
			return fmt.Errorf("views[%d]: %w", i, err)
		}
		declared[v.Name] = true
	}

	for i, step := range s.Steps {
		kinds := step.Kinds()
		switch len(kinds) {
		case 0:
			return fmt.Errorf("steps[%d]: no action set", i)
		case 1:
		default:
			return fmt.Errorf("steps[%d]: exactly one action allowed, got %s", i, strings.Join(kinds, ", "))
		}
		if err := validateStep(step, declared); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateView(v ViewDecl, declared map[string]bool) error {
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if declared[v.Name] {
		return fmt.Errorf("duplicate view name %q", v.Name)
	}
	if v.Parent != "" && !declared[v.Parent] {
		return fmt.Errorf("parent %q is not declared earlier", v.Parent)
	}
	if v.Map != "" && v.Parent == "" {
		return fmt.Errorf("map requires a parent")
	}
	if v.Map != "" && v.El != "" {
		return fmt.Errorf("map and el are mutually exclusive")
	}
	if v.Lazy && v.Map == "" {
		return fmt.Errorf("lazy requires map")
	}
	for _, b := range v.Behaviors {
		if _, ok := knownBehaviors[b]; !ok {
			return fmt.Errorf("unknown behavior %q", b)
		}
	}
	for i, e := range v.Events {
		if e.Spec == "" || e.Handler == "" {
			return fmt.Errorf("events[%d]: spec and handler are required", i)
		}
	}
	for name, actions := range v.Methods {
		for _, a := range actions {
			if !knownActions[a] {
				return fmt.Errorf("methods.%s: unknown action %q", name, a)
			}
		}
	}
	return nil
}

func validateStep(s Step, declared map[string]bool) error {
	// Mapped views are only named at run time, so view references are
	// checked against the base name.
	check := func(name string) error {
		if !declared[baseName(name)] {
			return fmt.Errorf("unknown view %q", name)
		}
		return nil
	}
	switch s.Kind() {
	case StepKeyUp:
		if s.KeyUp.Target == "" || s.KeyUp.Key == "" {
			return fmt.Errorf("keyup: target and key are required")
		}
	case StepDispatch:
		if s.Dispatch.Target == "" || s.Dispatch.Event == "" {
			return fmt.Errorf("dispatch: target and event are required")
		}
	case StepRemove:
		return check(s.Remove)
	case StepRemoveEvents:
		return check(s.RemoveEvents)
	case StepRemoveViews:
		return check(s.RemoveViews)
	case StepAddDismiss:
		if s.AddDismiss.Handler == "" {
			return fmt.Errorf("add_dismiss: handler is required")
		}
		return check(s.AddDismiss.View)
	case StepRemoveDismiss:
		if s.RemoveDismiss.Handler == "" {
			return fmt.Errorf("remove_dismiss: handler is required")
		}
		return check(s.RemoveDismiss.View)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertHandlerCount:
		if a.View == "" || a.Handler == "" {
			return fmt.Errorf("handler_count requires view and handler")
		}
	case AssertRegistrySize, AssertSubviewCount:
		if a.View == "" {
			return fmt.Errorf("%s requires view", a.Type)
		}
	case AssertViewState:
		if a.View == "" || a.State == "" {
			return fmt.Errorf("view_state requires view and state")
		}
	case AssertJournalContains, AssertJournalCount:
		if a.Kind == "" {
			return fmt.Errorf("%s requires kind", a.Type)
		}
		if _, err := journal.ParseKind(a.Kind); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// baseName strips a "[i]" index suffix.
func baseName(name string) string {
	if i := strings.IndexByte(name, '['); i > 0 && strings.HasSuffix(name, "]") {
		return name[:i]
	}
	return name
}
