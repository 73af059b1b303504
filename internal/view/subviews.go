package view

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/engine"
	"github.com/roach88/viewkit/internal/journal"
)

// Params supplies the construction props of a mapped child.
type Params interface {
	params(parent *View, el *dom.Element) map[string]any
}

// Props are static params shared by every mapped child.
type Props map[string]any

func (p Props) params(*View, *dom.Element) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ParamsFunc computes params per element, with the parent as context.
type ParamsFunc func(parent *View, el *dom.Element) Props

func (f ParamsFunc) params(parent *View, el *dom.Element) map[string]any {
	return f(parent, el).params(parent, el)
}

// Export is what a lazy provider resolves to: a *Type or a Module.
type Export interface {
	viewType() (*Type, error)
}

func (t *Type) viewType() (*Type, error) { return t, nil }

// Module wraps a type as a default export.
type Module struct {
	Default *Type
}

// ErrNoDefault is returned when a provider resolves to a Module without a
// default type.
var ErrNoDefault = errors.New("view: module has no default export")

func (m Module) viewType() (*Type, error) {
	if m.Default == nil {
		return nil, ErrNoDefault
	}
	return m.Default, nil
}

// Provider resolves a view type asynchronously.
type Provider func(ctx context.Context) (Export, error)

// AddView registers child and drops it again when the child finishes
// removal. A child that is already removed is returned untracked.
func (v *View) AddView(child *View) *View {
	if child.state == StateRemoved {
		v.rt.logger.Debug("removed subview not registered", "view", v.id, "child", child.id)
		return child
	}
	v.subviews[child.id] = child
	v.ListenTo(child, EventAfterRemove, func() {
		delete(v.subviews, child.id)
		v.rt.record(journal.Entry{
			Kind:   journal.KindSubviewRemoved,
			View:   v.id,
			Type:   v.typ.name,
			Detail: child.id,
		})
	})
	v.rt.record(journal.Entry{
		Kind:   journal.KindSubviewAdded,
		View:   v.id,
		Type:   v.typ.name,
		Target: dom.Describe(child.target()),
		Detail: child.id,
	})
	return child
}

// Subviews returns the registered children in creation order.
func (v *View) Subviews() []*View {
	out := make([]*View, 0, len(v.subviews))
	for _, child := range v.subviews {
		out = append(out, child)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Subview returns the registered child with id.
func (v *View) Subview(id string) (*View, bool) {
	child, ok := v.subviews[id]
	return child, ok
}

// MapView builds a child of type t on the element sel resolves to and
// registers it. sel is a selector scoped to the view, a *dom.Element or a
// []*dom.Element. No matching element yields a nil view and no error.
func (v *View) MapView(sel any, t *Type, p Params) (*View, error) {
	el, err := v.mapTarget(sel)
	if err != nil || el == nil {
		return nil, err
	}
	return v.mapOne(el, t, p)
}

// MapViews builds one child per element sel resolves to, in document
// order. If any child fails, the children built by this call are removed.
func (v *View) MapViews(sel any, t *Type, p Params) ([]*View, error) {
	els, err := v.mapTargets(sel)
	if err != nil {
		return nil, err
	}
	return v.mapMany(els, t, p)
}

// MapViewLazy is MapView with a type resolved by provider. The provider
// runs off the loop; the child is built on the loop. Without a matching
// element the future resolves to nil immediately and provider is not
// called. If v is removed before the provider returns, the future
// resolves to a PARENT_REMOVED error and no child is built.
func (v *View) MapViewLazy(ctx context.Context, sel any, provider Provider, p Params) *engine.Future[*View] {
	el, err := v.mapTarget(sel)
	if err != nil || el == nil {
		return engine.Resolved[*View](nil, err)
	}
	fut := engine.NewFuture[*View]()
	v.resolveLazy(ctx, provider, func(t *Type, err error) {
		if err != nil {
			fut.Resolve(nil, err)
			return
		}
		fut.Resolve(v.mapOne(el, t, p))
	})
	return fut
}

// MapViewsLazy is MapViews with a type resolved by provider. Without
// matching elements the future resolves to an empty slice immediately.
func (v *View) MapViewsLazy(ctx context.Context, sel any, provider Provider, p Params) *engine.Future[[]*View] {
	els, err := v.mapTargets(sel)
	if err != nil {
		return engine.Resolved[[]*View](nil, err)
	}
	if len(els) == 0 {
		return engine.Resolved([]*View{}, nil)
	}
	fut := engine.NewFuture[[]*View]()
	v.resolveLazy(ctx, provider, func(t *Type, err error) {
		if err != nil {
			fut.Resolve(nil, err)
			return
		}
		fut.Resolve(v.mapMany(els, t, p))
	})
	return fut
}

// resolveLazy runs provider on its own goroutine and hands the result to
// done on the loop, provided v is still active by then.
func (v *View) resolveLazy(ctx context.Context, provider Provider, done func(*Type, error)) {
	if provider == nil {
		done(nil, configError(ErrCodeInvalidEventSpec, v.id, "provider", "nil view provider"))
		return
	}
	go func() {
		exp, err := provider(ctx)
		var t *Type
		switch {
		case err != nil:
			err = fmt.Errorf("resolve view provider: %w", err)
		case exp == nil:
			err = ErrNoDefault
		default:
			t, err = exp.viewType()
		}
		posted := v.rt.engine.Post(func() {
			if err == nil && v.state != StateActive {
				err = configError(ErrCodeParentRemoved, v.id, "",
					"parent was removed before the view provider resolved")
			}
			done(t, err)
		})
		if !posted {
			done(nil, engine.ErrStopped)
		}
	}()
}

// RemoveViews removes every registered child. Each child deregisters
// itself as it finishes.
func (v *View) RemoveViews() {
	v.removeSubviews()
}

func (v *View) removeSubviews() {
	for _, child := range v.Subviews() {
		child.Remove()
	}
}

func (v *View) mapOne(el *dom.Element, t *Type, p Params) (*View, error) {
	child, err := v.rt.New(t, Options{El: el, Props: v.paramsFor(p, el)})
	if err != nil {
		return nil, err
	}
	return v.AddView(child), nil
}

func (v *View) mapMany(els []*dom.Element, t *Type, p Params) ([]*View, error) {
	out := make([]*View, 0, len(els))
	for _, el := range els {
		child, err := v.mapOne(el, t, p)
		if err != nil {
			for _, built := range out {
				built.Remove()
			}
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

func (v *View) paramsFor(p Params, el *dom.Element) map[string]any {
	if p == nil {
		return nil
	}
	return p.params(v, el)
}

func (v *View) mapTarget(sel any) (*dom.Element, error) {
	switch x := sel.(type) {
	case string:
		el, err := v.Find(x)
		if err != nil {
			return nil, v.selectorError(x, err)
		}
		return el, nil
	default:
		return v.resolveElement(sel)
	}
}

func (v *View) mapTargets(sel any) ([]*dom.Element, error) {
	switch x := sel.(type) {
	case nil:
		return nil, nil
	case string:
		els, err := v.FindAll(x)
		if err != nil {
			return nil, v.selectorError(x, err)
		}
		return els, nil
	case *dom.Element:
		if x == nil {
			return nil, nil
		}
		return []*dom.Element{x}, nil
	case []*dom.Element:
		return x, nil
	default:
		return nil, configError(ErrCodeInvalidSelector, v.id, "", "cannot map views onto %T", sel)
	}
}

func (v *View) selectorError(sel string, err error) error {
	e := configError(ErrCodeInvalidSelector, v.id, sel, "invalid mapping selector")
	e.Err = err
	return e
}
