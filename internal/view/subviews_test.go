package view

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/journal"
	"github.com/roach88/viewkit/internal/testutil"
)

func childType(t *testing.T) *Type {
	t.Helper()
	return define(t, Definition{
		Name:  "Entry",
		Props: propsSchema("foo", "bar"),
	})
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestMapViews_OnePerElementInOrder(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	items := testutil.QueryAll(t, rt.Document(), ".entryList li")

	children, err := parent.MapViews(".entryList li", childType(t), nil)
	require.NoError(t, err)
	require.Len(t, children, 2)
	for i, child := range children {
		assert.Same(t, items[i], child.El())
		assert.Equal(t, "bar", child.GetString("foo"))
	}
	assert.Equal(t, children, parent.Subviews())
}

func TestMapViews_Inputs(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	child := childType(t)
	items := testutil.QueryAll(t, rt.Document(), ".entryList li")

	fromSlice, err := parent.MapViews(items, child, Props{"foo": "bar2"})
	require.NoError(t, err)
	require.Len(t, fromSlice, 2)
	for _, c := range fromSlice {
		assert.Equal(t, "bar2", c.GetString("foo"))
	}

	computed, err := parent.MapViews(items, child, ParamsFunc(func(p *View, el *dom.Element) Props {
		assert.Same(t, parent, p)
		return Props{"foo": el}
	}))
	require.NoError(t, err)
	for i, c := range computed {
		got, _ := c.Get("foo")
		assert.Same(t, items[i], got)
	}

	none, err := parent.MapViews(".undefinedClass", child, nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assert.Len(t, parent.Subviews(), 4)
}

func TestMapViews_FailureRemovesBuiltChildren(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	strict := define(t, Definition{
		Props: propsSchema("foo", "bar"),
		Initialize: func(v *View) error {
			if v.El().TextContent() == "ben" {
				return errors.New("second entry refused")
			}
			return nil
		},
	})

	children, err := parent.MapViews(".entryList li", strict, nil)
	require.Error(t, err)
	assert.Nil(t, children)
	assert.Empty(t, parent.Subviews())
}

func TestMapView_SingleElement(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	child := childType(t)
	form := testutil.Query(t, rt.Document(), "form")

	c1, err := parent.MapView("form", child, nil)
	require.NoError(t, err)
	assert.Equal(t, "bar", c1.GetString("foo"))
	assert.Same(t, form, c1.El())

	c2, err := parent.MapView([]*dom.Element{form}, child, Props{"foo": "bar2"})
	require.NoError(t, err)
	assert.Equal(t, "bar2", c2.GetString("foo"))

	c3, err := parent.MapView(form, child, ParamsFunc(func(p *View, el *dom.Element) Props {
		return Props{"foo": el}
	}))
	require.NoError(t, err)
	got, _ := c3.Get("foo")
	assert.Same(t, form, got)

	registered, ok := parent.Subview(c1.ID())
	require.True(t, ok)
	assert.Same(t, c1, registered)

	missing, err := parent.MapView(".undefinedClass", child, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = parent.MapView("li[", child, nil)
	assert.True(t, HasCode(err, ErrCodeInvalidSelector))
}

func TestSubviews_ChildRemovalDeregisters(t *testing.T) {
	rt, mem := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	children, err := parent.MapViews("li", childType(t), nil)
	require.NoError(t, err)

	children[0].Remove()
	assert.Equal(t, []*View{children[1]}, parent.Subviews())
	_, ok := parent.Subview(children[0].ID())
	assert.False(t, ok)
	assert.Equal(t, 1, mem.Count(journal.KindSubviewRemoved, parent.ID()))
}

func TestSubviews_ParentRemovalCascades(t *testing.T) {
	rt, _ := newRuntime(t)
	before, after := map[string]int{}, map[string]int{}
	child := define(t, Definition{
		BeforeRemove: func(v *View) { before[v.ID()]++ },
		AfterRemove:  func(v *View) { after[v.ID()]++ },
	})
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	children, err := parent.MapViews("li", child, nil)
	require.NoError(t, err)
	grandchild, err := children[0].MapView(".author", child, nil)
	require.NoError(t, err)

	parent.Remove()

	assert.Empty(t, parent.Subviews())
	assert.Empty(t, children[0].Subviews())
	for _, v := range append(children, grandchild) {
		assert.Equal(t, StateRemoved, v.State())
		assert.Equal(t, 1, before[v.ID()], v.ID())
		assert.Equal(t, 1, after[v.ID()], v.ID())
	}
}

func TestRemoveViews_KeepsParentActive(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	_, err := parent.MapViews("li", childType(t), nil)
	require.NoError(t, err)

	parent.RemoveViews()
	assert.Empty(t, parent.Subviews())
	assert.Equal(t, StateActive, parent.State())
}

func TestAddView_Manual(t *testing.T) {
	rt, mem := newRuntime(t)
	base := define(t, Definition{})
	parent := rt.MustNew(base, Options{})
	child := rt.MustNew(base, Options{El: "form"})

	assert.Same(t, child, parent.AddView(child))
	assert.Len(t, parent.Subviews(), 1)

	added := mem.Filter(journal.KindSubviewAdded)
	require.Len(t, added, 1)
	assert.Equal(t, child.ID(), added[0].Detail)
	assert.Equal(t, "form", added[0].Target)
}

func TestAddView_RemovedChildIsNotTracked(t *testing.T) {
	rt, mem := newRuntime(t)
	base := define(t, Definition{})
	parent := rt.MustNew(base, Options{})
	child := rt.MustNew(base, Options{})
	child.Remove()

	assert.Same(t, child, parent.AddView(child))
	assert.Empty(t, parent.Subviews())
	_, ok := parent.Subview(child.ID())
	assert.False(t, ok)
	assert.Zero(t, mem.Count(journal.KindSubviewAdded, ""))

	parent.Remove()
	assert.Zero(t, mem.Count(journal.KindSubviewRemoved, ""))
}

func TestMapViewLazy_ResolvesOnLoop(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	child := childType(t)

	fut := parent.MapViewLazy(awaitCtx(t), "form", func(context.Context) (Export, error) {
		return Module{Default: child}, nil
	}, Props{"foo": "lazy"})

	got, err := fut.Await(awaitCtx(t), rt.Engine())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "lazy", got.GetString("foo"))
	assert.Same(t, child, got.Type())
	assert.Len(t, parent.Subviews(), 1)
}

func TestMapViewsLazy_ResolvesInOrder(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	child := childType(t)
	items := testutil.QueryAll(t, rt.Document(), "li")

	fut := parent.MapViewsLazy(awaitCtx(t), "li", func(context.Context) (Export, error) {
		return child, nil
	}, nil)

	got, err := fut.Await(awaitCtx(t), rt.Engine())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Same(t, items[0], got[0].El())
	assert.Same(t, items[1], got[1].El())
}

func TestMapLazy_NoTargetSkipsProvider(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	var calls atomic.Int32
	provider := func(context.Context) (Export, error) {
		calls.Add(1)
		return childType(t), nil
	}

	one := parent.MapViewLazy(awaitCtx(t), ".undefinedClass", provider, nil)
	select {
	case <-one.Done():
	default:
		t.Fatal("future should be resolved immediately")
	}
	got, err := one.Result()
	require.NoError(t, err)
	assert.Nil(t, got)

	many := parent.MapViewsLazy(awaitCtx(t), ".undefinedClass", provider, nil)
	gotMany, err := many.Await(awaitCtx(t), rt.Engine())
	require.NoError(t, err)
	assert.NotNil(t, gotMany)
	assert.Empty(t, gotMany)

	assert.Zero(t, calls.Load())
}

func TestMapLazy_ProviderErrors(t *testing.T) {
	rt, _ := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})

	failing := parent.MapViewLazy(awaitCtx(t), "form", func(context.Context) (Export, error) {
		return nil, assert.AnError
	}, nil)
	_, err := failing.Await(awaitCtx(t), rt.Engine())
	assert.ErrorIs(t, err, assert.AnError)

	empty := parent.MapViewLazy(awaitCtx(t), "form", func(context.Context) (Export, error) {
		return Module{}, nil
	}, nil)
	_, err = empty.Await(awaitCtx(t), rt.Engine())
	assert.ErrorIs(t, err, ErrNoDefault)

	assert.Empty(t, parent.Subviews())
}

func TestMapLazy_ParentRemovedBeforeResolution(t *testing.T) {
	rt, mem := newRuntime(t)
	parent := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	child := childType(t)
	release := make(chan struct{})

	fut := parent.MapViewLazy(awaitCtx(t), "form", func(context.Context) (Export, error) {
		<-release
		return child, nil
	}, nil)

	parent.Remove()
	close(release)

	got, err := fut.Await(awaitCtx(t), rt.Engine())
	assert.Nil(t, got)
	assert.True(t, HasCode(err, ErrCodeParentRemoved))
	assert.Equal(t, 1, mem.Count(journal.KindViewCreated, ""), "no orphan child was built")
}
