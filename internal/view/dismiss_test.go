package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewkit/internal/dom"
	"github.com/roach88/viewkit/internal/journal"
	"github.com/roach88/viewkit/internal/testutil"
)

func dismissType(t *testing.T, closes *int) *Type {
	t.Helper()
	return define(t, Definition{
		Name:      "Menu",
		Behaviors: []*Behavior{DismissListener},
		Methods: map[string]HandlerFunc{
			"close": func(*View, *Event) { *closes++ },
		},
	})
}

func TestDismiss_OutsideClickAndEscape(t *testing.T) {
	rt, _ := newRuntime(t)
	closes := 0
	v := rt.MustNew(dismissType(t, &closes), Options{El: ".guestbook"})
	require.NoError(t, v.AddDismissListener(Method("close")))

	testutil.Query(t, rt.Document(), "li").Click()
	testutil.Query(t, rt.Document(), ".guestbook").Click()
	assert.Zero(t, closes, "clicks inside the container do not dismiss")

	testutil.Query(t, rt.Document(), ".link").Click()
	assert.Equal(t, 1, closes)

	testutil.Query(t, rt.Document(), ".entryInput").KeyUp("a", 65)
	assert.Equal(t, 1, closes, "other keys do not dismiss")

	testutil.Query(t, rt.Document(), ".entryInput").KeyUp("Escape", dom.KeyEscape)
	assert.Equal(t, 2, closes)
}

func TestDismiss_ReAddingSameHandlerDoesNotDuplicate(t *testing.T) {
	rt, _ := newRuntime(t)
	closes := 0
	v := rt.MustNew(dismissType(t, &closes), Options{El: ".guestbook"})

	require.NoError(t, v.AddDismissListener(Method("close")))
	require.NoError(t, v.AddDismissListener(Method("close")))
	assert.Equal(t, 1, v.DismissListeners())
	assert.Len(t, v.Bindings(), 2)
	assert.Equal(t, 1, rt.Document().ListenerCount("click"))

	testutil.Query(t, rt.Document(), ".link").Click()
	assert.Equal(t, 1, closes)
}

func TestDismiss_DistinctHandlersCoexist(t *testing.T) {
	rt, _ := newRuntime(t)
	closes := 0
	v := rt.MustNew(dismissType(t, &closes), Options{El: ".guestbook"})
	extra := 0
	other := Named("other", func(*View, *Event) { extra++ })

	require.NoError(t, v.AddDismissListener(Method("close")))
	require.NoError(t, v.AddDismissListener(other))
	assert.Equal(t, 2, v.DismissListeners())

	testutil.Query(t, rt.Document(), ".link").Click()
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, extra)

	require.NoError(t, v.RemoveDismissListener(other))
	testutil.Query(t, rt.Document(), ".link").Click()
	assert.Equal(t, 2, closes)
	assert.Equal(t, 1, extra)
}

func TestDismiss_CustomContainer(t *testing.T) {
	rt, _ := newRuntime(t)
	closes := 0
	v := rt.MustNew(dismissType(t, &closes), Options{El: ".guestbook"})
	form := testutil.Query(t, rt.Document(), "form")

	require.NoError(t, v.AddDismissListener(Method("close"), WithContainer(form)))

	testutil.Query(t, rt.Document(), ".entryInput").Click()
	assert.Zero(t, closes)
	testutil.Query(t, rt.Document(), "li").Click()
	assert.Equal(t, 1, closes, "li is outside the form")
}

func TestDismiss_RemoveIsNoOpWhenAbsent(t *testing.T) {
	rt, _ := newRuntime(t)
	closes := 0
	v := rt.MustNew(dismissType(t, &closes), Options{El: ".guestbook"})

	assert.NoError(t, v.RemoveDismissListener(Method("close")))
	require.NoError(t, v.AddDismissListener(Method("close")))
	require.NoError(t, v.RemoveDismissListener(Method("close")))
	assert.NoError(t, v.RemoveDismissListener(Method("close")))

	assert.Zero(t, v.DismissListeners())
	assert.Empty(t, v.Bindings())
	assert.Zero(t, rt.Document().ListenerCount(""))
}

func TestDismiss_HandlerRemovingItselfMidDispatch(t *testing.T) {
	rt, _ := newRuntime(t)
	closes := 0
	typ := define(t, Definition{
		Behaviors: []*Behavior{DismissListener},
		Methods: map[string]HandlerFunc{
			"close": func(v *View, _ *Event) {
				closes++
				require.NoError(t, v.RemoveDismissListener(Method("close")))
			},
		},
	})
	v := rt.MustNew(typ, Options{El: ".guestbook"})
	require.NoError(t, v.AddDismissListener(Method("close")))

	testutil.Query(t, rt.Document(), ".link").Click()
	testutil.Query(t, rt.Document(), ".link").Click()
	assert.Equal(t, 1, closes)
	assert.Zero(t, rt.Document().ListenerCount(""))
}

func TestDismiss_ClearedOnRemove(t *testing.T) {
	rt, mem := newRuntime(t)
	closes := 0
	v := rt.MustNew(dismissType(t, &closes), Options{El: ".guestbook"})
	require.NoError(t, v.AddDismissListener(Method("close")))

	v.Remove()
	assert.Zero(t, v.DismissListeners())
	assert.Zero(t, rt.Document().ListenerCount(""))

	testutil.Query(t, rt.Document(), ".link").Click()
	assert.Zero(t, closes)

	assert.Equal(t, 1, mem.Count(journal.KindDismissAdded, v.ID()))
	assert.Equal(t, 1, mem.Count(journal.KindDismissRemoved, v.ID()))
}

func TestDismiss_RemoveEventsResetsDismissState(t *testing.T) {
	rt, _ := newRuntime(t)
	closes := 0
	v := rt.MustNew(dismissType(t, &closes), Options{El: ".guestbook"})
	require.NoError(t, v.AddDismissListener(Method("close")))

	v.RemoveEvents()
	assert.Zero(t, v.DismissListeners())

	require.NoError(t, v.AddDismissListener(Method("close")))
	testutil.Query(t, rt.Document(), ".link").Click()
	assert.Equal(t, 1, closes)
}

func TestDismiss_RequiresBehavior(t *testing.T) {
	rt, _ := newRuntime(t)
	v := rt.MustNew(define(t, Definition{}), Options{El: ".guestbook"})
	cb := Func(func(*View, *Event) {})

	err := v.AddDismissListener(cb)
	assert.True(t, HasCode(err, ErrCodeMissingBehavior))
	err = v.RemoveDismissListener(cb)
	assert.True(t, HasCode(err, ErrCodeMissingBehavior))
}

func TestDismiss_NeedsContainer(t *testing.T) {
	rt, _ := newRuntime(t)
	closes := 0
	v := rt.MustNew(dismissType(t, &closes), Options{})

	err := v.AddDismissListener(Method("close"))
	assert.True(t, HasCode(err, ErrCodeInvalidEventSpec))
	assert.Empty(t, v.Bindings())
}
