package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietEngine() *Engine {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestRunPending_FIFOIncludingNestedPosts(t *testing.T) {
	e := quietEngine()
	var order []int

	e.Post(func() {
		order = append(order, 1)
		e.Post(func() { order = append(order, 3) })
	})
	e.Post(func() { order = append(order, 2) })

	assert.Equal(t, 3, e.RunPending())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, e.Pending())
}

func TestRunPending_PanicIsContained(t *testing.T) {
	e := quietEngine()
	ran := false

	e.Post(func() { panic("boom") })
	e.Post(func() { ran = true })

	assert.Equal(t, 2, e.RunPending())
	assert.True(t, ran)
}

func TestPost_AfterStopFails(t *testing.T) {
	e := quietEngine()
	e.Stop()
	assert.False(t, e.Post(func() {}))
}

func TestRun_StopsOnCancel(t *testing.T) {
	e := quietEngine()
	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan struct{})
	e.Post(func() {
		close(ran)
		cancel()
	})

	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	<-ran
}

func TestRun_ReturnsAfterStop(t *testing.T) {
	e := quietEngine()
	e.Post(func() { e.Stop() })
	require.NoError(t, e.Run(context.Background()))
}

func TestFuture_AwaitRunsContinuationFromOtherGoroutine(t *testing.T) {
	e := quietEngine()
	f := NewFuture[string]()

	go func() {
		time.Sleep(5 * time.Millisecond)
		e.Post(func() { f.Resolve("ready", nil) })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := f.Await(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
}

func TestFuture_ResolveOnce(t *testing.T) {
	f := Resolved(1, nil)
	f.Resolve(2, nil)

	got, err := f.Await(context.Background(), quietEngine())
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestRunUntil_StoppedEngine(t *testing.T) {
	e := quietEngine()
	e.Stop()
	err := e.RunUntil(context.Background(), make(chan struct{}))
	assert.ErrorIs(t, err, ErrStopped)
}
