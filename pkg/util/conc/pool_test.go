package conc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	ants "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmit(t *testing.T) {
	pool := NewPool[int](4)
	defer pool.Release()

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.True(t, f.Done())
		assert.True(t, f.OK())
		assert.Equal(t, i*i, f.Value())
	}
	assert.Equal(t, 4, pool.Cap())
}

func TestPoolSubmitError(t *testing.T) {
	pool := NewPool[string](2)
	defer pool.Release()

	boom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "ok", nil })
	bad := pool.Submit(func() (string, error) { return "ignored", boom })

	_, err := bad.Await()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "", bad.Value())
	assert.ErrorIs(t, AwaitAll(ok, bad), boom)
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](1, WithConcealPanic(true))
	defer pool.Release()

	f := pool.Submit(func() (int, error) { panic("bad task") })
	assert.Error(t, f.Err())

	// worker 仍然可用
	f = pool.Submit(func() (int, error) { return 1, nil })
	assert.Equal(t, 1, f.Value())
}

func TestPoolPreHandlerAndResize(t *testing.T) {
	var called atomic.Int32
	pool := NewPool[int](1, WithPreHandler(func() { called.Add(1) }))
	defer pool.Release()

	require.NoError(t, pool.Submit(func() (int, error) { return 0, nil }).Err())
	assert.EqualValues(t, 1, called.Load())

	require.NoError(t, pool.Resize(3))
	assert.Equal(t, 3, pool.Cap())
	assert.Error(t, pool.Resize(0))

	pre := NewPool[int](1, WithPreAlloc(true))
	defer pre.Release()
	assert.Error(t, pre.Resize(2))
}

func TestPoolPanicHandler(t *testing.T) {
	var got atomic.Value
	pool := NewPool[int](1, WithConcealPanic(true), WithPanicHandler(func(v any) { got.Store(v) }))
	defer pool.Release()

	f := pool.Submit(func() (int, error) { panic("bad task") })
	assert.Error(t, f.Err())
	assert.Eventually(t, func() bool { return got.Load() == "bad task" }, time.Second, 10*time.Millisecond)
}

func TestPoolNonBlocking(t *testing.T) {
	pool := NewPool[int](1, WithNonBlocking(true), WithExpiryDuration(time.Second))
	defer pool.Release()

	block := make(chan struct{})
	first := pool.Submit(func() (int, error) {
		<-block
		return 1, nil
	})
	second := pool.Submit(func() (int, error) { return 2, nil })
	assert.ErrorIs(t, second.Err(), ants.ErrPoolOverload)

	close(block)
	assert.Equal(t, 1, first.Value())
}
