package bridge

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/typebridge/pkg/metrics"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

type BridgeSuite struct {
	suite.Suite

	ctx    context.Context
	bridge *Bridge
}

func (s *BridgeSuite) SetupTest() {
	s.ctx = context.Background()
	b, err := New(WithSerializers(nodeSerializer{}))
	s.Require().NoError(err)
	s.bridge = b
}

func (s *BridgeSuite) TearDownTest() {
	s.bridge.Close()
}

func (s *BridgeSuite) TestRoundTrip() {
	data, err := s.bridge.MarshallJSON(s.ctx, chain(3))
	s.Require().NoError(err)
	s.Equal(`{"label":"a","next":{"label":"b","next":{"label":"c","next":null}}}`, string(data))

	var out *node
	s.Require().NoError(s.bridge.UnmarshallJSON(s.ctx, data, &out))
	s.Equal(chain(3), out)
}

func (s *BridgeSuite) TestNil() {
	w, err := s.bridge.Marshall(s.ctx, nil)
	s.Require().NoError(err)
	s.True(w.IsNull())

	v, err := s.bridge.Unmarshall(s.ctx, nodeType, wire.Null())
	s.Require().NoError(err)
	s.Nil(v.(*node))

	_, err = s.bridge.Unmarshall(s.ctx, reflect.TypeOf(0), wire.Null())
	s.ErrorIs(err, merr.ErrUnmarshall)
}

func (s *BridgeSuite) TestCircularReference() {
	loop := &node{label: "loop"}
	loop.next = loop
	_, err := s.bridge.Marshall(s.ctx, loop)
	s.ErrorIs(err, merr.ErrCircularReference)
}

func (s *BridgeSuite) TestMaxDepth() {
	b, err := New(WithSerializers(nodeSerializer{}), WithMaxDepth(3))
	s.Require().NoError(err)
	defer b.Close()

	_, err = b.Marshall(s.ctx, chain(3))
	s.NoError(err)
	_, err = b.Marshall(s.ctx, chain(4))
	s.ErrorIs(err, merr.ErrMaxDepthExceeded)

	w, err := s.bridge.Marshall(s.ctx, chain(4))
	s.Require().NoError(err)
	_, err = b.Unmarshall(s.ctx, nodeType, w)
	s.ErrorIs(err, merr.ErrMaxDepthExceeded)

	_, err = New(WithMaxDepth(-1))
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *BridgeSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.bridge.Marshall(ctx, chain(1))
	s.ErrorIs(err, context.Canceled)
	s.True(merr.IsCanceledOrTimeout(err))
}

func (s *BridgeSuite) TestSerializerNotFound() {
	_, err := s.bridge.Marshall(s.ctx, 1.5)
	s.ErrorIs(err, merr.ErrSerializerNotFound)

	_, err = s.bridge.Unmarshall(s.ctx, nil, wire.String("x"))
	s.ErrorIs(err, merr.ErrNoMatch)
}

func (s *BridgeSuite) TestUnmarshallInto() {
	w, err := s.bridge.Marshall(s.ctx, chain(1))
	s.Require().NoError(err)

	var n node
	s.Require().NoError(s.bridge.UnmarshallInto(s.ctx, w, &n))
	s.Equal("a", n.label)

	s.ErrorIs(s.bridge.UnmarshallInto(s.ctx, w, n), merr.ErrParameterInvalid)
	s.ErrorIs(s.bridge.UnmarshallInto(s.ctx, w, (*node)(nil)), merr.ErrParameterInvalid)

	var wrong string
	s.Error(s.bridge.UnmarshallInto(s.ctx, w, &wrong))

	s.ErrorIs(s.bridge.UnmarshallJSON(s.ctx, []byte(`{"label":`), &n), merr.ErrUnmarshall)
}

func (s *BridgeSuite) TestBatch() {
	values := make([]any, 0, 32)
	for i := 1; i <= 32; i++ {
		values = append(values, chain(i%5+1))
	}
	ws, err := s.bridge.MarshallAll(s.ctx, values)
	s.Require().NoError(err)
	s.Len(ws, len(values))

	out, err := s.bridge.UnmarshallAll(s.ctx, nodeType, ws)
	s.Require().NoError(err)
	for i := range values {
		s.Equal(values[i], out[i])
	}

	_, err = s.bridge.MarshallAll(s.ctx, []any{chain(1), 1.5})
	s.ErrorIs(err, merr.ErrSerializerNotFound)
}

func (s *BridgeSuite) TestBatchAfterClose() {
	unused, err := New(WithSerializers(nodeSerializer{}))
	s.Require().NoError(err)
	unused.Close()
	_, err = unused.MarshallAll(s.ctx, []any{chain(1)})
	s.ErrorIs(err, merr.ErrOperationNotSupported)

	used, err := New(WithSerializers(nodeSerializer{}))
	s.Require().NoError(err)
	ws, err := used.MarshallAll(s.ctx, []any{chain(2)})
	s.Require().NoError(err)
	used.Close()
	used.Close()

	_, err = used.MarshallAll(s.ctx, []any{chain(1)})
	s.ErrorIs(err, merr.ErrOperationNotSupported)
	_, err = used.UnmarshallAll(s.ctx, nodeType, ws)
	s.ErrorIs(err, merr.ErrOperationNotSupported)

	// 单值接口不依赖协程池
	v, err := used.Unmarshall(s.ctx, nodeType, ws[0])
	s.Require().NoError(err)
	s.Equal(chain(2), v)
}

func (s *BridgeSuite) TestBatchPoolOptions() {
	b, err := New(WithSerializers(nodeSerializer{}),
		WithBatchWorkers(1), WithBatchNonBlocking(true), WithBatchExpiry(time.Second))
	s.Require().NoError(err)
	defer b.Close()

	ws, err := b.MarshallAll(s.ctx, []any{chain(3)})
	s.Require().NoError(err)
	s.Len(ws, 1)

	_, err = New(WithBatchExpiry(-time.Second))
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *BridgeSuite) TestMetrics() {
	success := metrics.BridgeOperations.WithLabelValues(metrics.MarshallLabel, metrics.SuccessLabel)
	fail := metrics.BridgeOperations.WithLabelValues(metrics.MarshallLabel, metrics.FailLabel)
	before, beforeFail := testutil.ToFloat64(success), testutil.ToFloat64(fail)

	_, err := s.bridge.Marshall(s.ctx, chain(1))
	s.Require().NoError(err)
	_, err = s.bridge.Marshall(s.ctx, 1.5)
	s.Require().Error(err)

	s.Equal(before+1, testutil.ToFloat64(success))
	s.Equal(beforeFail+1, testutil.ToFloat64(fail))
}

func TestBridge(t *testing.T) {
	suite.Run(t, new(BridgeSuite))
}

func TestStateIsolation(t *testing.T) {
	b, err := New(WithSerializers(nodeSerializer{}))
	require.NoError(t, err)
	defer b.Close()

	n := chain(2)
	s1 := NewState(context.Background(), b)
	s2 := NewState(context.Background(), b)

	w1, err := s1.Marshall(nil, n)
	require.NoError(t, err)
	again, err := s1.Marshall(nil, n)
	require.NoError(t, err)
	assert.Same(t, w1, again)

	w2, err := s2.Marshall(nil, n)
	require.NoError(t, err)
	assert.NotSame(t, w1, w2)
	assert.True(t, wire.Equal(w1, w2))
	assert.Equal(t, 0, s1.Depth())
	assert.Equal(t, context.Background(), s1.Context())
}
