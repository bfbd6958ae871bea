package bridge

import (
	"context"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lk2023060901/typebridge/pkg/log"
	"github.com/lk2023060901/typebridge/pkg/metrics"
	"github.com/lk2023060901/typebridge/pkg/util/conc"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

const tracerName = "github.com/lk2023060901/typebridge/pkg/bridge"

// Bridge 是驱动：遍历原生对象图并递归调用插件。
//
// Bridge 可被多个协程并发使用，每次顶层调用都会创建独立的 State。
type Bridge struct {
	opt      *bridgeOption
	registry *Registry
	tracer   trace.Tracer

	poolMu sync.Mutex
	pool   *conc.Pool[any]
	closed bool
}

// New 创建 Bridge，并按顺序注册 WithSerializers 传入的插件。
func New(opts ...Option) (*Bridge, error) {
	opt := defaultBridgeOption()
	for _, o := range opts {
		o(opt)
	}
	if opt.maxDepth < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("max depth must not be negative, got %d", opt.maxDepth)
	}
	if opt.batchExpiry < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("batch expiry must not be negative, got %s", opt.batchExpiry)
	}

	registry := opt.registry
	if registry == nil {
		registry = NewRegistry()
	}
	for _, ser := range opt.serializers {
		if err := registry.Register(ser); err != nil {
			return nil, err
		}
	}

	return &Bridge{
		opt:      opt,
		registry: registry,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// Registry 返回 Bridge 使用的插件注册表。
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// Close 释放批量接口使用的协程池。关闭后批量接口返回 merr.ErrOperationNotSupported，
// 单值接口不受影响。重复调用是安全的。
func (b *Bridge) Close() {
	b.poolMu.Lock()
	pool := b.pool
	b.pool, b.closed = nil, true
	b.poolMu.Unlock()

	if pool != nil {
		pool.Release()
	}
}

// Marshall 将原生值转换为线上取值。
func (b *Bridge) Marshall(ctx context.Context, v any) (w *wire.Value, err error) {
	ctx, span := b.tracer.Start(ctx, "Bridge.Marshall")
	defer span.End()
	defer b.observe(ctx, span, metrics.MarshallLabel, time.Now(), &err)

	w, err = NewState(ctx, b).Marshall(nil, v)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Unmarshall 将线上取值转换为 typ 类型的原生值。typ 为 nil 时完全由线上形态与类型提示决定。
func (b *Bridge) Unmarshall(ctx context.Context, typ reflect.Type, w *wire.Value) (v any, err error) {
	ctx, span := b.tracer.Start(ctx, "Bridge.Unmarshall",
		trace.WithAttributes(attribute.String("target", typeString(typ))))
	defer span.End()
	defer b.observe(ctx, span, metrics.UnmarshallLabel, time.Now(), &err)

	v, err = NewState(ctx, b).Unmarshall(typ, w)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UnmarshallInto 将线上取值反序列化到 ptr 指向的变量。
func (b *Bridge) UnmarshallInto(ctx context.Context, w *wire.Value, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return merr.WrapErrParameterInvalidMsg("unmarshall target must be a non-nil pointer, got %T", ptr)
	}
	v, err := b.Unmarshall(ctx, rv.Type().Elem(), w)
	if err != nil {
		return err
	}
	return assign(rv.Elem(), v)
}

// MarshallJSON 将原生值序列化为 JSON 文本。
func (b *Bridge) MarshallJSON(ctx context.Context, v any) ([]byte, error) {
	w, err := b.Marshall(ctx, v)
	if err != nil {
		return nil, err
	}
	return wire.Print(w)
}

// UnmarshallJSON 解析 JSON 文本并反序列化到 ptr 指向的变量。
func (b *Bridge) UnmarshallJSON(ctx context.Context, data []byte, ptr any) error {
	w, err := wire.Parse(data)
	if err != nil {
		return merr.WrapErrUnmarshallReason(err.Error(), "parse json")
	}
	return b.UnmarshallInto(ctx, w, ptr)
}

// MarshallAll 在协程池上并发序列化一组互不相关的取值，结果顺序与输入一致。
// 任一元素失败时返回第一个错误。
func (b *Bridge) MarshallAll(ctx context.Context, values []any) ([]*wire.Value, error) {
	pool, err := b.getPool()
	if err != nil {
		return nil, err
	}
	metrics.BridgeBatchSize.WithLabelValues(metrics.MarshallLabel).Observe(float64(len(values)))
	futures := make([]*conc.Future[any], 0, len(values))
	for _, v := range values {
		v := v
		futures = append(futures, pool.Submit(func() (any, error) {
			return b.Marshall(ctx, v)
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		return nil, err
	}
	out := make([]*wire.Value, len(futures))
	for i, f := range futures {
		out[i] = f.Value().(*wire.Value)
	}
	return out, nil
}

// UnmarshallAll 在协程池上并发反序列化一组互不相关的线上取值。
func (b *Bridge) UnmarshallAll(ctx context.Context, typ reflect.Type, ws []*wire.Value) ([]any, error) {
	pool, err := b.getPool()
	if err != nil {
		return nil, err
	}
	metrics.BridgeBatchSize.WithLabelValues(metrics.UnmarshallLabel).Observe(float64(len(ws)))
	futures := make([]*conc.Future[any], 0, len(ws))
	for _, w := range ws {
		w := w
		futures = append(futures, pool.Submit(func() (any, error) {
			return b.Unmarshall(ctx, typ, w)
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		return nil, err
	}
	out := make([]any, len(futures))
	for i, f := range futures {
		out[i] = f.Value()
	}
	return out, nil
}

func (b *Bridge) getPool() (*conc.Pool[any], error) {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()
	if b.closed {
		return nil, merr.WrapErrOperationNotSupported("batch", "bridge is closed")
	}
	if b.pool == nil {
		b.pool = conc.NewPool[any](b.opt.batchWorkers,
			conc.WithNonBlocking(b.opt.batchNonBlocking),
			conc.WithExpiryDuration(b.opt.batchExpiry),
			conc.WithConcealPanic(true),
			conc.WithPanicHandler(func(v any) {
				b.registry.Logger().Error("batch task panicked", zap.Any("panic", v))
			}),
		)
	}
	return b.pool, nil
}

func (b *Bridge) observe(ctx context.Context, span trace.Span, direction string, start time.Time, err *error) {
	metrics.BridgeOperationLatency.WithLabelValues(direction).
		Observe(float64(time.Since(start).Microseconds()) / 1000)
	if *err == nil {
		metrics.BridgeOperations.WithLabelValues(direction, metrics.SuccessLabel).Inc()
		return
	}
	metrics.BridgeOperations.WithLabelValues(direction, metrics.FailLabel).Inc()
	span.RecordError(*err)
	span.SetStatus(codes.Error, (*err).Error())
	log.Ctx(ctx).Debug("bridge call failed", log.FieldDirection(direction), zap.Error(*err))
}

func (b *Bridge) marshall(s *State, parent any, v any) (*wire.Value, error) {
	if isNil(v) {
		return wire.Null(), nil
	}
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.exit()

	if w, ok, err := s.lookupMarshalled(v); err != nil || ok {
		return w, err
	}
	typ := reflect.TypeOf(v)
	ser, ok := b.registry.ForType(typ)
	if !ok {
		return nil, merr.WrapErrSerializerNotFound(typ.String(), "marshall")
	}
	w, err := ser.Marshall(s, parent, v)
	if err != nil {
		return nil, err
	}
	s.Resolve(v, w)
	return w, nil
}

func (b *Bridge) unmarshall(s *State, typ reflect.Type, w *wire.Value) (any, error) {
	if w.IsNull() {
		return nullFor(typ)
	}
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.exit()

	if v, ok, err := s.lookupUnmarshalled(w); err != nil {
		return nil, err
	} else if ok {
		if out, err := adapt(v, typ); err == nil {
			return out, nil
		}
	}

	ser, m, err := b.registry.Select(s, typ, w)
	if err != nil {
		return nil, err
	}
	metrics.BridgeMatches.WithLabelValues(m.Grade.String(), NameOf(ser)).Inc()

	v, err := ser.Unmarshall(s, typ, w)
	if err != nil {
		return nil, err
	}
	s.ResolveNode(w, v)
	return adapt(v, typ)
}

func (b *Bridge) tryUnmarshall(s *State, typ reflect.Type, w *wire.Value) (Match, error) {
	if w.IsNull() {
		if _, err := nullFor(typ); err != nil {
			return MatchNone, nil
		}
		return MatchExact, nil
	}
	if err := s.enter(); err != nil {
		return MatchNone, err
	}
	defer s.exit()

	if w.IsObject() || w.IsArray() {
		if m, seen := s.visit(w); seen {
			return m, nil
		}
		defer s.leave(w)
	}

	_, m, err := b.registry.Select(s, typ, w)
	if err != nil {
		return MatchNone, err
	}
	return m, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// nullFor 返回 null 对应的原生取值：只有可为 nil 的类型才接受 null。
func nullFor(typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, nil
	}
	switch typ.Kind() {
	case reflect.Interface:
		return nil, nil
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return reflect.Zero(typ).Interface(), nil
	default:
		return nil, merr.WrapErrUnmarshall("null", typ.String(), "type is not nullable")
	}
}

// adapt 将插件返回的取值调整为请求类型：补上或去掉一层指针。
func adapt(v any, typ reflect.Type) (any, error) {
	if typ == nil || v == nil {
		return v, nil
	}
	vt := reflect.TypeOf(v)
	if vt.AssignableTo(typ) {
		return v, nil
	}
	if typ.Kind() == reflect.Pointer && vt.AssignableTo(typ.Elem()) {
		ptr := reflect.New(typ.Elem())
		ptr.Elem().Set(reflect.ValueOf(v))
		return ptr.Interface(), nil
	}
	if vt.Kind() == reflect.Pointer && vt.Elem().AssignableTo(typ) {
		return reflect.ValueOf(v).Elem().Interface(), nil
	}
	return nil, merr.WrapErrUnmarshall("type", vt.String(), "cannot assign to "+typ.String())
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	out, err := adapt(v, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(reflect.ValueOf(out))
	return nil
}
