// Package temporal 实现时间取值的序列化插件。
//
// 四种变体共用同一种线上形态，由类型提示区分：
//
//	{"javaClass": "java.sql.Timestamp", "time_str": "2024-03-15 13:45:02 007"}
package temporal

import (
	"reflect"
	"time"

	"github.com/lk2023060901/typebridge/pkg/bridge"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

// TimeField 是承载时间文本的字段名。
const TimeField = "time_str"

var (
	_ bridge.Serializer = (*Serializer)(nil)
	_ bridge.Named      = (*Serializer)(nil)
)

var nativeTypes = func() []reflect.Type {
	types := make([]reflect.Type, 0, 2*len(Kinds()))
	for _, k := range Kinds() {
		types = append(types, k.Type())
	}
	for _, k := range Kinds() {
		types = append(types, reflect.PointerTo(k.Type()))
	}
	return types
}()

// Serializer 是时间插件。它没有可变状态，可被多个调用树并发使用。
type Serializer struct {
	loc *time.Location
}

// Option 用于配置时间插件。
type Option func(ser *Serializer)

// WithLocation 设置格式化与解析所用的时区，默认 UTC。
func WithLocation(loc *time.Location) Option {
	return func(ser *Serializer) {
		if loc != nil {
			ser.loc = loc
		}
	}
}

func NewSerializer(opts ...Option) *Serializer {
	ser := &Serializer{loc: time.UTC}
	for _, o := range opts {
		o(ser)
	}
	return ser
}

func (ser *Serializer) Name() string {
	return "temporal"
}

// Location 返回插件使用的时区。
func (ser *Serializer) Location() *time.Location {
	return ser.loc
}

func (ser *Serializer) NativeTypes() []reflect.Type {
	return append([]reflect.Type(nil), nativeTypes...)
}

func (ser *Serializer) WireShapes() []wire.Shape {
	return []wire.Shape{wire.ObjectWith(TimeField)}
}

// Marshall 总是写入类型提示，因为四种变体的线上形态相同。
func (ser *Serializer) Marshall(s *bridge.State, parent any, v any) (*wire.Value, error) {
	val, ok := asValue(v)
	if !ok {
		return nil, merr.WrapErrMarshall(v, "not a temporal value")
	}
	text, err := formatText(val.Time(), ser.loc)
	if err != nil {
		return nil, merr.WrapErrMarshallWithCause(err, v)
	}

	w := wire.Object().
		Set(bridge.TypeHintField, wire.String(val.Kind().Hint())).
		Set(TimeField, wire.String(text))
	s.Resolve(v, w)
	return w, nil
}

// TryUnmarshall 只在对象携带可识别的类型提示与合法的时间文本时返回 MatchOkay。
func (ser *Serializer) TryUnmarshall(s *bridge.State, typ reflect.Type, w *wire.Value) (bridge.Match, error) {
	if !w.IsObject() {
		return bridge.MatchNone, nil
	}
	if !w.Has(bridge.TypeHintField) {
		return bridge.MatchNone, merr.WrapErrUnmarshall(bridge.TypeHintField, nil, "type hint missing")
	}
	if _, _, err := ser.decode(typ, w); err != nil {
		return bridge.MatchNone, err
	}
	return bridge.MatchOkay, nil
}

// Unmarshall 优先使用线上类型提示；没有提示时 typ 必须是四种具体变体之一。
func (ser *Serializer) Unmarshall(s *bridge.State, typ reflect.Type, w *wire.Value) (any, error) {
	k, t, err := ser.decode(typ, w)
	if err != nil {
		return nil, err
	}
	v, _ := New(k, t)
	s.ResolveNode(w, v)
	return v, nil
}

// decode 解析变体与时间，失败时不产生任何取值。
func (ser *Serializer) decode(typ reflect.Type, w *wire.Value) (Kind, time.Time, error) {
	if !w.IsObject() {
		return 0, time.Time{}, merr.WrapErrUnmarshall("shape", w.Kind().String(), "object expected")
	}

	var k Kind
	if hintValue, ok := w.Get(bridge.TypeHintField); ok {
		hint, ok := hintValue.AsString()
		if !ok {
			return 0, time.Time{}, merr.WrapErrUnmarshall(bridge.TypeHintField, hintValue.String(), "type hint is not a string")
		}
		if k, ok = ParseKind(hint); !ok {
			return 0, time.Time{}, merr.WrapErrUnmarshall(bridge.TypeHintField, hint, "unknown type hint")
		}
	} else {
		var ok bool
		if k, ok = KindOf(typ); !ok {
			return 0, time.Time{}, merr.WrapErrUnmarshall("type", typeName(typ), "no type hint and requested type is not a concrete temporal type")
		}
	}

	field, ok := w.Get(TimeField)
	if !ok {
		return 0, time.Time{}, merr.WrapErrUnmarshall(TimeField, nil, "field missing")
	}
	text, ok := field.AsString()
	if !ok {
		return 0, time.Time{}, merr.WrapErrUnmarshall(TimeField, field.String(), "field is not a string")
	}
	t, err := parseText(text, ser.loc)
	if err != nil {
		return 0, time.Time{}, merr.WrapErrUnmarshall(TimeField, text, err.Error())
	}
	return k, t, nil
}

// asValue 接受四种变体及其非 nil 指针。
func asValue(v any) (Value, bool) {
	if _, ok := KindOf(reflect.TypeOf(v)); !ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	val, ok := rv.Interface().(Value)
	return val, ok
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<any>"
	}
	return t.String()
}
