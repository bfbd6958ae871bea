// Package primitive 处理字符串、布尔与数值这些不需要类型提示的取值。
package primitive

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/lk2023060901/typebridge/pkg/bridge"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

var (
	_ bridge.Serializer = (*Serializer)(nil)
	_ bridge.Named      = (*Serializer)(nil)
)

var nativeTypes = []reflect.Type{
	reflect.TypeOf(""),
	reflect.TypeOf(false),
	reflect.TypeOf(int(0)),
	reflect.TypeOf(int8(0)),
	reflect.TypeOf(int16(0)),
	reflect.TypeOf(int32(0)),
	reflect.TypeOf(int64(0)),
	reflect.TypeOf(uint(0)),
	reflect.TypeOf(uint8(0)),
	reflect.TypeOf(uint16(0)),
	reflect.TypeOf(uint32(0)),
	reflect.TypeOf(uint64(0)),
	reflect.TypeOf(float32(0)),
	reflect.TypeOf(float64(0)),
}

// Serializer 处理基础类型。线上为对应的 JSON 原始值，不携带类型提示。
//
// 数值按请求类型精确转换，溢出或带小数的数字转换为整数时报错；
// 请求类型为空或接口时，整数解码为 int64，其余数字解码为 float64。
type Serializer struct{}

func NewSerializer() *Serializer {
	return &Serializer{}
}

func (ser *Serializer) Name() string {
	return "primitive"
}

func (ser *Serializer) NativeTypes() []reflect.Type {
	return append([]reflect.Type(nil), nativeTypes...)
}

func (ser *Serializer) WireShapes() []wire.Shape {
	return []wire.Shape{
		wire.ShapeOf(wire.KindString),
		wire.ShapeOf(wire.KindNumber),
		wire.ShapeOf(wire.KindBoolean),
	}
}

// Claims 认领底层类型为基础类型的具名类型。
func (ser *Serializer) Claims(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (ser *Serializer) Marshall(s *bridge.State, parent any, v any) (*wire.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, merr.WrapErrMarshall(v, "nil is not a primitive")
	}
	switch rv.Kind() {
	case reflect.String:
		return wire.String(rv.String()), nil
	case reflect.Bool:
		return wire.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return wire.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return wire.Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, merr.WrapErrMarshall(v, "NaN and Inf have no wire form")
		}
		if rv.Kind() == reflect.Float32 {
			return mustNumber(strconv.FormatFloat(f, 'g', -1, 32)), nil
		}
		return wire.Float(f), nil
	default:
		return nil, merr.WrapErrMarshall(v, "not a primitive")
	}
}

// TryUnmarshall 在线上类型与请求类型一致时返回 MatchExact；
// 数字字符串转换为数值、或字符串 "true"/"false" 转换为布尔时返回 MatchOkay。
func (ser *Serializer) TryUnmarshall(s *bridge.State, typ reflect.Type, w *wire.Value) (bridge.Match, error) {
	target, ok := ser.target(typ, w)
	if !ok {
		return bridge.MatchNone, nil
	}
	if _, err := convert(target, w); err != nil {
		return bridge.MatchNone, err
	}
	if w.Kind() == wire.KindString && target.Kind() != reflect.String {
		return bridge.MatchOkay, nil
	}
	return bridge.MatchExact, nil
}

func (ser *Serializer) Unmarshall(s *bridge.State, typ reflect.Type, w *wire.Value) (any, error) {
	target, ok := ser.target(typ, w)
	if !ok {
		return nil, merr.WrapErrUnmarshall("shape", w.Kind().String(), "cannot decode into "+typeName(typ))
	}
	rv, err := convert(target, w)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// target 解析实际要构造的类型；线上形态与请求类型不可能兼容时返回 false。
func (ser *Serializer) target(typ reflect.Type, w *wire.Value) (reflect.Type, bool) {
	if typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() == reflect.Interface {
		var natural reflect.Type
		switch w.Kind() {
		case wire.KindString:
			natural = nativeTypes[0]
		case wire.KindBoolean:
			natural = nativeTypes[1]
		case wire.KindNumber:
			lit, _ := w.AsNumber()
			natural = reflect.TypeOf(float64(0))
			if isIntegerLiteral(lit) {
				if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
					natural = reflect.TypeOf(int64(0))
				}
			}
		default:
			return nil, false
		}
		if typ != nil && !natural.AssignableTo(typ) {
			return nil, false
		}
		return natural, true
	}
	if !ser.Claims(typ) {
		return nil, false
	}
	switch w.Kind() {
	case wire.KindString:
		return typ, true
	case wire.KindBoolean:
		return typ, typ.Kind() == reflect.Bool
	case wire.KindNumber:
		return typ, typ.Kind() != reflect.String && typ.Kind() != reflect.Bool
	default:
		return nil, false
	}
}

// convert 将 w 转换为 target 类型的取值，溢出与格式错误返回 merr.ErrUnmarshall。
func convert(target reflect.Type, w *wire.Value) (reflect.Value, error) {
	out := reflect.New(target).Elem()
	var text string
	switch w.Kind() {
	case wire.KindBoolean:
		b, _ := w.AsBool()
		out.SetBool(b)
		return out, nil
	case wire.KindString:
		text, _ = w.AsString()
		if target.Kind() == reflect.String {
			out.SetString(text)
			return out, nil
		}
	case wire.KindNumber:
		text, _ = w.AsNumber()
	default:
		return out, merr.WrapErrUnmarshall("shape", w.Kind().String(), "primitive expected")
	}

	switch target.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil || (text != "true" && text != "false") {
			return out, merr.WrapErrUnmarshall("bool", text, "not a boolean")
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !isIntegerLiteral(text) {
			return out, merr.WrapErrUnmarshall("int", text, "not an integer")
		}
		i, err := strconv.ParseInt(text, 10, target.Bits())
		if err != nil {
			return out, merr.WrapErrUnmarshall("int", text, "overflows "+target.String())
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !isIntegerLiteral(text) || strings.HasPrefix(text, "-") {
			return out, merr.WrapErrUnmarshall("uint", text, "not an unsigned integer")
		}
		u, err := strconv.ParseUint(text, 10, target.Bits())
		if err != nil {
			return out, merr.WrapErrUnmarshall("uint", text, "overflows "+target.String())
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		if _, err := wire.Number(text); err != nil {
			return out, merr.WrapErrUnmarshall("float", text, "not a number")
		}
		f, err := strconv.ParseFloat(text, target.Bits())
		if err != nil {
			return out, merr.WrapErrUnmarshall("float", text, "overflows "+target.String())
		}
		out.SetFloat(f)
	default:
		return out, merr.WrapErrUnmarshall("type", target.String(), "not a primitive type")
	}
	return out, nil
}

// isIntegerLiteral 判断文本是否为不带小数与指数的十进制整数。
func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func mustNumber(lit string) *wire.Value {
	v, err := wire.Number(lit)
	if err != nil {
		panic(err)
	}
	return v
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<any>"
	}
	return t.String()
}
