// Package collection 实现列表与字符串键映射的序列化插件。
//
// 两者都使用带类型提示的对象形态，元素通过驱动递归处理，因此共享同一调用树的身份表。
package collection

import (
	"reflect"

	"github.com/samber/lo"

	"github.com/lk2023060901/typebridge/pkg/bridge"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/util/typeutil"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

const (
	// ListField 是承载列表元素的字段名。
	ListField = "list"
	// ListHint 是序列化时写入的列表类型提示。
	ListHint = "java.util.ArrayList"
)

// listHints 是反序列化时接受的列表类型提示。
var listHints = []string{ListHint, "java.util.LinkedList", "java.util.Vector", "java.util.List"}

var (
	_ bridge.Serializer = (*ListSerializer)(nil)
	_ bridge.Claimer    = (*ListSerializer)(nil)

	anySliceType = typeutil.TypeOf[[]any]()
)

// ListSerializer 处理切片：{"javaClass":"java.util.ArrayList","list":[...]}。
type ListSerializer struct{}

func NewListSerializer() *ListSerializer {
	return &ListSerializer{}
}

func (ser *ListSerializer) Name() string {
	return "list"
}

func (ser *ListSerializer) NativeTypes() []reflect.Type {
	return []reflect.Type{anySliceType}
}

func (ser *ListSerializer) WireShapes() []wire.Shape {
	return []wire.Shape{wire.ObjectWith(ListField)}
}

// Claims 认领所有切片类型。
func (ser *ListSerializer) Claims(t reflect.Type) bool {
	return t.Kind() == reflect.Slice
}

func (ser *ListSerializer) Marshall(s *bridge.State, parent any, v any) (*wire.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, merr.WrapErrMarshall(v, "not a slice")
	}
	s.Enter(v)

	items := wire.Array()
	for i := 0; i < rv.Len(); i++ {
		item, err := s.Marshall(v, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		items.Append(item)
	}
	w := wire.Object().
		Set(bridge.TypeHintField, wire.String(ListHint)).
		Set(ListField, items)
	s.Resolve(v, w)
	return w, nil
}

// TryUnmarshall 以最差的元素匹配作为整体结果；请求类型为具体切片时基础等级为 MatchExact。
func (ser *ListSerializer) TryUnmarshall(s *bridge.State, typ reflect.Type, w *wire.Value) (bridge.Match, error) {
	sliceType, ok := ser.target(typ)
	if !ok || !w.IsObject() {
		return bridge.MatchNone, nil
	}
	items, err := listItems(w)
	if err != nil {
		return bridge.MatchNone, err
	}

	m := bridge.MatchExact
	if typeutil.IsAbstract(typ) {
		m = bridge.MatchOkay
	}
	elemType := elemTypeOf(sliceType)
	for _, item := range items.Items() {
		im, err := s.TryUnmarshall(elemType, item)
		if err != nil {
			return bridge.MatchNone, err
		}
		if !im.Positive() {
			return bridge.MatchNone, nil
		}
		m = m.Min(im)
	}
	return m, nil
}

func (ser *ListSerializer) Unmarshall(s *bridge.State, typ reflect.Type, w *wire.Value) (any, error) {
	sliceType, ok := ser.target(typ)
	if !ok {
		return nil, merr.WrapErrUnmarshall("type", typeName(typ), "not a slice type")
	}
	items, err := listItems(w)
	if err != nil {
		return nil, err
	}
	s.EnterNode(w)

	elemType := elemTypeOf(sliceType)
	out := reflect.MakeSlice(sliceType, 0, items.Len())
	for _, item := range items.Items() {
		v, err := s.Unmarshall(elemType, item)
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, elemValue(sliceType.Elem(), v))
	}
	result := out.Interface()
	s.ResolveNode(w, result)
	return result, nil
}

// target 返回要构造的切片类型：请求类型为空或接口时使用 []any。
func (ser *ListSerializer) target(typ reflect.Type) (reflect.Type, bool) {
	typ = typeutil.Indirect(typ)
	if typeutil.IsAbstract(typ) {
		return anySliceType, typeutil.Assignable(anySliceType, typ)
	}
	return typ, typ.Kind() == reflect.Slice
}

func listItems(w *wire.Value) (*wire.Value, error) {
	if !w.IsObject() {
		return nil, merr.WrapErrUnmarshall("shape", w.Kind().String(), "object expected")
	}
	if err := checkHint(w, listHints); err != nil {
		return nil, err
	}
	items, ok := w.Get(ListField)
	if !ok {
		return nil, merr.WrapErrUnmarshall(ListField, nil, "field missing")
	}
	if !items.IsArray() {
		return nil, merr.WrapErrUnmarshall(ListField, items.Kind().String(), "array expected")
	}
	return items, nil
}

// checkHint 要求对象携带 accepted 之一的类型提示。
func checkHint(w *wire.Value, accepted []string) error {
	hintValue, ok := w.Get(bridge.TypeHintField)
	if !ok {
		return merr.WrapErrUnmarshall(bridge.TypeHintField, nil, "type hint missing")
	}
	hint, ok := hintValue.AsString()
	if !ok {
		return merr.WrapErrUnmarshall(bridge.TypeHintField, hintValue.String(), "type hint is not a string")
	}
	if !lo.Contains(accepted, hint) {
		return merr.WrapErrUnmarshall(bridge.TypeHintField, hint, "unknown type hint")
	}
	return nil
}

// elemTypeOf 返回递归时请求的元素类型，any 元素以 nil 表示完全由线上决定。
func elemTypeOf(container reflect.Type) reflect.Type {
	elem := container.Elem()
	if elem.Kind() == reflect.Interface && elem.NumMethod() == 0 {
		return nil
	}
	return elem
}

// elemValue 将驱动返回的取值转换为可放入容器的 reflect.Value，nil 转为零值。
func elemValue(elemType reflect.Type, v any) reflect.Value {
	if v == nil {
		return reflect.Zero(elemType)
	}
	return reflect.ValueOf(v)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<any>"
	}
	return t.String()
}
