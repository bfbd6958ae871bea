package collection

import (
	"reflect"
	"sort"

	"github.com/lk2023060901/typebridge/pkg/bridge"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/util/typeutil"
	"github.com/lk2023060901/typebridge/pkg/wire"
)

const (
	// MapField 是承载映射条目的字段名。
	MapField = "map"
	// MapHint 是序列化时写入的映射类型提示。
	MapHint = "java.util.HashMap"
)

var mapHints = []string{MapHint, "java.util.Map", "java.util.TreeMap", "java.util.LinkedHashMap", "java.util.Hashtable"}

var (
	_ bridge.Serializer = (*MapSerializer)(nil)
	_ bridge.Claimer    = (*MapSerializer)(nil)

	anyMapType = typeutil.TypeOf[map[string]any]()
)

// MapSerializer 处理字符串键映射：{"javaClass":"java.util.HashMap","map":{...}}。
// 序列化时按键排序，保证输出稳定。
type MapSerializer struct{}

func NewMapSerializer() *MapSerializer {
	return &MapSerializer{}
}

func (ser *MapSerializer) Name() string {
	return "map"
}

func (ser *MapSerializer) NativeTypes() []reflect.Type {
	return []reflect.Type{anyMapType}
}

func (ser *MapSerializer) WireShapes() []wire.Shape {
	return []wire.Shape{wire.ObjectWith(MapField)}
}

// Claims 认领所有键类型为 string 的映射。
func (ser *MapSerializer) Claims(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String
}

func (ser *MapSerializer) Marshall(s *bridge.State, parent any, v any) (*wire.Value, error) {
	rv := reflect.ValueOf(v)
	if !ser.Claims(rv.Type()) {
		return nil, merr.WrapErrMarshall(v, "not a string keyed map")
	}
	s.Enter(v)

	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	entries := wire.Object()
	for _, key := range keys {
		item, err := s.Marshall(v, rv.MapIndex(key).Interface())
		if err != nil {
			return nil, err
		}
		entries.Set(key.String(), item)
	}
	w := wire.Object().
		Set(bridge.TypeHintField, wire.String(MapHint)).
		Set(MapField, entries)
	s.Resolve(v, w)
	return w, nil
}

func (ser *MapSerializer) TryUnmarshall(s *bridge.State, typ reflect.Type, w *wire.Value) (bridge.Match, error) {
	mapType, ok := ser.target(typ)
	if !ok || !w.IsObject() {
		return bridge.MatchNone, nil
	}
	entries, err := mapEntries(w)
	if err != nil {
		return bridge.MatchNone, err
	}

	m := bridge.MatchExact
	if typeutil.IsAbstract(typ) {
		m = bridge.MatchOkay
	}
	elemType := elemTypeOf(mapType)
	var failure error
	entries.Range(func(_ string, item *wire.Value) bool {
		im, err := s.TryUnmarshall(elemType, item)
		if err != nil || !im.Positive() {
			m, failure = bridge.MatchNone, err
			return false
		}
		m = m.Min(im)
		return true
	})
	return m, failure
}

func (ser *MapSerializer) Unmarshall(s *bridge.State, typ reflect.Type, w *wire.Value) (any, error) {
	mapType, ok := ser.target(typ)
	if !ok {
		return nil, merr.WrapErrUnmarshall("type", typeName(typ), "not a string keyed map type")
	}
	entries, err := mapEntries(w)
	if err != nil {
		return nil, err
	}
	s.EnterNode(w)

	elemType := elemTypeOf(mapType)
	out := reflect.MakeMapWithSize(mapType, entries.Len())
	var failure error
	entries.Range(func(key string, item *wire.Value) bool {
		v, err := s.Unmarshall(elemType, item)
		if err != nil {
			failure = err
			return false
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(mapType.Key()), elemValue(mapType.Elem(), v))
		return true
	})
	if failure != nil {
		return nil, failure
	}
	result := out.Interface()
	s.ResolveNode(w, result)
	return result, nil
}

func (ser *MapSerializer) target(typ reflect.Type) (reflect.Type, bool) {
	typ = typeutil.Indirect(typ)
	if typeutil.IsAbstract(typ) {
		return anyMapType, typeutil.Assignable(anyMapType, typ)
	}
	return typ, ser.Claims(typ)
}

func mapEntries(w *wire.Value) (*wire.Value, error) {
	if !w.IsObject() {
		return nil, merr.WrapErrUnmarshall("shape", w.Kind().String(), "object expected")
	}
	if err := checkHint(w, mapHints); err != nil {
		return nil, err
	}
	entries, ok := w.Get(MapField)
	if !ok {
		return nil, merr.WrapErrUnmarshall(MapField, nil, "field missing")
	}
	if !entries.IsObject() {
		return nil, merr.WrapErrUnmarshall(MapField, entries.Kind().String(), "object expected")
	}
	return entries, nil
}
