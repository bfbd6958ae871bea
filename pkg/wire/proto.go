package wire

import (
	"math"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto 将 Value 转换为 protobuf 的 structpb.Value，供只理解 google.protobuf.Value 的对端使用。
//
// structpb 的数字统一为 double，超出 2^53 的整数会丢失精度。
func ToProto(v *Value) (*structpb.Value, error) {
	switch v.Kind() {
	case KindNull:
		return structpb.NewNullValue(), nil
	case KindBoolean:
		return structpb.NewBoolValue(v.b), nil
	case KindNumber:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "wire: number %q not representable as double", v.s)
		}
		return structpb.NewNumberValue(f), nil
	case KindString:
		return structpb.NewStringValue(v.s), nil
	case KindArray:
		list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(v.arr))}
		for _, item := range v.arr {
			pv, err := ToProto(item)
			if err != nil {
				return nil, err
			}
			list.Values = append(list.Values, pv)
		}
		return structpb.NewListValue(list), nil
	case KindObject:
		st := &structpb.Struct{Fields: make(map[string]*structpb.Value, v.obj.Len())}
		for el := v.obj.Front(); el != nil; el = el.Next() {
			pv, err := ToProto(el.Value)
			if err != nil {
				return nil, err
			}
			st.Fields[el.Key] = pv
		}
		return structpb.NewStructValue(st), nil
	}
	return nil, errors.Newf("wire: unknown kind %d", v.Kind())
}

// FromProto 将 structpb.Value 转换回 Value。protobuf Struct 不保序，这里按键名排序。
func FromProto(pv *structpb.Value) (*Value, error) {
	if pv == nil {
		return Null(), nil
	}
	switch k := pv.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return Null(), nil
	case *structpb.Value_BoolValue:
		return Bool(k.BoolValue), nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(k.NumberValue) || math.IsInf(k.NumberValue, 0) {
			return nil, errors.Newf("wire: %v is not a valid JSON number", k.NumberValue)
		}
		if k.NumberValue == math.Trunc(k.NumberValue) && math.Abs(k.NumberValue) < 1<<53 {
			return Int(int64(k.NumberValue)), nil
		}
		return Float(k.NumberValue), nil
	case *structpb.Value_StringValue:
		return String(k.StringValue), nil
	case *structpb.Value_ListValue:
		arr := Array()
		for _, item := range k.ListValue.GetValues() {
			child, err := FromProto(item)
			if err != nil {
				return nil, err
			}
			arr.arr = append(arr.arr, child)
		}
		return arr, nil
	case *structpb.Value_StructValue:
		fields := k.StructValue.GetFields()
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		obj := Object()
		for _, key := range keys {
			child, err := FromProto(fields[key])
			if err != nil {
				return nil, err
			}
			obj.obj.Set(key, child)
		}
		return obj, nil
	}
	return nil, errors.Newf("wire: unsupported protobuf kind %T", pv.GetKind())
}
