package wire

import (
	"io"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

// maxPrintDepth 限制打印时的嵌套深度，防止调用方手工构造出环。
const maxPrintDepth = 10000

var api = jsoniter.Config{
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// Parse 将 JSON 文本解析为 Value 树，保留对象键顺序与数字字面量。
func Parse(data []byte) (*Value, error) {
	iter := api.BorrowIterator(data)
	defer api.ReturnIterator(iter)

	v, ok := readValue(iter, true)
	if !ok {
		if iter.Error == nil || iter.Error == io.EOF {
			return nil, errors.Wrap(io.ErrUnexpectedEOF, "wire: parse failed")
		}
		return nil, errors.Wrap(iter.Error, "wire: parse failed")
	}

	// 读到输入末尾时 iterator 会把 Error 置为 io.EOF；仍为 nil 说明后面还有内容。
	iter.WhatIsNext()
	if iter.Error == nil {
		return nil, errors.New("wire: unexpected data after top-level value")
	}
	if iter.Error != io.EOF {
		return nil, errors.Wrap(iter.Error, "wire: parse failed")
	}
	return v, nil
}

// readValue 读取一个完整的值。只有顶层数字允许紧贴输入末尾（iterator 需要越过末尾才能确认数字结束）。
func readValue(iter *jsoniter.Iterator, top bool) (*Value, bool) {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null(), iter.Error == nil
	case jsoniter.BoolValue:
		b := iter.ReadBool()
		return Bool(b), iter.Error == nil
	case jsoniter.NumberValue:
		lit := string(iter.ReadNumber())
		if iter.Error != nil && !(top && iter.Error == io.EOF) {
			return nil, false
		}
		if !validNumber(lit) {
			iter.ReportError("wire.Parse", "invalid number literal "+lit)
			return nil, false
		}
		return &Value{kind: KindNumber, s: lit}, true
	case jsoniter.StringValue:
		str := iter.ReadString()
		return String(str), iter.Error == nil
	case jsoniter.ArrayValue:
		arr := Array()
		ok := iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			item, ok := readValue(it, false)
			if !ok {
				return false
			}
			arr.arr = append(arr.arr, item)
			return true
		})
		return arr, ok && iter.Error == nil
	case jsoniter.ObjectValue:
		obj := Object()
		ok := iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			child, ok := readValue(it, false)
			if !ok {
				return false
			}
			obj.obj.Set(field, child)
			return true
		})
		return obj, ok && iter.Error == nil
	default:
		if iter.Error == nil {
			iter.ReportError("wire.Parse", "unexpected token")
		}
		return nil, false
	}
}

// Print 将 Value 树输出为紧凑的 JSON 文本。
func Print(v *Value) ([]byte, error) {
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	if err := writeValue(stream, v, 0); err != nil {
		return nil, err
	}
	if stream.Error != nil {
		return nil, errors.Wrap(stream.Error, "wire: print failed")
	}
	buf := stream.Buffer()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

func writeValue(stream *jsoniter.Stream, v *Value, depth int) error {
	if depth > maxPrintDepth {
		return errors.Newf("wire: nesting deeper than %d, value graph is probably cyclic", maxPrintDepth)
	}
	switch v.Kind() {
	case KindNull:
		stream.WriteNil()
	case KindBoolean:
		stream.WriteBool(v.b)
	case KindNumber:
		stream.WriteRaw(v.s)
	case KindString:
		stream.WriteString(v.s)
	case KindArray:
		stream.WriteArrayStart()
		for i, item := range v.arr {
			if i > 0 {
				stream.WriteMore()
			}
			if err := writeValue(stream, item, depth+1); err != nil {
				return err
			}
		}
		stream.WriteArrayEnd()
	case KindObject:
		stream.WriteObjectStart()
		first := true
		for el := v.obj.Front(); el != nil; el = el.Next() {
			if !first {
				stream.WriteMore()
			}
			first = false
			stream.WriteObjectField(el.Key)
			if err := writeValue(stream, el.Value, depth+1); err != nil {
				return err
			}
		}
		stream.WriteObjectEnd()
	default:
		return errors.Newf("wire: unknown kind %d", v.Kind())
	}
	return nil
}

// MarshalJSON 让 Value 可以直接嵌入到其它 JSON 编码流程中。
func (v *Value) MarshalJSON() ([]byte, error) {
	return Print(v)
}

// UnmarshalJSON 实现 json.Unmarshaler。
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}
