// Package wire 定义跨边界传输的结构化取值（StructuredValue）。
//
// Value 是一个带标签的联合体：Object / Array / String / Number / Boolean / Null。
// Object 保留键的插入顺序，打印结果因此是稳定的；Number 保留原始字面量，
// 避免超出 float64 精度的整数在往返过程中失真。
//
// 节点身份即其指针（*Value），单次 marshall/unmarshall 的状态表以此为键。
package wire

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/elliotchance/orderedmap/v2"
)

// Kind 是 Value 的标签。
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindNumber:  "number",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value 是一个结构化取值节点。nil *Value 等价于 Null。
type Value struct {
	kind Kind
	b    bool
	s    string
	arr  []*Value
	obj  *orderedmap.OrderedMap[string, *Value]
}

func Null() *Value { return &Value{kind: KindNull} }

func Bool(b bool) *Value { return &Value{kind: KindBoolean, b: b} }

func String(s string) *Value { return &Value{kind: KindString, s: s} }

func Int(i int64) *Value { return &Value{kind: KindNumber, s: strconv.FormatInt(i, 10)} }

func Uint(u uint64) *Value { return &Value{kind: KindNumber, s: strconv.FormatUint(u, 10)} }

// Float 构造数字节点。NaN 与 ±Inf 不是合法 JSON 数字，调用方需要先行拒绝。
func Float(f float64) *Value {
	return &Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number 使用 JSON 数字字面量构造节点，字面量不合法时返回错误。
func Number(lit string) (*Value, error) {
	if !validNumber(lit) {
		return nil, errors.Newf("wire: invalid number literal %q", lit)
	}
	return &Value{kind: KindNumber, s: lit}, nil
}

func Array(items ...*Value) *Value {
	return &Value{kind: KindArray, arr: append(make([]*Value, 0, len(items)), items...)}
}

func Object() *Value {
	return &Value{kind: KindObject, obj: orderedmap.NewOrderedMap[string, *Value]()}
}

func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

func (v *Value) IsNull() bool { return v.Kind() == KindNull }

func (v *Value) IsObject() bool { return v.Kind() == KindObject }

func (v *Value) IsArray() bool { return v.Kind() == KindArray }

// AsBool 在节点为 Boolean 时返回其取值。
func (v *Value) AsBool() (bool, bool) {
	if v.Kind() != KindBoolean {
		return false, false
	}
	return v.b, true
}

// AsString 在节点为 String 时返回其取值。
func (v *Value) AsString() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.s, true
}

// AsNumber 在节点为 Number 时返回其原始字面量。
func (v *Value) AsNumber() (string, bool) {
	if v.Kind() != KindNumber {
		return "", false
	}
	return v.s, true
}

// Len 返回 Array 的元素个数或 Object 的键个数，其余类型返回 0。
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Items 返回 Array 的元素切片（只读视图）。
func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.arr
}

// Append 向 Array 追加元素并返回自身，便于链式构造。
func (v *Value) Append(items ...*Value) *Value {
	if v.Kind() != KindArray {
		panic("wire: Append on " + v.Kind().String())
	}
	v.arr = append(v.arr, items...)
	return v
}

// Get 返回 Object 中 key 对应的子节点。
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != KindObject {
		return nil, false
	}
	return v.obj.Get(key)
}

// Has 判断 Object 是否包含 key。
func (v *Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// GetString 返回 Object 中 key 对应的字符串取值；键不存在或不是字符串时 ok 为 false。
func (v *Value) GetString(key string) (string, bool) {
	child, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return child.AsString()
}

// Set 写入 Object 的键值并返回自身。已存在的键保持原有位置。
func (v *Value) Set(key string, child *Value) *Value {
	if v.Kind() != KindObject {
		panic("wire: Set on " + v.Kind().String())
	}
	v.obj.Set(key, child)
	return v
}

// Delete 删除 Object 中的键。
func (v *Value) Delete(key string) bool {
	if v.Kind() != KindObject {
		return false
	}
	return v.obj.Delete(key)
}

// Keys 按插入顺序返回 Object 的全部键。
func (v *Value) Keys() []string {
	if v.Kind() != KindObject {
		return nil
	}
	keys := make([]string, 0, v.obj.Len())
	for el := v.obj.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Range 按插入顺序遍历 Object，回调返回 false 时提前结束。
func (v *Value) Range(f func(key string, child *Value) bool) {
	if v.Kind() != KindObject {
		return
	}
	for el := v.obj.Front(); el != nil; el = el.Next() {
		if !f(el.Key, el.Value) {
			return
		}
	}
}

// String 返回节点的 JSON 文本，便于日志与调试。
func (v *Value) String() string {
	data, err := Print(v)
	if err != nil {
		return "<invalid wire value: " + err.Error() + ">"
	}
	return string(data)
}

// Equal 判断两棵树在结构与取值上是否一致。Object 的比较不关心键顺序，
// Number 按字面量比较。
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindNumber, KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for el := a.obj.Front(); el != nil; el = el.Next() {
			other, ok := b.obj.Get(el.Key)
			if !ok || !Equal(el.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// validNumber 按 JSON 语法校验数字字面量。
func validNumber(s string) bool {
	i, n := 0, len(s)
	if i < n && s[i] == '-' {
		i++
	}
	switch {
	case i < n && s[i] == '0':
		i++
	case i < n && s[i] >= '1' && s[i] <= '9':
		for i < n && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}
	if i < n && s[i] == '.' {
		i++
		if i >= n || !isDigit(s[i]) {
			return false
		}
		for i < n && isDigit(s[i]) {
			i++
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= n || !isDigit(s[i]) {
			return false
		}
		for i < n && isDigit(s[i]) {
			i++
		}
	}
	return i == n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
