package wire

// Shape 描述插件能够尝试解码的线上形态：一个 Kind，可选地要求 Object 携带某个键。
type Shape struct {
	Kind Kind
	// Key 非空时表示 "携带该键的 Object"，仅对 KindObject 有意义。
	Key string
}

// ShapeOf 返回只约束 Kind 的形态。
func ShapeOf(kind Kind) Shape {
	return Shape{Kind: kind}
}

// ObjectWith 返回 "携带 key 的 Object" 形态。
func ObjectWith(key string) Shape {
	return Shape{Kind: KindObject, Key: key}
}

// Matches 判断 v 是否符合该形态。
func (s Shape) Matches(v *Value) bool {
	if v.Kind() != s.Kind {
		return false
	}
	if s.Key == "" {
		return true
	}
	return v.Has(s.Key)
}

func (s Shape) String() string {
	if s.Key == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + "{" + s.Key + "}"
}
