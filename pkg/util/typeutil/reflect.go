package typeutil

import "reflect"

// TypeOf 返回类型参数 T 对应的 reflect.Type，T 可以是接口类型。
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Indirect 剥掉所有指针层，返回最内层的元素类型。
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// IsAbstract 判断 t 是否无法直接实例化：nil 或接口类型。
func IsAbstract(t reflect.Type) bool {
	return t == nil || t.Kind() == reflect.Interface
}

// Assignable 判断 src 类型的值能否赋给 dst；dst 为 nil 时视为 any。
func Assignable(src, dst reflect.Type) bool {
	if dst == nil {
		return true
	}
	if src == nil {
		return false
	}
	return src.AssignableTo(dst)
}
