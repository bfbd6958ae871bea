package bridge

import (
	"fmt"
	"reflect"

	"github.com/lk2023060901/typebridge/pkg/wire"
)

// TypeHintField 是对象形态中携带原生类型名的保留字段。
// 字段名与取值都是与对端互通的固定字符串。
const TypeHintField = "javaClass"

// Serializer 是序列化插件的统一契约：在一组原生类型与一种线上形态之间双向转换，
// 并提供不产生副作用的匹配预检。
type Serializer interface {
	// NativeTypes 声明该插件能处理的原生类型，不能为空。
	NativeTypes() []reflect.Type

	// WireShapes 声明该插件可以尝试解码的线上形态。
	WireShapes() []wire.Shape

	// Marshall 将 v 转换为线上取值。v 的运行时类型不受支持时返回 merr.ErrMarshall。
	// parent 为外层容器的原生值，顶层调用时为 nil。
	Marshall(s *State, parent any, v any) (*wire.Value, error)

	// TryUnmarshall 评估 w 能否反序列化为 typ，除记录容器访问外不得修改 s，也不得构造对象。
	// 形态不符时返回 MatchNone 与 nil 错误；输入畸形时返回 MatchNone 与 merr.ErrUnmarshall。
	TryUnmarshall(s *State, typ reflect.Type, w *wire.Value) (Match, error)

	// Unmarshall 从 w 构造原生值。线上类型提示优先于 typ，失败时不返回部分结果。
	Unmarshall(s *State, typ reflect.Type, w *wire.Value) (any, error)
}

// Named 由希望在日志与指标中使用固定名称的插件实现。
type Named interface {
	Name() string
}

// Claimer 由处理一族类型（例如所有切片）的插件实现，
// 在 NativeTypes 精确查找未命中时参与按类型路由。
type Claimer interface {
	Claims(t reflect.Type) bool
}

// NameOf 返回插件名称，未实现 Named 时使用其 Go 类型名。
func NameOf(ser Serializer) string {
	if ser == nil {
		return "<nil>"
	}
	if n, ok := ser.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", ser)
}
