// Package serializer 提供“对象 <-> 字节流”的序列化实现，
// 以及装配默认插件集合的入口。
package serializer

import (
	"time"

	"github.com/lk2023060901/typebridge/pkg/bridge"
	"github.com/lk2023060901/typebridge/pkg/serializer/collection"
	"github.com/lk2023060901/typebridge/pkg/serializer/primitive"
	"github.com/lk2023060901/typebridge/pkg/serializer/temporal"
)

// Serializer 抽象了“对象 <-> 字节流”的序列化能力。
//
// 调用方通过接口注入具体实现：普通 Go 结构使用 JSON，protobuf 对端使用 Protobuf，
// 需要携带类型提示的取值使用 HintedSerializer。
type Serializer interface {
	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error
}

// Defaults 返回默认插件集合，注册顺序即同分时的优先顺序。
func Defaults(loc *time.Location) []bridge.Serializer {
	return []bridge.Serializer{
		primitive.NewSerializer(),
		temporal.NewSerializer(temporal.WithLocation(loc)),
		collection.NewListSerializer(),
		collection.NewMapSerializer(),
	}
}
