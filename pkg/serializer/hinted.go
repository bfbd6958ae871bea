package serializer

import (
	"context"

	"github.com/lk2023060901/typebridge/pkg/bridge"
)

// HintedSerializer 通过 Bridge 编解码，输出带类型提示的 JSON。
type HintedSerializer struct {
	bridge *bridge.Bridge
}

// 编译期断言：确保 HintedSerializer 实现了 Serializer 接口。
var _ Serializer = (*HintedSerializer)(nil)

func NewHintedSerializer(b *bridge.Bridge) *HintedSerializer {
	return &HintedSerializer{bridge: b}
}

func (s *HintedSerializer) Marshal(v any) ([]byte, error) {
	return s.bridge.MarshallJSON(context.Background(), v)
}

func (s *HintedSerializer) Unmarshal(data []byte, v any) error {
	return s.bridge.UnmarshallJSON(context.Background(), data, v)
}
