package serializer

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/typebridge/pkg/wire"
)

// ProtoSerializer 使用 Protobuf 进行二进制序列化。
//
// 传入/传出的对象必须实现 proto.Message，或者是 *wire.Value：
// 后者以 google.protobuf.Value 的形式编码，数字统一为 double。
type ProtoSerializer struct{}

// 编译期断言：确保 ProtoSerializer 实现了 Serializer 接口。
var _ Serializer = (*ProtoSerializer)(nil)

func (ProtoSerializer) Marshal(v any) ([]byte, error) {
	switch msg := v.(type) {
	case *wire.Value:
		pv, err := wire.ToProto(msg)
		if err != nil {
			return nil, err
		}
		return proto.Marshal(pv)
	case proto.Message:
		return proto.Marshal(msg)
	default:
		return nil, errors.Newf("serializer: ProtoSerializer requires proto.Message or *wire.Value, got %T", v)
	}
}

func (ProtoSerializer) Unmarshal(data []byte, v any) error {
	switch msg := v.(type) {
	case *wire.Value:
		pv := &structpb.Value{}
		if err := proto.Unmarshal(data, pv); err != nil {
			return err
		}
		parsed, err := wire.FromProto(pv)
		if err != nil {
			return err
		}
		*msg = *parsed
		return nil
	case proto.Message:
		return proto.Unmarshal(data, msg)
	default:
		return errors.Newf("serializer: ProtoSerializer requires proto.Message or *wire.Value, got %T", v)
	}
}
