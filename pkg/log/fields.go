package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule     = "module"
	FieldNameComponent  = "component"
	FieldNameSerializer = "serializer"
	FieldNameTypeHint   = "typeHint"
	FieldNameDirection  = "direction"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldSerializer 返回一个包含序列化插件名的 zap 字段。
func FieldSerializer(name string) zap.Field {
	return zap.String(FieldNameSerializer, name)
}

// FieldTypeHint 返回一个包含线上类型提示的 zap 字段。
func FieldTypeHint(hint string) zap.Field {
	return zap.String(FieldNameTypeHint, hint)
}

// FieldDirection 返回 marshall/unmarshall 方向字段。
func FieldDirection(direction string) zap.Field {
	return zap.String(FieldNameDirection, direction)
}
