// Package json 为仓库内部的普通 Go 值提供统一的 JSON 编解码入口，底层使用 bytedance/sonic。
//
// 带类型提示的结构化取值请使用 pkg/wire，它需要保留对象键顺序与数字字面量。
package json

import (
	"github.com/bytedance/sonic"
)

// api 与 encoding/json 行为保持一致：键排序、HTML 转义、校验字符串。
var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func MarshalToString(v any) (string, error) {
	return api.MarshalToString(v)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

func UnmarshalFromString(data string, v any) error {
	return api.UnmarshalFromString(data, v)
}

func Valid(data []byte) bool {
	return api.Valid(data)
}
