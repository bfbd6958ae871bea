package viper

import (
	"bytes"
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config。
// 未加载任何文件时，Unmarshal 只会得到默认值与环境变量覆盖的取值。
func New() *Config {
	return &Config{
		v: spfviper.New(),
	}
}

// NewWithEnv 创建一个允许环境变量覆盖的 Config。
// 键 "bridge.max_depth" 对应环境变量 <PREFIX>_BRIDGE_MAX_DEPTH。
// 只有设置过默认值或出现在配置文件中的键才会参与覆盖。
func NewWithEnv(prefix string) *Config {
	c := New()
	c.v.SetEnvPrefix(prefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	return c
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	return c.v.ReadInConfig()
}

// LoadBytes 从内存读取配置，configType 为 yaml 或 json。
func (c *Config) LoadBytes(data []byte, configType string) error {
	c.v.SetConfigType(configType)
	return c.v.ReadConfig(bytes.NewReader(data))
}

// SetDefault 为 key 设置默认值。
func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

// IsSet 判断 key 是否在任一来源中出现过。
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// ConfigFileUsed 返回已加载的配置文件路径。
func (c *Config) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst any) error {
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) UnmarshalKey(key string, dst any) error {
	return c.v.UnmarshalKey(key, dst)
}
