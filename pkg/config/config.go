// Package config 定义 typebridge 的配置结构、默认值与校验。
package config

import (
	"runtime"
	"time"

	"github.com/lk2023060901/typebridge/pkg/log"
	"github.com/lk2023060901/typebridge/pkg/util/merr"
	"github.com/lk2023060901/typebridge/pkg/util/viper"
)

// EnvPrefix 是覆盖配置项的环境变量前缀，例如 TYPEBRIDGE_BRIDGE_MAX_DEPTH。
const EnvPrefix = "TYPEBRIDGE"

const (
	DefaultMaxDepth = 512
	DefaultLocation = "UTC"
)

// BridgeConfig 对应配置文件中的 bridge 段。
type BridgeConfig struct {
	// MaxDepth 为单个调用树允许的最大递归深度，0 表示不限制。
	MaxDepth int `mapstructure:"max_depth" json:"max_depth"`
	// BatchWorkers 为批量接口使用的协程数。
	BatchWorkers int `mapstructure:"batch_workers" json:"batch_workers"`
	// BatchNonBlocking 为 true 时协程池已满的批量调用直接失败。
	BatchNonBlocking bool `mapstructure:"batch_nonblocking" json:"batch_nonblocking"`
	// BatchExpiry 为空闲 worker 的回收间隔，例如 "30s"，0 表示使用协程池默认值。
	BatchExpiry time.Duration `mapstructure:"batch_expiry" json:"batch_expiry"`
}

// TemporalConfig 对应配置文件中的 temporal 段。
type TemporalConfig struct {
	// Location 为时间文本所用的时区名，例如 UTC、Local、Asia/Shanghai。
	Location string `mapstructure:"location" json:"location"`
}

// Config 是完整的配置。
type Config struct {
	Bridge   BridgeConfig          `mapstructure:"bridge" json:"bridge"`
	Temporal TemporalConfig        `mapstructure:"temporal" json:"temporal"`
	Logging  map[string]log.Config `mapstructure:"logging" json:"logging"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			MaxDepth:     DefaultMaxDepth,
			BatchWorkers: runtime.GOMAXPROCS(0),
		},
		Temporal: TemporalConfig{
			Location: DefaultLocation,
		},
	}
}

// SetDefaults 将默认值写入 v，使环境变量覆盖对这些键生效。
func SetDefaults(v *viper.Config) {
	def := Default()
	v.SetDefault("bridge.max_depth", def.Bridge.MaxDepth)
	v.SetDefault("bridge.batch_workers", def.Bridge.BatchWorkers)
	v.SetDefault("bridge.batch_nonblocking", def.Bridge.BatchNonBlocking)
	v.SetDefault("bridge.batch_expiry", def.Bridge.BatchExpiry)
	v.SetDefault("temporal.location", def.Temporal.Location)
}

// Load 从已加载的 viper 配置中解析 Config 并校验。
func Load(v *viper.Config) (*Config, error) {
	SetDefaults(v)
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, merr.WrapErrConfigInvalid("config", v.ConfigFileUsed(), err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置取值。
func (c *Config) Validate() error {
	if c.Bridge.MaxDepth < 0 {
		return merr.WrapErrConfigInvalid("bridge.max_depth", c.Bridge.MaxDepth, "must not be negative")
	}
	if c.Bridge.BatchWorkers <= 0 {
		return merr.WrapErrConfigInvalid("bridge.batch_workers", c.Bridge.BatchWorkers, "must be positive")
	}
	if c.Bridge.BatchExpiry < 0 {
		return merr.WrapErrConfigInvalid("bridge.batch_expiry", c.Bridge.BatchExpiry, "must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location 解析 temporal.location，空字符串视为 UTC。
func (c *Config) Location() (*time.Location, error) {
	name := c.Temporal.Location
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, merr.WrapErrConfigInvalid("temporal.location", name, err.Error())
	}
	return loc, nil
}
