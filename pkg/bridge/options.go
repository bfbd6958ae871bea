package bridge

import (
	"runtime"
	"time"
)

type bridgeOption struct {
	// maxDepth 为单个调用树允许的最大递归深度，0 表示不限制。
	maxDepth int
	// batchWorkers 为批量接口使用的协程池容量。
	batchWorkers int
	// batchNonBlocking 为 true 时协程池已满直接让批量调用失败，而不是等待空闲 worker。
	batchNonBlocking bool
	// batchExpiry 为空闲 worker 的回收间隔，0 表示使用 ants 的默认值。
	batchExpiry time.Duration
	// registry 为外部构造的插件注册表，为空时新建。
	registry *Registry
	// serializers 为构造时按顺序注册的插件。
	serializers []Serializer
}

// Option 用于配置 Bridge 的选项函数。
type Option func(opt *bridgeOption)

func defaultBridgeOption() *bridgeOption {
	return &bridgeOption{
		maxDepth:     0,
		batchWorkers: runtime.GOMAXPROCS(0),
	}
}

func WithMaxDepth(depth int) Option {
	return func(opt *bridgeOption) {
		opt.maxDepth = depth
	}
}

func WithBatchWorkers(n int) Option {
	return func(opt *bridgeOption) {
		opt.batchWorkers = n
	}
}

func WithBatchNonBlocking(v bool) Option {
	return func(opt *bridgeOption) {
		opt.batchNonBlocking = v
	}
}

func WithBatchExpiry(d time.Duration) Option {
	return func(opt *bridgeOption) {
		opt.batchExpiry = d
	}
}

func WithRegistry(r *Registry) Option {
	return func(opt *bridgeOption) {
		opt.registry = r
	}
}

func WithSerializers(sers ...Serializer) Option {
	return func(opt *bridgeOption) {
		opt.serializers = append(opt.serializers, sers...)
	}
}
