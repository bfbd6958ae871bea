// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/typebridge/pkg/log"
)

type poolOption struct {
	// preAlloc 表示是否预先分配 worker，预分配的协程池不能调整容量。
	preAlloc bool
	// nonBlocking 为 true 时协程池已满的提交直接失败。
	nonBlocking bool
	// expiryDuration 为回收空闲 worker 的间隔，0 表示使用 ants 默认值。
	expiryDuration time.Duration
	// concealPanic 为 true 时任务 panic 只记录，不再向上抛出。
	concealPanic bool
	// panicHandler 在任务 panic 时被调用，未设置时记录到全局日志。
	panicHandler func(any)
	// preHandler 在每个任务执行前调用。
	preHandler func()
}

func (opt *poolOption) antsOptions() []ants.Option {
	result := []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithNonblocking(opt.nonBlocking),
		ants.WithPanicHandler(opt.handlePanic),
	}
	if opt.expiryDuration > 0 {
		result = append(result, ants.WithExpiryDuration(opt.expiryDuration))
	}
	return result
}

// handlePanic 是交给 ants 的唯一 panic 处理入口。
// Future 已在 Submit 中记录了错误，这里只负责上报与是否继续抛出。
func (opt *poolOption) handlePanic(v any) {
	if opt.panicHandler != nil {
		opt.panicHandler(v)
	} else {
		log.Error("conc pool task panicked", zap.Any("panic", v))
	}
	if !opt.concealPanic {
		panic(v)
	}
}

// PoolOption 用于配置协程池行为的选项函数。
type PoolOption func(opt *poolOption)

func defaultPoolOption() *poolOption {
	return &poolOption{}
}

func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

func WithNonBlocking(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.nonBlocking = v
	}
}

func WithExpiryDuration(d time.Duration) PoolOption {
	return func(opt *poolOption) {
		opt.expiryDuration = d
	}
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}

func WithPanicHandler(fn func(any)) PoolOption {
	return func(opt *poolOption) {
		opt.panicHandler = fn
	}
}

func WithPreHandler(fn func()) PoolOption {
	return func(opt *poolOption) {
		opt.preHandler = fn
	}
}
