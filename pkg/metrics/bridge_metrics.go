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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const bridgeMetricSubsystem = "bridge"

var (
	BridgeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: typebridgeNamespace,
			Subsystem: bridgeMetricSubsystem,
			Name:      "operations_total",
			Help:      "顶层 marshall/unmarshall 调用次数",
		}, []string{directionLabelName, statusLabelName})

	BridgeMatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: typebridgeNamespace,
			Subsystem: bridgeMetricSubsystem,
			Name:      "match_total",
			Help:      "反序列化时选中序列化器的匹配等级分布",
		}, []string{gradeLabelName, serializerLabelName})

	BridgeOperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: typebridgeNamespace,
			Subsystem: bridgeMetricSubsystem,
			Name:      "operation_latency",
			Help:      "顶层调用耗时，单位毫秒",
			Buckets:   buckets,
		}, []string{directionLabelName})

	BridgeBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: typebridgeNamespace,
			Subsystem: bridgeMetricSubsystem,
			Name:      "batch_size",
			Help:      "批量调用中的元素个数",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{directionLabelName})
)
