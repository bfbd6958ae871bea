package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	assert.Equal(t, prometheus.DefaultRegisterer, GetRegisterer())

	registry := prometheus.NewRegistry()
	Register(registry)
	// 第二次调用不会重复注册。
	Register(registry)
	assert.Equal(t, registry, GetRegisterer())

	BridgeOperations.WithLabelValues(MarshallLabel, SuccessLabel).Inc()
	BridgeMatches.WithLabelValues("okay", "temporal").Inc()
	BridgeOperationLatency.WithLabelValues(MarshallLabel).Observe(0.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(BridgeOperations.WithLabelValues(MarshallLabel, SuccessLabel)))

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "typebridge_bridge_operations_total")
	assert.Contains(t, names, "typebridge_bridge_match_total")
	assert.Contains(t, names, "typebridge_bridge_operation_latency")
}
