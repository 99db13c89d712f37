package observability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okPing(context.Context) error   { return nil }
func downPing(context.Context) error { return errors.New("connection refused") }

func TestHealthRegistry(t *testing.T) {
	t.Run("empty registry is healthy", func(t *testing.T) {
		r := NewHealthRegistry()
		assert.Empty(t, r.Check(context.Background()))
		assert.Equal(t, HealthStatusHealthy, r.OverallStatus())
	})

	t.Run("all reachable", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(okPing))
		r.Register("redis", RedisHealthChecker(okPing))

		results := r.Check(context.Background())
		require.Len(t, results, 2)
		assert.Equal(t, HealthStatusHealthy, results["database"].Status)
		assert.False(t, results["redis"].Timestamp.IsZero())
		assert.Equal(t, HealthStatusHealthy, r.OverallStatus())
	})

	t.Run("optional backend down degrades", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(okPing))
		r.Register("rabbitmq", RabbitMQHealthChecker(downPing))

		r.Check(context.Background())
		assert.Equal(t, HealthStatusDegraded, r.OverallStatus())
	})

	t.Run("database down is unhealthy", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(downPing))
		r.Register("redis", RedisHealthChecker(downPing))

		r.Check(context.Background())
		assert.Equal(t, HealthStatusUnhealthy, r.OverallStatus())
	})

	t.Run("names are sorted", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("redis", RedisHealthChecker(okPing))
		r.Register("database", DatabaseHealthChecker(okPing))
		assert.Equal(t, []string{"database", "redis"}, r.Names())
	})
}

func TestPingChecker(t *testing.T) {
	result := PingChecker("redis", HealthStatusDegraded, downPing)(context.Background())
	assert.Equal(t, HealthStatusDegraded, result.Status)
	assert.Contains(t, result.Message, "redis unreachable")
	assert.Contains(t, result.Message, "connection refused")
}

func TestOverallHealth(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("database", DatabaseHealthChecker(okPing))
	r.Register("redis", RedisHealthChecker(downPing))

	health := r.GetOverallHealth(context.Background())
	assert.Equal(t, HealthStatusDegraded, health.Status)
	assert.Len(t, health.Checks, 2)

	data, err := health.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "degraded", decoded["status"])
}
