package telemetry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

func TestClampRatio(t *testing.T) {
	require.Equal(t, 0.0, clampRatio(-0.5))
	require.Equal(t, 1.0, clampRatio(3))
	require.Equal(t, 0.25, clampRatio(0.25))
}

func TestConfigWithDefaults(t *testing.T) {
	c := Config{ServiceName: "eventpipe", SampleRatio: 2}.withDefaults()

	require.Equal(t, defaultEndpoint, c.Endpoint)
	require.Equal(t, 1.0, c.SampleRatio)
	_, err := uuid.Parse(c.InstanceID)
	require.NoError(t, err)

	kept := Config{Endpoint: "jaeger:4318", InstanceID: "pod-1"}.withDefaults()
	require.Equal(t, "jaeger:4318", kept.Endpoint)
	require.Equal(t, "pod-1", kept.InstanceID)
}

func TestNewResource_Attributes(t *testing.T) {
	res := newResource(Config{ServiceName: "eventpipe", InstanceID: "pod-1"})

	name, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	require.Equal(t, "eventpipe", name.AsString())

	inst, ok := res.Set().Value(semconv.ServiceInstanceIDKey)
	require.True(t, ok)
	require.Equal(t, "pod-1", inst.AsString())
}
