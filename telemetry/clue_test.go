package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKVToFieldersSkipsNonStringKeysAndPadsMissingValue(t *testing.T) {
	t.Parallel()
	fielders := kvToFielders([]any{"a", 1, 2, "ignored-key-not-string", "b"})
	require := assert.New(t)
	require.Len(fielders, 2)
}

func TestTagsToAttrsPadsOddLength(t *testing.T) {
	t.Parallel()
	attrs := tagsToAttrs([]string{"env"})
	require := assert.New(t)
	require.Len(attrs, 1)
	require.Equal("env", string(attrs[0].Key))
	require.Equal("", attrs[0].Value.AsString())
}

func TestKVToAttrsTypesEachValue(t *testing.T) {
	t.Parallel()
	attrs := kvToAttrs([]any{"s", "str", "i", 1, "i64", int64(2), "f", 1.5, "b", true})
	require := assert.New(t)
	require.Len(attrs, 5)
	assert.Equal(t, "str", attrs[0].Value.AsString())
	assert.Equal(t, int64(1), attrs[1].Value.AsInt64())
	assert.Equal(t, int64(2), attrs[2].Value.AsInt64())
	assert.Equal(t, 1.5, attrs[3].Value.AsFloat64())
	assert.Equal(t, true, attrs[4].Value.AsBool())
}

func TestNewClueLoggerMetricsTracerConstructWithoutPanicking(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		_ = NewClueLogger()
		_ = NewClueMetrics()
		_ = NewClueTracer()
	})
}
