package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh-ai/flowmesh/event"
)

func TestDefaultRegistryWiresCoreProcessors(t *testing.T) {
	t.Parallel()
	r := DefaultRegistry()

	for _, typ := range []event.Type{event.TypeMessage, event.TypeToolCall, event.TypeToolResult} {
		p, ok := r.Resolve(typ)
		require.Truef(t, ok, "expected a processor registered for %s", typ)
		assert.NotNil(t, p)
	}
}

func TestDefaultRegistryHasNoSystemProcessor(t *testing.T) {
	t.Parallel()
	r := DefaultRegistry()
	_, ok := r.Resolve(event.TypeSystem)
	assert.False(t, ok)
}
