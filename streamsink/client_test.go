package streamsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClientRequiresRedis(t *testing.T) {
	t.Parallel()
	_, err := NewClient(ClientOptions{})
	assert.Error(t, err)
}
