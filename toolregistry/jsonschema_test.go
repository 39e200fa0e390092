package toolregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArgumentsNoSchemaAllowsAnything(t *testing.T) {
	t.Parallel()
	err := ValidateArguments("t", nil, []byte(`{"anything": true}`))
	assert.NoError(t, err)
}

func TestValidateArgumentsAgainstSchema(t *testing.T) {
	t.Parallel()
	schema := []byte(`{
		"type": "object",
		"properties": {"query": {"type": "string"}},
		"required": ["query"]
	}`)

	require.NoError(t, ValidateArguments("search", schema, []byte(`{"query": "hello"}`)))

	err := ValidateArguments("search", schema, []byte(`{}`))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "search", verr.Tool)
}

func TestValidateArgumentsRejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	schema := []byte(`{"type": "object"}`)
	err := ValidateArguments("search", schema, []byte(`not json`))
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
