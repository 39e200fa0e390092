package toolregistry

import (
	"context"
	"encoding/json"
	"fmt"
)

// OpenAPIOperation is the subset of an OpenAPI operation object needed to
// generate a RunnableTool: one tool per operationId. The concrete HTTP
// client that performs the call is supplied by the host; this package only
// owns the operationId -> RunnableTool wrapping.
type OpenAPIOperation struct {
	OperationID string
	Summary     string
	InputSchema json.RawMessage // parameters+requestBody folded into one JSON Schema document by the host
}

// Invoker performs the actual HTTP call for a generated API tool. Hosts
// implement this against whatever HTTP client they already use.
type Invoker func(ctx context.Context, operationID string, params json.RawMessage, ec ExecContext) (any, error)

type apiTool struct {
	op      OpenAPIOperation
	invoke  Invoker
}

func (t *apiTool) Key() string                   { return "api." + t.op.OperationID }
func (t *apiTool) Name() string                  { return t.op.OperationID }
func (t *apiTool) Description() string           { return t.op.Summary }
func (t *apiTool) InputSchema() json.RawMessage  { return t.op.InputSchema }
func (t *apiTool) Execute(ctx context.Context, params json.RawMessage, ec ExecContext) (any, error) {
	if t.invoke == nil {
		return nil, fmt.Errorf("api tool %q: no invoker configured", t.op.OperationID)
	}
	return t.invoke(ctx, t.op.OperationID, params, ec)
}

// GenerateFromOpenAPI wraps each operation as a RunnableTool, one per
// operationId, delegating execution to invoke.
func GenerateFromOpenAPI(ops []OpenAPIOperation, invoke Invoker) []RunnableTool {
	out := make([]RunnableTool, 0, len(ops))
	for _, op := range ops {
		out = append(out, &apiTool{op: op, invoke: invoke})
	}
	return out
}
