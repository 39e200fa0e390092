package event

import (
	"encoding/json"
	"fmt"
)

// EncodePayload serializes a Payload to typed JSON, suitable for storing
// alongside its Type discriminator.
func EncodePayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload parses raw into the concrete Payload variant matching t.
func DecodePayload(t Type, raw []byte) (Payload, error) {
	switch t {
	case TypeMessage:
		var p MessagePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode MESSAGE payload: %w", err)
		}
		return p, nil
	case TypeToolCall:
		var p ToolCallPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode TOOL_CALL payload: %w", err)
		}
		return p, nil
	case TypeToolResult:
		var p ToolResultPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode TOOL_RESULT payload: %w", err)
		}
		return p, nil
	case TypeSystem:
		var p SystemPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode SYSTEM payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("decode payload: unknown event type %q", t)
	}
}
