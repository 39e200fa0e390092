package contextbuilder

import (
	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/llm"
	"github.com/flowmesh-ai/flowmesh/store"
)

// BuildChatHistory converts persisted Messages into role-labeled
// llm.ChatMessage values for forAgent's LLM call.
// Messages from other participants are prefixed with "[SenderName]:" and
// tool-result messages with "[Tool Result]:" so forAgent can distinguish
// speakers; forAgent's own prior messages are not prefixed. A prior
// assistant message's ToolCalls are reattached unchanged so the provider
// adapter can rehydrate its native tool-use protocol.
func BuildChatHistory(history []store.Message, forAgent string) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		switch m.SenderType {
		case event.SenderTool:
			out = append(out, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    "[Tool Result]: " + m.Content,
				ToolCallID: m.ToolCallID,
			})
		case event.SenderAgent:
			if m.SenderID == forAgent {
				out = append(out, llm.ChatMessage{
					Role:      llm.RoleAssistant,
					Content:   m.Content,
					ToolCalls: m.ToolCalls,
				})
				continue
			}
			out = append(out, llm.ChatMessage{
				Role:    llm.RoleUser,
				Content: "[" + m.SenderID + "]: " + m.Content,
			})
		default: // user, system
			content := m.Content
			if m.SenderType == event.SenderUser {
				content = "[" + m.SenderID + "]: " + m.Content
			}
			out = append(out, llm.ChatMessage{Role: llm.RoleUser, Content: content})
		}
	}
	return out
}
