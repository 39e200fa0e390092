// Package anthropic adapts github.com/anthropics/anthropic-sdk-go to the
// llm.Service interface, translating Claude's native tool_use content
// blocks into event.ToolCallRef values so MessageProcessor never sees
// provider-specific markup.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/llm"
)

// MessagesClient is the subset of the Anthropic SDK used by Client, letting
// tests substitute a fake.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures default model selection.
type Options struct {
	DefaultModel string
	MaxTokens    int
	Temperature  float64
}

// Client implements llm.Service on top of Claude Messages.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
	temperature  float64
}

// New builds a Client from an already-configured Anthropic Messages client.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model identifier is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{msg: msg, defaultModel: opts.DefaultModel, maxTokens: maxTokens, temperature: opts.Temperature}, nil
}

// NewFromAPIKey builds a Client using sdk.NewClient(option.WithAPIKey(apiKey)).
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	sc := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&sc.Messages, Options{DefaultModel: defaultModel})
}

// Chat implements llm.Service.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	params, err := c.prepareRequest(req)
	if err != nil {
		return llm.ChatResponse{Success: false, Err: err}, nil
	}
	msg, err := c.msg.New(ctx, *params)
	if err != nil {
		return llm.ChatResponse{Success: false, Err: fmt.Errorf("anthropic messages.new: %w", err)}, nil
	}
	resp := translateResponse(msg)
	if req.StreamCallback != nil && resp.Answer != "" {
		// Non-streaming call: deliver the full answer as a single content chunk
		// followed by completion, so callers driving onContentStream uniformly
		// still see at least one event.
		req.StreamCallback(llm.StreamChunk{Kind: llm.ChunkContent, ContentDelta: resp.Answer})
		req.StreamCallback(llm.StreamChunk{Kind: llm.ChunkContent, IsComplete: true})
	}
	return resp, nil
}

func (c *Client) prepareRequest(req llm.ChatRequest) (*sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("anthropic: messages are required")
	}
	model := req.Config.Model
	if model == "" {
		model = c.defaultModel
	}
	conversation, system, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	maxTokens := req.Config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	params := &sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	if t := req.Config.Temperature; t > 0 {
		params.Temperature = sdk.Float(t)
	} else if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}
	if len(req.Tools) > 0 {
		tools, err := encodeTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}
	return params, nil
}

func encodeMessages(msgs []llm.ChatMessage) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(msgs))
	var system []sdk.TextBlockParam
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			if m.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Content})
			}
		case llm.RoleUser:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case llm.RoleTool:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		case llm.RoleAssistant:
			blocks := make([]sdk.ContentBlockParamUnion, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input any
				if tc.Function.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
				}
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
			if len(blocks) > 0 {
				conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
			}
		default:
			return nil, nil, fmt.Errorf("anthropic: unsupported role %q", m.Role)
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeTools(specs []llm.ToolSpec) ([]sdk.ToolUnionParam, error) {
	out := make([]sdk.ToolUnionParam, 0, len(specs))
	for _, s := range specs {
		var schemaFields map[string]any
		if len(s.InputSchema) > 0 {
			if err := json.Unmarshal(s.InputSchema, &schemaFields); err != nil {
				return nil, fmt.Errorf("anthropic: tool %q schema: %w", s.Name, err)
			}
		}
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: schemaFields}, s.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(s.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func translateResponse(msg *sdk.Message) llm.ChatResponse {
	var answer string
	var calls []event.ToolCallRef
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			answer += block.Text
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			ref := event.ToolCallRef{ID: block.ID}
			ref.Function.Name = block.Name
			ref.Function.Arguments = string(args)
			calls = append(calls, ref)
		}
	}
	tokens := int(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	return llm.ChatResponse{
		Success:   true,
		Answer:    answer,
		ToolCalls: calls,
		Tokens:    tokens,
		Model:     string(msg.Model),
		Provider:  "anthropic",
	}
}
