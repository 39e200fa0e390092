// Package openai adapts github.com/openai/openai-go to the llm.Service
// interface, translating Chat Completions tool_calls into event.ToolCallRef
// values.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/llm"
)

// CompletionsClient is the subset of the OpenAI SDK used by Client.
type CompletionsClient interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Options configures default model selection.
type Options struct {
	DefaultModel string
	Temperature  float64
}

// Client implements llm.Service on top of Chat Completions.
type Client struct {
	completions  CompletionsClient
	defaultModel string
	temperature  float64
}

// New builds a Client from an already-configured completions client.
func New(completions CompletionsClient, opts Options) (*Client, error) {
	if completions == nil {
		return nil, errors.New("openai client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model identifier is required")
	}
	return &Client{completions: completions, defaultModel: opts.DefaultModel, temperature: opts.Temperature}, nil
}

// NewFromAPIKey builds a Client using sdk.NewClient(option.WithAPIKey(apiKey)).
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Chat.Completions, Options{DefaultModel: defaultModel})
}

// Chat implements llm.Service.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	params, err := c.prepareRequest(req)
	if err != nil {
		return llm.ChatResponse{Success: false, Err: err}, nil
	}
	comp, err := c.completions.New(ctx, *params)
	if err != nil {
		return llm.ChatResponse{Success: false, Err: fmt.Errorf("openai chat.completions.new: %w", err)}, nil
	}
	if len(comp.Choices) == 0 {
		return llm.ChatResponse{Success: false, Err: errors.New("openai: no choices returned")}, nil
	}
	resp := translateResponse(comp)
	if req.StreamCallback != nil && resp.Answer != "" {
		req.StreamCallback(llm.StreamChunk{Kind: llm.ChunkContent, ContentDelta: resp.Answer})
		req.StreamCallback(llm.StreamChunk{Kind: llm.ChunkContent, IsComplete: true})
	}
	return resp, nil
}

func (c *Client) prepareRequest(req llm.ChatRequest) (*sdk.ChatCompletionNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("openai: messages are required")
	}
	model := req.Config.Model
	if model == "" {
		model = c.defaultModel
	}
	messages, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	params := &sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: messages,
	}
	if t := req.Config.Temperature; t > 0 {
		params.Temperature = sdk.Float(t)
	} else if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = encodeTools(req.Tools)
	}
	return params, nil
}

func encodeMessages(msgs []llm.ChatMessage) ([]sdk.ChatCompletionMessageParamUnion, error) {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, sdk.SystemMessage(m.Content))
		case llm.RoleUser:
			out = append(out, sdk.UserMessage(m.Content))
		case llm.RoleTool:
			out = append(out, sdk.ToolMessage(m.Content, m.ToolCallID))
		case llm.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, sdk.AssistantMessage(m.Content))
				continue
			}
			calls := make([]sdk.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				calls = append(calls, sdk.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: sdk.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			param := sdk.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if m.Content != "" {
				param.Content = sdk.ChatCompletionAssistantMessageParamContentUnion{
					OfString: sdk.String(m.Content),
				}
			}
			out = append(out, sdk.ChatCompletionMessageParamUnion{OfAssistant: &param})
		default:
			return nil, fmt.Errorf("openai: unsupported role %q", m.Role)
		}
	}
	return out, nil
}

func encodeTools(specs []llm.ToolSpec) []sdk.ChatCompletionToolUnionParam {
	out := make([]sdk.ChatCompletionToolUnionParam, 0, len(specs))
	for _, s := range specs {
		var params sdk.FunctionParameters
		if len(s.InputSchema) > 0 {
			_ = json.Unmarshal(s.InputSchema, &params)
		}
		out = append(out, sdk.ChatCompletionFunctionTool(sdk.FunctionDefinitionParam{
			Name:        s.Name,
			Description: sdk.String(s.Description),
			Parameters:  params,
		}))
	}
	return out
}

func translateResponse(comp *sdk.ChatCompletion) llm.ChatResponse {
	msg := comp.Choices[0].Message
	calls := make([]event.ToolCallRef, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		ref := event.ToolCallRef{ID: tc.ID}
		ref.Function.Name = tc.Function.Name
		ref.Function.Arguments = tc.Function.Arguments
		calls = append(calls, ref)
	}
	return llm.ChatResponse{
		Success:   true,
		Answer:    msg.Content,
		ToolCalls: calls,
		Tokens:    int(comp.Usage.TotalTokens),
		Model:     string(comp.Model),
		Provider:  "openai",
	}
}
