// Package bedrock adapts the AWS Bedrock Converse API
// (github.com/aws/aws-sdk-go-v2/service/bedrockruntime) to the llm.Service
// interface, encoding tool schemas into Bedrock's ToolConfiguration and
// translating tool_use content blocks back into event.ToolCallRef values.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/llm"
)

// RuntimeClient is the subset of the Bedrock runtime client used by Client.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures default model selection.
type Options struct {
	DefaultModel string
	MaxTokens    int
	Temperature  float32
}

// Client implements llm.Service on top of Bedrock Converse.
type Client struct {
	runtime      RuntimeClient
	defaultModel string
	maxTokens    int
	temperature  float32
}

// New builds a Client from an already-configured Bedrock runtime client.
func New(runtime RuntimeClient, opts Options) (*Client, error) {
	if runtime == nil {
		return nil, errors.New("bedrock runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model identifier is required")
	}
	return &Client{runtime: runtime, defaultModel: opts.DefaultModel, maxTokens: opts.MaxTokens, temperature: opts.Temperature}, nil
}

// Chat implements llm.Service.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	input, err := c.prepareInput(req)
	if err != nil {
		return llm.ChatResponse{Success: false, Err: err}, nil
	}
	out, err := c.runtime.Converse(ctx, input)
	if err != nil {
		return llm.ChatResponse{Success: false, Err: fmt.Errorf("bedrock converse: %w", err)}, nil
	}
	resp, err := translateOutput(out, *input.ModelId)
	if err != nil {
		return llm.ChatResponse{Success: false, Err: err}, nil
	}
	if req.StreamCallback != nil && resp.Answer != "" {
		req.StreamCallback(llm.StreamChunk{Kind: llm.ChunkContent, ContentDelta: resp.Answer})
		req.StreamCallback(llm.StreamChunk{Kind: llm.ChunkContent, IsComplete: true})
	}
	return resp, nil
}

func (c *Client) prepareInput(req llm.ChatRequest) (*bedrockruntime.ConverseInput, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("bedrock: messages are required")
	}
	model := req.Config.Model
	if model == "" {
		model = c.defaultModel
	}
	messages, system, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	input := &bedrockruntime.ConverseInput{
		ModelId:  &model,
		Messages: messages,
	}
	if len(system) > 0 {
		input.System = system
	}
	maxTokens := req.Config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	temp := req.Config.Temperature
	if temp == 0 {
		temp = float64(c.temperature)
	}
	if maxTokens > 0 || temp > 0 {
		cfg := &brtypes.InferenceConfiguration{}
		if maxTokens > 0 {
			mt := int32(maxTokens)
			cfg.MaxTokens = &mt
		}
		if temp > 0 {
			t := float32(temp)
			cfg.Temperature = &t
		}
		input.InferenceConfig = cfg
	}
	if len(req.Tools) > 0 {
		toolCfg, err := encodeTools(req.Tools)
		if err != nil {
			return nil, err
		}
		input.ToolConfig = toolCfg
	}
	return input, nil
}

func encodeMessages(msgs []llm.ChatMessage) ([]brtypes.Message, []brtypes.SystemContentBlock, error) {
	conversation := make([]brtypes.Message, 0, len(msgs))
	var system []brtypes.SystemContentBlock
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			if m.Content != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Content})
			}
			continue
		case llm.RoleUser:
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case llm.RoleTool:
			conversation = append(conversation, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberToolResult{Value: brtypes.ToolResultBlock{
					ToolUseId: &m.ToolCallID,
					Content:   []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: m.Content}},
				}}},
			})
		case llm.RoleAssistant:
			var blocks []brtypes.ContentBlock
			if m.Content != "" {
				blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: m.Content})
			}
			for _, tc := range m.ToolCalls {
				var input any
				if tc.Function.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
				}
				id := tc.ID
				name := tc.Function.Name
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{Value: brtypes.ToolUseBlock{
					ToolUseId: &id,
					Name:      &name,
					Input:     document.NewLazyDocument(input),
				}})
			}
			if len(blocks) == 0 {
				continue
			}
			conversation = append(conversation, brtypes.Message{Role: brtypes.ConversationRoleAssistant, Content: blocks})
		default:
			return nil, nil, fmt.Errorf("bedrock: unsupported role %q", m.Role)
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("bedrock: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeTools(specs []llm.ToolSpec) (*brtypes.ToolConfiguration, error) {
	tools := make([]brtypes.Tool, 0, len(specs))
	for _, s := range specs {
		var schema map[string]any
		if len(s.InputSchema) > 0 {
			if err := json.Unmarshal(s.InputSchema, &schema); err != nil {
				return nil, fmt.Errorf("bedrock: tool %q schema: %w", s.Name, err)
			}
		}
		name := s.Name
		desc := s.Description
		tools = append(tools, &brtypes.ToolMemberToolSpec{Value: brtypes.ToolSpecification{
			Name:        &name,
			Description: &desc,
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
		}})
	}
	return &brtypes.ToolConfiguration{Tools: tools}, nil
}

func translateOutput(out *bedrockruntime.ConverseOutput, model string) (llm.ChatResponse, error) {
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return llm.ChatResponse{}, errors.New("bedrock: unexpected converse output type")
	}
	var answer string
	var calls []event.ToolCallRef
	for _, block := range msg.Value.Content {
		switch b := block.(type) {
		case *brtypes.ContentBlockMemberText:
			answer += b.Value
		case *brtypes.ContentBlockMemberToolUse:
			var args []byte
			if b.Value.Input != nil {
				var v any
				if err := b.Value.Input.UnmarshalSmithyDocument(&v); err == nil {
					args, _ = json.Marshal(v)
				}
			}
			ref := event.ToolCallRef{}
			if b.Value.ToolUseId != nil {
				ref.ID = *b.Value.ToolUseId
			}
			if b.Value.Name != nil {
				ref.Function.Name = *b.Value.Name
			}
			ref.Function.Arguments = string(args)
			calls = append(calls, ref)
		}
	}
	tokens := 0
	if out.Usage != nil {
		tokens = int(out.Usage.TotalTokens)
	}
	return llm.ChatResponse{
		Success:   true,
		Answer:    answer,
		ToolCalls: calls,
		Tokens:    tokens,
		Model:     model,
		Provider:  "bedrock",
	}, nil
}
