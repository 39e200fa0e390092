package processor

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/flowmesh-ai/flowmesh/contextbuilder"
	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/hooks"
	"github.com/flowmesh-ai/flowmesh/llm"
	"github.com/flowmesh-ai/flowmesh/router"
	"github.com/flowmesh-ai/flowmesh/store"
)

const historyLimit = 200

// MessageProcessor implements the MESSAGE event algorithm: persist, route,
// and dispatch to either a programmatic agent or an LLM turn.
type MessageProcessor struct{}

func (MessageProcessor) ShouldProcess(context.Context, event.Event, Deps) (bool, error) {
	return true, nil
}

// PreProcess persists a non-empty inbound content as a Message before any
// routing or user callback sees it.
func (MessageProcessor) PreProcess(ctx context.Context, evt event.Event, deps Deps) (Result, error) {
	p, ok := evt.Payload.(event.MessagePayload)
	if !ok {
		return Result{}, fmt.Errorf("message processor: unexpected payload type %T", evt.Payload)
	}
	if p.Content == "" {
		return Result{}, nil
	}
	m := store.Message{
		ThreadID:   evt.ThreadID,
		SenderID:   p.SenderID,
		SenderType: p.SenderType,
		Content:    p.Content,
		ToolCalls:  p.ToolCalls,
		ToolCallID: p.ToolCallID,
	}
	created, err := deps.Catalog.CreateMessage(ctx, m)
	if err != nil {
		return Result{}, err
	}
	if deps.Bus != nil {
		_ = deps.Bus.Publish(ctx, hooks.NewMessageReceived(created))
	}
	return Result{}, nil
}

// Process implements target discovery, the programmatic branch, and the LLM
// branch.
func (MessageProcessor) Process(ctx context.Context, evt event.Event, deps Deps) (Result, error) {
	p, ok := evt.Payload.(event.MessagePayload)
	if !ok {
		return Result{}, fmt.Errorf("message processor: unexpected payload type %T", evt.Payload)
	}

	thread, err := deps.Catalog.GetThread(ctx, evt.ThreadID)
	if err != nil {
		return Result{}, err
	}

	targets := dedupeByName(router.Route(p, thread, deps.Agents))
	if len(targets) == 0 {
		return Result{}, nil
	}

	var produced []event.Event
	for _, agent := range targets {
		history, err := deps.Catalog.GetHistory(ctx, evt.ThreadID, agent.Name, historyLimit)
		if err != nil {
			return Result{}, err
		}

		var events []event.Event
		if agent.AgentType == store.AgentTypeProgrammatic {
			events, err = processProgrammatic(ctx, evt, agent, p, history, deps)
		} else {
			events, err = processAgentic(ctx, evt, agent, p, thread, history, deps)
		}
		if err != nil {
			return Result{}, err
		}
		produced = append(produced, events...)
	}
	return Result{ProducedEvents: produced}, nil
}

func processProgrammatic(ctx context.Context, evt event.Event, agent store.AgentConfig, p event.MessagePayload, history []store.Message, deps Deps) ([]event.Event, error) {
	if agent.ProcessingFunc == nil {
		return nil, nil
	}
	out, err := agent.ProcessingFunc(store.ProcessingFuncContext{
		Message: store.Message{
			ThreadID:   evt.ThreadID,
			SenderID:   p.SenderID,
			SenderType: p.SenderType,
			Content:    p.Content,
			ToolCalls:  p.ToolCalls,
			ToolCallID: p.ToolCallID,
		},
		History:  history,
		ThreadID: evt.ThreadID,
	})
	if err != nil {
		return nil, err
	}

	var produced []event.Event
	if out.Content != "" {
		if _, err := deps.Catalog.CreateMessage(ctx, store.Message{
			ThreadID:   evt.ThreadID,
			SenderID:   agent.Name,
			SenderType: event.SenderAgent,
			Content:    out.Content,
			ToolCalls:  out.ToolCalls,
		}); err != nil {
			return nil, err
		}
	}
	for _, call := range out.ToolCalls {
		produced = append(produced, newToolCallEvent(evt.ThreadID, agent.Name, call))
	}
	if out.ShouldContinue || len(router.ExtractMentions(out.Content)) > 0 {
		produced = append(produced, newMessageEvent(evt.ThreadID, agent.Name, out.Content, out.ToolCalls))
	}
	return produced, nil
}

func processAgentic(ctx context.Context, evt event.Event, agent store.AgentConfig, p event.MessagePayload, thread store.Thread, history []store.Message, deps Deps) ([]event.Event, error) {
	prompt := buildSystemPrompt(ctx, agent, thread, deps)
	chatHistory := contextbuilder.BuildChatHistory(history, agent.Name)

	tools, err := availableTools(ctx, deps, agent)
	if err != nil {
		return nil, err
	}

	req := llm.ChatRequest{
		Messages: append([]llm.ChatMessage{{Role: llm.RoleSystem, Content: prompt}}, chatHistory...),
		Tools:    tools,
		Config:   llmConfig(agent),
	}
	if deps.Bus != nil {
		req.StreamCallback = func(chunk llm.StreamChunk) {
			publishStreamChunk(ctx, deps.Bus, evt.ThreadID, chunk)
		}
	}

	resp, err := deps.LLM.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	if deps.Bus != nil {
		_ = deps.Bus.Publish(ctx, hooks.NewLLMCompleted(evt.ThreadID, resp.Success, resp.Answer, resp.ToolCalls, resp.Err, resp.Model, resp.Provider))
	}
	if !resp.Success {
		return nil, nil
	}

	answer := normalizeAnswer(resp.Answer, agent.Name)
	toolCalls := withSynthesizedIDs(resp.ToolCalls)

	var produced []event.Event
	if answer != "" {
		msg, err := deps.Catalog.CreateMessage(ctx, store.Message{
			ThreadID:   evt.ThreadID,
			SenderID:   agent.Name,
			SenderType: event.SenderAgent,
			Content:    answer,
			ToolCalls:  toolCalls,
		})
		if err != nil {
			return nil, err
		}
		if deps.Bus != nil {
			_ = deps.Bus.Publish(ctx, hooks.NewMessageSent(msg))
		}
	}

	for _, call := range toolCalls {
		produced = append(produced, newToolCallEvent(evt.ThreadID, agent.Name, call))
	}
	produced = append(produced, newMessageEvent(evt.ThreadID, agent.Name, answer, toolCalls))
	return produced, nil
}

// withSynthesizedIDs assigns each unidentified tool call an ID derived from
// its function name and position, so downstream tool-result correlation
// always has a key.
func withSynthesizedIDs(calls []event.ToolCallRef) []event.ToolCallRef {
	if len(calls) == 0 {
		return calls
	}
	out := make([]event.ToolCallRef, len(calls))
	for i, call := range calls {
		if call.ID == "" {
			call.ID = fmt.Sprintf("%s_%d", call.Function.Name, i)
		}
		out[i] = call
	}
	return out
}

// normalizeAnswer strips an accidental self-prefix ("[AgentName]:" or
// "@AgentName:") the model may have echoed from the role-labeled history.
func normalizeAnswer(answer, agentName string) string {
	pattern := regexp.MustCompile(`^(?:\[` + regexp.QuoteMeta(agentName) + `\]:|@` + regexp.QuoteMeta(agentName) + `:)\s*`)
	return pattern.ReplaceAllString(strings.TrimSpace(answer), "")
}

func buildSystemPrompt(ctx context.Context, agent store.AgentConfig, thread store.Thread, deps Deps) string {
	participants := make([]contextbuilder.Participant, 0, len(thread.Participants))
	for _, pid := range thread.Participants {
		if a, ok := deps.Agents[pid]; ok {
			participants = append(participants, contextbuilder.Participant{Name: a.Name, Role: a.Role, Description: a.Description})
		}
	}
	allAgentNames := make([]string, 0, len(deps.Agents))
	for name := range deps.Agents {
		allAgentNames = append(allAgentNames, name)
	}
	sort.Strings(allAgentNames)
	other := contextbuilder.FilterOtherAgents(allAgentNames, agent.Name, thread.Participants, deps.Agents)
	return contextbuilder.Build(contextbuilder.Input{
		Thread:       thread,
		Participants: participants,
		OtherAgents:  other,
		Agent:        agent,
		Now:          time.Now(),
	})
}

func availableTools(ctx context.Context, deps Deps, agent store.AgentConfig) ([]llm.ToolSpec, error) {
	all, err := deps.Tools.List(ctx)
	if err != nil {
		return nil, err
	}
	specs := make([]llm.ToolSpec, 0, len(all))
	for _, t := range all {
		if !store.Allowed(agent.AllowedTools, t.Key()) {
			continue
		}
		if !toolPassesTagPolicy(ctx, deps, agent, t.Key()) {
			continue
		}
		// Name is the tool's registry Key, not its display Name: the LLM
		// echoes this string back on a tool call, and ToolCallProcessor must
		// be able to resolve it via Tools.Get without a separate name index.
		specs = append(specs, llm.ToolSpec{Name: t.Key(), Description: t.Description(), InputSchema: t.InputSchema()})
	}
	return specs, nil
}

// toolPassesTagPolicy applies agent.AllowTags/BlockTags against the catalog
// row's Tags. A tool with no catalog row (native tools registered only in
// the ToolRegistry, never upserted into the catalog) is not tag-restricted.
func toolPassesTagPolicy(ctx context.Context, deps Deps, agent store.AgentConfig, key string) bool {
	if len(agent.AllowTags) == 0 && len(agent.BlockTags) == 0 {
		return true
	}
	ct, err := deps.Catalog.GetTool(ctx, key)
	if err != nil {
		return true
	}
	return store.TagsAllowed(agent.AllowTags, agent.BlockTags, ct.Tags)
}

func llmConfig(agent store.AgentConfig) llm.Config {
	cfg := llm.Config{Extra: agent.LLMOptions}
	if agent.LLMOptions == nil {
		return cfg
	}
	if m, ok := agent.LLMOptions["model"].(string); ok {
		cfg.Model = m
	}
	if t, ok := agent.LLMOptions["temperature"].(float64); ok {
		cfg.Temperature = t
	}
	if mt, ok := agent.LLMOptions["maxTokens"].(int); ok {
		cfg.MaxTokens = mt
	}
	return cfg
}

func publishStreamChunk(ctx context.Context, bus hooks.Bus, threadID string, chunk llm.StreamChunk) {
	switch chunk.Kind {
	case llm.ChunkToken:
		_ = bus.Publish(ctx, hooks.NewTokenStream(threadID, chunk.Token, chunk.IsComplete))
	case llm.ChunkContent:
		_ = bus.Publish(ctx, hooks.NewContentStream(threadID, chunk.ContentDelta, chunk.IsComplete))
	case llm.ChunkToolCall:
		_ = bus.Publish(ctx, hooks.NewToolCallStream(threadID, chunk.ToolCallID, chunk.NameDelta, chunk.ArgsDelta, chunk.IsComplete))
	}
}

func newMessageEvent(threadID, senderID, content string, toolCalls []event.ToolCallRef) event.Event {
	return event.Event{
		ThreadID: threadID,
		Type:     event.TypeMessage,
		Payload: event.MessagePayload{
			SenderID:   senderID,
			SenderType: event.SenderAgent,
			Content:    content,
			ToolCalls:  toolCalls,
		},
	}
}

func newToolCallEvent(threadID, agentName string, call event.ToolCallRef) event.Event {
	return event.Event{
		ThreadID: threadID,
		Type:     event.TypeToolCall,
		Payload: event.ToolCallPayload{
			AgentName: agentName,
			Call:      call,
		},
	}
}

func dedupeByName(agents []store.AgentConfig) []store.AgentConfig {
	seen := make(map[string]struct{}, len(agents))
	out := make([]store.AgentConfig, 0, len(agents))
	for _, a := range agents {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		out = append(out, a)
	}
	return out
}
