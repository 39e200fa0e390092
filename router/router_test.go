package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/store"
)

func TestExtractMentionsDedupesPreservingOrder(t *testing.T) {
	t.Parallel()
	got := ExtractMentions("hey @Bob can @Alice and @Bob help?")
	assert.Equal(t, []string{"Bob", "Alice"}, got)
}

func TestExtractMentionsIsCaseSensitive(t *testing.T) {
	t.Parallel()
	got := ExtractMentions("@bob vs @Bob are different targets")
	assert.Equal(t, []string{"bob", "Bob"}, got)
}

func TestRouteToolResultFanInBypassesEverything(t *testing.T) {
	t.Parallel()
	agents := map[string]store.AgentConfig{
		"assistant": {Name: "assistant"},
	}
	payload := event.MessagePayload{SenderType: event.SenderTool, SenderID: "assistant", Content: "@other ignored"}
	thread := store.Thread{Participants: []string{"user1", "assistant"}}

	targets := Route(payload, thread, agents)
	assert.Equal(t, []store.AgentConfig{{Name: "assistant"}}, targets)
}

func TestRouteToolResultUnknownAgentYieldsNoTarget(t *testing.T) {
	t.Parallel()
	payload := event.MessagePayload{SenderType: event.SenderTool, SenderID: "ghost"}
	targets := Route(payload, store.Thread{}, map[string]store.AgentConfig{})
	assert.Nil(t, targets)
}

func TestRouteMentionRouting(t *testing.T) {
	t.Parallel()
	agents := map[string]store.AgentConfig{
		"Alice": {Name: "Alice"},
		"Bob":   {Name: "Bob"},
	}
	payload := event.MessagePayload{SenderType: event.SenderUser, SenderID: "user1", Content: "@Alice and @Bob please look"}
	targets := Route(payload, store.Thread{}, agents)
	assert.ElementsMatch(t, []store.AgentConfig{{Name: "Alice"}, {Name: "Bob"}}, targets)
}

func TestRouteMentionRoutingFiltersByAllowedAgents(t *testing.T) {
	t.Parallel()
	agents := map[string]store.AgentConfig{
		"router": {Name: "router", AllowedAgents: map[string]struct{}{"Alice": {}}},
		"Alice":  {Name: "Alice"},
		"Bob":    {Name: "Bob"},
	}
	payload := event.MessagePayload{SenderType: event.SenderAgent, SenderID: "router", Content: "@Alice @Bob"}
	targets := Route(payload, store.Thread{}, agents)
	assert.Equal(t, []store.AgentConfig{{Name: "Alice"}}, targets)
}

func TestRouteTwoPartyFallback(t *testing.T) {
	t.Parallel()
	agents := map[string]store.AgentConfig{
		"assistant": {Name: "assistant"},
	}
	thread := store.Thread{Participants: []string{"user1", "assistant"}}
	payload := event.MessagePayload{SenderType: event.SenderUser, SenderID: "user1", Content: "hello, no mention here"}

	targets := Route(payload, thread, agents)
	assert.Equal(t, []store.AgentConfig{{Name: "assistant"}}, targets)
}

func TestRouteNoImplicitTargetWithMoreThanTwoParticipants(t *testing.T) {
	t.Parallel()
	agents := map[string]store.AgentConfig{
		"assistant": {Name: "assistant"},
		"reviewer":  {Name: "reviewer"},
	}
	thread := store.Thread{Participants: []string{"user1", "assistant", "reviewer"}}
	payload := event.MessagePayload{SenderType: event.SenderUser, SenderID: "user1", Content: "no mention, three participants"}

	targets := Route(payload, thread, agents)
	assert.Nil(t, targets)
}
