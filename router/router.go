// Package router resolves which AgentConfig(s) a MESSAGE payload should be
// delivered to, per the ordered rules: tool-result fan-in, @mention routing,
// two-party fallback, otherwise no implicit target.
package router

import (
	"regexp"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/store"
)

// mentionPattern matches "@name" tokens where name is one or more word
// characters, case-sensitive.
var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions returns the distinct @name tokens in content, in order of
// first appearance.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Route resolves target agents for payload given the thread's participants
// and the set of agents available in the session, following the ordered
// rules. availableAgents is keyed by agent name.
func Route(payload event.MessagePayload, thread store.Thread, availableAgents map[string]store.AgentConfig) []store.AgentConfig {
	// Rule 1: tool-result fan-in. The tool result's senderId names the agent
	// that originated the call; it always returns there, bypassing every
	// other filter.
	if payload.SenderType == event.SenderTool {
		if a, ok := availableAgents[payload.SenderID]; ok {
			return []store.AgentConfig{a}
		}
		return nil
	}

	// Rule 2: @mention routing.
	if mentions := ExtractMentions(payload.Content); len(mentions) > 0 {
		var targets []store.AgentConfig
		for _, name := range mentions {
			a, ok := availableAgents[name]
			if !ok {
				continue
			}
			targets = append(targets, a)
		}
		return applyAllowedAgentsFilter(payload, availableAgents, targets)
	}

	// Rule 3: two-party fallback.
	if len(thread.Participants) == 2 {
		for _, p := range thread.Participants {
			if p == payload.SenderID {
				continue
			}
			if a, ok := availableAgents[p]; ok {
				return applyAllowedAgentsFilter(payload, availableAgents, []store.AgentConfig{a})
			}
		}
	}

	// Rule 4: no implicit target.
	return nil
}

// applyAllowedAgentsFilter drops targets not in the sending agent's
// allowedAgents set. It never applies when the sender is a user, tool, or
// system: the filter only constrains agent-to-agent addressing. A nil
// allowedAgents set means unrestricted.
func applyAllowedAgentsFilter(payload event.MessagePayload, availableAgents map[string]store.AgentConfig, targets []store.AgentConfig) []store.AgentConfig {
	if payload.SenderType != event.SenderAgent {
		return targets
	}
	sender, ok := availableAgents[payload.SenderID]
	if !ok || sender.AllowedAgents == nil {
		return targets
	}
	filtered := make([]store.AgentConfig, 0, len(targets))
	for _, t := range targets {
		if store.Allowed(sender.AllowedAgents, t.Name) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
