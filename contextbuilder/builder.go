// Package contextbuilder assembles the system prompt MessageProcessor sends
// to an agentic agent's LLM call: thread context, an optional active task,
// the agent's own identity, and the current date/time, joined deterministically
// so the same inputs always produce the same prompt.
package contextbuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/flowmesh-ai/flowmesh/store"
)

// Task is the optional active task bound to the session.
type Task struct {
	Name   string
	Goal   string
	Status string
}

// Participant is a thread member's catalog-derived identity, used for the
// "name | role | description" listing.
type Participant struct {
	Name        string
	Role        string
	Description string
}

// Input carries everything Build needs to compose a system prompt.
type Input struct {
	Thread        store.Thread
	Participants  []Participant // in thread order
	OtherAgents   []Participant // agents available but not in this thread
	Task          *Task
	Agent         store.AgentConfig
	Now           time.Time
}

// Build composes the system prompt as deterministic, blank-line-separated
// sections: thread context, task context (if present), agent identity,
// current date/time.
func Build(in Input) string {
	var sections []string

	sections = append(sections, threadSection(in))

	if in.Task != nil {
		sections = append(sections, taskSection(*in.Task))
	}

	sections = append(sections, identitySection(in.Agent))
	sections = append(sections, fmt.Sprintf("Current date/time: %s", in.Now.Format("Monday, January 2, 2006 15:04:05 MST")))

	return strings.Join(sections, "\n\n")
}

func threadSection(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thread: %s\n", in.Thread.Name)
	b.WriteString("Participants:\n")
	for _, p := range in.Participants {
		fmt.Fprintf(&b, "- %s | %s | %s\n", p.Name, p.Role, p.Description)
	}
	b.WriteString("Use @name to address a specific participant directly.")
	if len(in.OtherAgents) > 0 {
		b.WriteString("\n\nOther available agents (not in this thread; use ask_question or create_thread to delegate to them):\n")
		for _, a := range in.OtherAgents {
			fmt.Fprintf(&b, "- %s | %s | %s\n", a.Name, a.Role, a.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func taskSection(t Task) string {
	return fmt.Sprintf("Active task: %s\nGoal: %s\nStatus: %s", t.Name, t.Goal, t.Status)
}

func identitySection(a store.AgentConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n", a.Name)
	if a.Role != "" {
		fmt.Fprintf(&b, "Role: %s\n", a.Role)
	}
	if a.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s\n", a.Personality)
	}
	if a.Instructions != "" {
		fmt.Fprintf(&b, "Instructions: %s", a.Instructions)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FilterOtherAgents returns agents present in allAgents but neither equal to
// currentAgent nor already a thread participant, in a stable order matching
// the order they appear in allAgentNames.
func FilterOtherAgents(allAgentNames []string, currentAgent string, participants []string, allAgents map[string]store.AgentConfig) []Participant {
	inThread := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		inThread[p] = struct{}{}
	}
	var out []Participant
	for _, name := range allAgentNames {
		if name == currentAgent {
			continue
		}
		if _, ok := inThread[name]; ok {
			continue
		}
		a, ok := allAgents[name]
		if !ok {
			continue
		}
		out = append(out, Participant{Name: a.Name, Role: a.Role, Description: a.Description})
	}
	return out
}
