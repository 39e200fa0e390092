package contextbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flowmesh-ai/flowmesh/store"
)

func TestBuildIncludesThreadTaskIdentityAndTimestamp(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	out := Build(Input{
		Thread:       store.Thread{Name: "support"},
		Participants: []Participant{{Name: "user1", Role: "customer"}},
		Task:         &Task{Name: "triage", Goal: "resolve ticket", Status: "open"},
		Agent:        store.AgentConfig{Name: "assistant", Role: "support agent", Instructions: "be concise"},
		Now:          now,
	})

	assert.Contains(t, out, "Thread: support")
	assert.Contains(t, out, "user1 | customer")
	assert.Contains(t, out, "Active task: triage")
	assert.Contains(t, out, "Goal: resolve ticket")
	assert.Contains(t, out, "You are assistant.")
	assert.Contains(t, out, "Instructions: be concise")
	assert.Contains(t, out, "Thursday, July 30, 2026")
}

func TestBuildOmitsTaskSectionWhenNil(t *testing.T) {
	t.Parallel()
	out := Build(Input{Thread: store.Thread{Name: "t"}, Agent: store.AgentConfig{Name: "a"}, Now: time.Now()})
	assert.NotContains(t, out, "Active task:")
}

func TestBuildListsOtherAvailableAgents(t *testing.T) {
	t.Parallel()
	out := Build(Input{
		Thread:      store.Thread{Name: "t"},
		Agent:       store.AgentConfig{Name: "a"},
		OtherAgents: []Participant{{Name: "reviewer", Role: "reviewer"}},
		Now:         time.Now(),
	})
	assert.Contains(t, out, "Other available agents")
	assert.Contains(t, out, "reviewer | reviewer")
}

func TestFilterOtherAgentsExcludesSelfAndThreadParticipants(t *testing.T) {
	t.Parallel()
	all := map[string]store.AgentConfig{
		"assistant": {Name: "assistant", Role: "support"},
		"reviewer":  {Name: "reviewer", Role: "qa"},
		"archivist": {Name: "archivist", Role: "storage"},
	}
	out := FilterOtherAgents([]string{"assistant", "reviewer", "archivist"}, "assistant", []string{"user1", "reviewer"}, all)
	assert.Equal(t, []Participant{{Name: "archivist", Role: "storage"}}, out)
}
