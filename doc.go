// Package flowmesh is the root of a durable, event-driven multi-agent
// conversation engine. It ties together a per-thread event queue (package
// queue), a durable relational-ish store (package store), pluggable event
// processors (package processor), and the agent/tool/LLM abstractions
// (store.AgentConfig and packages llm, toolregistry) that drive a
// conversation forward.
//
// The entry point for embedding FlowMesh in a host application is package
// session: session.Runtime.Start enqueues the first event and runs it to
// quiescence.
package flowmesh
