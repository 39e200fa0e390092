// Package mongostore provides a MongoDB-backed implementation of store.Store,
// suitable for a durable multi-process FlowMesh deployment: a thin Store
// that delegates to collection-scoped helpers, with indexes created once at
// construction time.
//
// Collections: threads, messages, events, tool_logs, catalog_agents,
// catalog_tools, catalog_apis, users. Event claim semantics are implemented
// with FindOneAndUpdate filtering on status="pending", atomic at the
// single-document level.
package mongostore
