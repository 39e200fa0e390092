package catalog

import (
	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/store"
)

func emptySpec() store.ThreadSpec { return store.ThreadSpec{} }

func message(threadID, senderID, content string) store.Message {
	return store.Message{
		ThreadID:   threadID,
		SenderID:   senderID,
		SenderType: event.SenderUser,
		Content:    content,
	}
}

func toolRow(key, name string) store.CatalogTool {
	return store.CatalogTool{Key: key, Name: name}
}
