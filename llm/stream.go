package llm

// ChunkKind classifies a StreamChunk as raw provider token, classified
// content, or classified tool-call fragment.
type ChunkKind string

const (
	ChunkToken    ChunkKind = "token"
	ChunkContent  ChunkKind = "content"
	ChunkToolCall ChunkKind = "tool_call"
)

// StreamChunk is one unit forwarded to a ChatRequest.StreamCallback. Token
// chunks carry the raw provider delta; Content/ToolCall chunks are the
// classified output of the stateful markup splitter in Classifier.
type StreamChunk struct {
	Kind ChunkKind

	// Token is set when Kind == ChunkToken: the raw provider delta.
	Token string

	// ContentDelta is set when Kind == ChunkContent.
	ContentDelta string

	// ToolCallID/NameDelta/ArgsDelta are set when Kind == ChunkToolCall.
	ToolCallID string
	NameDelta  string
	ArgsDelta  string

	// IsComplete marks the final chunk of the stream (content or tool-call).
	IsComplete bool
}

// Classifier is a stateful splitter that turns a sequence of raw provider
// token deltas into classified content/tool-call StreamChunks, detecting the
// start/end markers of whatever inline function-call markup a given
// provider emits (distinct providers encode tool calls differently: some
// use a dedicated tool-use API with no inline markup at all, in which case
// every token is content and tool calls arrive out-of-band on the final
// response).
//
// One Classifier instance is scoped to a single Chat call; providers that
// never emit inline markup can use NewPassthroughClassifier, which treats
// every token as content.
type Classifier interface {
	// Feed classifies one raw token delta, returning zero or more chunks
	// derived from it (a single token may close out a partial tag and open a
	// new one, yielding two chunks).
	Feed(token string) []StreamChunk
	// Flush returns any chunks implied by end-of-stream (e.g. the final
	// IsComplete=true marker for whichever mode was active).
	Flush() []StreamChunk
}

// passthroughClassifier treats every token as content. Used by provider
// adapters whose native tool-use API never interleaves tool-call markup
// into the content stream.
type passthroughClassifier struct{}

// NewPassthroughClassifier returns a Classifier that forwards every token as
// a ChunkContent chunk unchanged.
func NewPassthroughClassifier() Classifier { return passthroughClassifier{} }

func (passthroughClassifier) Feed(token string) []StreamChunk {
	return []StreamChunk{{Kind: ChunkContent, ContentDelta: token}}
}

func (passthroughClassifier) Flush() []StreamChunk {
	return []StreamChunk{{Kind: ChunkContent, IsComplete: true}}
}
