package anthropic

// --- Anthropic Messages API types (non-streaming subset) ---
// Reference: https://docs.anthropic.com/en/docs/build-with-claude/tool-use
//
// Key differences from OpenAI: messages use content blocks instead of a
// flat string; system prompt is a separate top-level field, not a
// message; structured output is obtained by forcing a single tool call
// rather than a response_format field.

type Request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  *ToolChoice `json:"tool_choice,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Message struct {
	Role    string         `json:"role"` // "user" | "assistant"
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Type string `json:"type"` // "text" | "tool_use"

	Text string `json:"text,omitempty"`

	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`
}

// Tool is an Anthropic tool definition. Type "" means a client tool with
// an input_schema; a server tool (e.g. web search) sets Type instead.
type Tool struct {
	Type        string                 `json:"type,omitempty"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

// ToolChoice forces the model to call a specific named tool, the
// mechanism used here to obtain schema-constrained structured output.
type ToolChoice struct {
	Type string `json:"type"` // "tool"
	Name string `json:"name"`
}

type Response struct {
	ID         string         `json:"id"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u *Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}
