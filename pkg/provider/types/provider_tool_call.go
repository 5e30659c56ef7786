package types

import "encoding/json"

// Citation represents a single citation attached to generated text, such
// as Anthropic's citations_delta events. The raw provider payload is kept
// under RawCitation so callers needing vendor-specific fields (page
// numbers, document titles, URLs) can parse it themselves without this
// type having to model every vendor's citation schema.
type Citation struct {
	// Type is the provider-reported citation kind (e.g. "char_location",
	// "web_search_result_location").
	Type string `json:"type"`

	// RawCitation is the unparsed citation object as the provider sent it.
	RawCitation json.RawMessage `json:"-"`
}

// ProviderExecutedToolCall represents a tool invocation carried out by the
// provider itself rather than dispatched locally (Anthropic's
// server_tool_use/mcp_tool_use and their matching *_tool_result events).
// Result is nil until the matching result event arrives.
type ProviderExecutedToolCall struct {
	ID        string
	ToolName  string
	Arguments map[string]interface{}
	Result    interface{}
}
