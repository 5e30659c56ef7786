package types

import "strings"

// Role identifies who authored a message in a prompt.
type Role string

const (
	// RoleSystem carries instructions that steer the model's behavior.
	RoleSystem Role = "system"
	// RoleUser carries input supplied by the caller.
	RoleUser Role = "user"
	// RoleAssistant carries a prior model response, including tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool carries the results of executed tool calls back to the model.
	RoleTool Role = "tool"
)

// Message is one turn of a prompt: a role plus an ordered sequence of
// content parts. ProviderOptions carries settings keyed by provider id
// (e.g. "anthropic") that apply to the whole message rather than a
// single part.
type Message struct {
	Role            Role                   `json:"role"`
	Parts           []Part                 `json:"parts"`
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`

	// Name optionally distinguishes multiple senders under the same role.
	Name string `json:"name,omitempty"`
}

// Part is one tagged content part of a Message. A message's Parts slice
// may mix several kinds, e.g. a Text part alongside a ToolCall part in
// the same assistant turn.
type Part interface {
	// PartKind reports the discriminator used on the wire ("text",
	// "reasoning", "inline-file", "url-file", "tool-call", "tool-result").
	PartKind() string
}

// TextPart is ordinary visible text.
type TextPart struct {
	Text string `json:"text"`

	// ProviderOptions carries per-part settings, e.g. Anthropic's
	// cacheControl on a text block.
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// PartKind implements Part.
func (t TextPart) PartKind() string { return "text" }

// ReasoningPart is the model's visible thinking trace, distinct from its
// final answer text. Signature and RedactedData carry the provider's
// cryptographic receipt for the trace (Anthropic's thinking/redacted_thinking
// blocks): a part with neither cannot be safely replayed back to the
// provider in a follow-up request.
type ReasoningPart struct {
	Text            string                 `json:"text"`
	Signature       string                 `json:"signature,omitempty"`
	RedactedData    string                 `json:"redactedData,omitempty"`
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// PartKind implements Part.
func (r ReasoningPart) PartKind() string { return "reasoning" }

// FileKind classifies a file part's MIME type into one of the coarse
// buckets providers branch on when deciding how to encode a file.
type FileKind string

const (
	FileKindImage   FileKind = "image"
	FileKindPDF     FileKind = "pdf"
	FileKindText    FileKind = "text"
	FileKindGeneric FileKind = "generic"
)

// ClassifyMimeType buckets a MIME type into a FileKind. Unrecognized or
// empty MIME types classify as FileKindGeneric.
func ClassifyMimeType(mimeType string) FileKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return FileKindImage
	case mimeType == "application/pdf":
		return FileKindPDF
	case strings.HasPrefix(mimeType, "text/"):
		return FileKindText
	default:
		return FileKindGeneric
	}
}

// InlineFilePart carries file bytes embedded directly in the prompt
// (e.g. an uploaded image or PDF).
type InlineFilePart struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename,omitempty"`

	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// PartKind implements Part.
func (f InlineFilePart) PartKind() string { return "inline-file" }

// Kind reports the coarse file classification for this part's MimeType.
func (f InlineFilePart) Kind() FileKind { return ClassifyMimeType(f.MimeType) }

// UrlFilePart references a file hosted remotely instead of embedding its
// bytes. Providers that support remote references (rather than requiring
// inline bytes) use this to avoid re-uploading large files.
type UrlFilePart struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`

	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// PartKind implements Part.
func (u UrlFilePart) PartKind() string { return "url-file" }

// Kind reports the coarse file classification for this part's MimeType.
func (u UrlFilePart) Kind() FileKind { return ClassifyMimeType(u.MimeType) }

// ToolCallPart is an assistant-authored request to invoke a tool.
// ArgumentsJSON is kept as a raw JSON string, not a decoded map, so that
// arguments round-trip byte-for-byte through providers that stream them
// incrementally and may deliver non-canonical JSON (extra whitespace,
// key order) that a decode/re-encode cycle would silently normalize.
type ToolCallPart struct {
	ToolCallID    string `json:"toolCallId,omitempty"`
	ToolName      string `json:"toolName"`
	ArgumentsJSON string `json:"argumentsJson"`

	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// PartKind implements Part.
func (t ToolCallPart) PartKind() string { return "tool-call" }

// ToolResultPart carries the outcome of executing a tool call back to the
// model as part of a tool-role message.
type ToolResultPart struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`

	// Payload describes the result. Exactly one of its fields is
	// populated, selected by Payload.Kind.
	Payload ToolResultPayload `json:"payload"`

	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// PartKind implements Part.
func (t ToolResultPart) PartKind() string { return "tool-result" }

// ToolResultPayloadKind discriminates the shape of a ToolResultPayload.
type ToolResultPayloadKind string

const (
	// PayloadText is a simple string result.
	PayloadText ToolResultPayloadKind = "text"
	// PayloadJSON is an arbitrary JSON-serializable value.
	PayloadJSON ToolResultPayloadKind = "json"
	// PayloadError reports that the tool call failed; ErrorMessage
	// describes why. Fed back to the model so it can self-correct.
	PayloadError ToolResultPayloadKind = "error"
	// PayloadParts is a richer result made of nested content blocks
	// (text, image, file, or provider-custom blocks).
	PayloadParts ToolResultPayloadKind = "parts"
)

// ToolResultPayload is the tagged result value attached to a
// ToolResultPart.
type ToolResultPayload struct {
	Kind ToolResultPayloadKind `json:"kind"`

	Text         string      `json:"text,omitempty"`
	JSON         interface{} `json:"json,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	Parts        []ResultBlock `json:"parts,omitempty"`
}

// ResultBlock is one nested content block inside a PayloadParts result.
type ResultBlock interface {
	ResultBlockKind() string
}

// TextBlock is plain text nested inside a tool result.
type TextBlock struct {
	Text            string                 `json:"text"`
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// ResultBlockKind implements ResultBlock.
func (t TextBlock) ResultBlockKind() string { return "text" }

// ImageBlock is image data nested inside a tool result.
type ImageBlock struct {
	Data      []byte                 `json:"data"`
	MediaType string                 `json:"mediaType"`
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// ResultBlockKind implements ResultBlock.
func (i ImageBlock) ResultBlockKind() string { return "image" }

// FileBlock is file data nested inside a tool result.
type FileBlock struct {
	Data      []byte                 `json:"data"`
	MediaType string                 `json:"mediaType"`
	Filename  string                 `json:"filename,omitempty"`
	ProviderOptions map[string]interface{} `json:"providerOptions,omitempty"`
}

// ResultBlockKind implements ResultBlock.
func (f FileBlock) ResultBlockKind() string { return "file" }

// CustomBlock carries a provider-specific result shape that doesn't fit
// the standard categories, e.g. Anthropic's tool-reference blocks.
type CustomBlock struct {
	ProviderOptions map[string]interface{} `json:"providerOptions"`
}

// ResultBlockKind implements ResultBlock.
func (c CustomBlock) ResultBlockKind() string { return "custom" }

// Prompt is the input to a generation call: either a single block of
// free text, or a structured list of messages, plus an optional system
// instruction that applies regardless of which form is used.
type Prompt struct {
	Messages []Message
	System   string
	Text     string
}

// IsSimple reports whether this prompt is unstructured text rather than
// a message list.
func (p Prompt) IsSimple() bool {
	return p.Text != "" && len(p.Messages) == 0
}

// IsMessages reports whether this prompt carries a structured message
// list.
func (p Prompt) IsMessages() bool {
	return len(p.Messages) > 0
}

// TextResult builds a tool-result part carrying a plain string payload.
//
// Example:
//   part := types.TextResult("call_123", "search", "Found 3 results")
func TextResult(toolCallID, toolName, text string) ToolResultPart {
	return ToolResultPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Payload:    ToolResultPayload{Kind: PayloadText, Text: text},
	}
}

// JSONResult builds a tool-result part carrying an arbitrary JSON value.
//
// Example:
//   part := types.JSONResult("call_123", "calculate", map[string]interface{}{"answer": 42})
func JSONResult(toolCallID, toolName string, value interface{}) ToolResultPart {
	return ToolResultPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Payload:    ToolResultPayload{Kind: PayloadJSON, JSON: value},
	}
}

// BlocksResult builds a tool-result part carrying structured nested
// content blocks.
//
// Example:
//   part := types.BlocksResult("call_123", "search",
//       types.TextBlock{Text: "Search results:"},
//       types.ImageBlock{Data: imageBytes, MediaType: "image/png"},
//   )
func BlocksResult(toolCallID, toolName string, blocks ...ResultBlock) ToolResultPart {
	return ToolResultPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Payload:    ToolResultPayload{Kind: PayloadParts, Parts: blocks},
	}
}

// ErrorResultPart builds a tool-result part reporting that the tool call
// failed. The agent tool loop feeds this back to the model as-is so it
// can attempt self-correction rather than aborting the run.
//
// Example:
//   part := types.ErrorResultPart("call_123", "search", "network timeout")
func ErrorResultPart(toolCallID, toolName, message string) ToolResultPart {
	return ToolResultPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Payload:    ToolResultPayload{Kind: PayloadError, ErrorMessage: message},
	}
}
