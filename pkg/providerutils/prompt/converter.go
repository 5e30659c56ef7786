package prompt

import (
	"encoding/base64"
	"fmt"

	"github.com/arcwave/unillm/pkg/provider/types"
)

// toolResultText renders a tool-result payload as a single string, for
// wire formats that have no distinct tool-result content type.
func toolResultText(p types.ToolResultPayload) string {
	switch p.Kind {
	case types.PayloadError:
		return p.ErrorMessage
	case types.PayloadJSON:
		return fmt.Sprintf("%v", p.JSON)
	case types.PayloadParts:
		var out string
		for _, block := range p.Parts {
			if tb, ok := block.(types.TextBlock); ok {
				if out != "" {
					out += "\n"
				}
				out += tb.Text
			}
		}
		return out
	default:
		return p.Text
	}
}

// toolResultBlocks renders a PayloadParts payload as Anthropic content
// blocks: text passes through, image/file become base64 source blocks, and
// a CustomBlock carrying an "anthropic"."type" provider option (e.g. a
// tool-reference) is forwarded as-is.
func toolResultBlocks(blocks []types.ResultBlock) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(blocks))
	for _, block := range blocks {
		switch b := block.(type) {
		case types.TextBlock:
			out = append(out, map[string]interface{}{
				"type": "text",
				"text": b.Text,
			})
		case types.ImageBlock:
			out = append(out, map[string]interface{}{
				"type": "image",
				"source": map[string]interface{}{
					"type":       "base64",
					"media_type": b.MediaType,
					"data":       base64.StdEncoding.EncodeToString(b.Data),
				},
			})
		case types.FileBlock:
			out = append(out, map[string]interface{}{
				"type": "document",
				"source": map[string]interface{}{
					"type":       "base64",
					"media_type": b.MediaType,
					"data":       base64.StdEncoding.EncodeToString(b.Data),
				},
			})
		case types.CustomBlock:
			if anthropicOpts, ok := b.ProviderOptions["anthropic"].(map[string]interface{}); ok {
				custom := make(map[string]interface{}, len(anthropicOpts))
				for k, v := range anthropicOpts {
					custom[k] = v
				}
				if name, ok := custom["toolName"]; ok {
					custom["tool_name"] = name
					delete(custom, "toolName")
				}
				out = append(out, custom)
			}
		}
	}
	return out
}

// ToOpenAIMessages converts a unified message list to OpenAI's chat
// completion wire format.
func ToOpenAIMessages(messages []types.Message) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(messages))

	for _, msg := range messages {
		openAIMsg := map[string]interface{}{
			"role": string(msg.Role),
		}

		if len(msg.Parts) == 1 && msg.Parts[0].PartKind() == "text" {
			if text, ok := msg.Parts[0].(types.TextPart); ok {
				openAIMsg["content"] = text.Text
			}
		} else {
			parts := make([]map[string]interface{}, 0, len(msg.Parts))
			for _, part := range msg.Parts {
				switch p := part.(type) {
				case types.TextPart:
					parts = append(parts, map[string]interface{}{
						"type": "text",
						"text": p.Text,
					})
				case types.InlineFilePart:
					parts = append(parts, map[string]interface{}{
						"type": "image_url",
						"image_url": map[string]interface{}{
							"url": fmt.Sprintf("data:%s;base64,%s", p.MimeType, base64.StdEncoding.EncodeToString(p.Data)),
						},
					})
				case types.UrlFilePart:
					parts = append(parts, map[string]interface{}{
						"type": "image_url",
						"image_url": map[string]interface{}{
							"url": p.URL,
						},
					})
				case types.ToolResultPart:
					// OpenAI's chat format has no distinct tool-result content
					// block; fold it into text.
					parts = append(parts, map[string]interface{}{
						"type": "text",
						"text": fmt.Sprintf("Tool %s result: %s", p.ToolName, toolResultText(p.Payload)),
					})
				}
			}
			openAIMsg["content"] = parts
		}

		if msg.Name != "" {
			openAIMsg["name"] = msg.Name
		}

		result = append(result, openAIMsg)
	}

	return result
}

// ToAnthropicMessages converts a unified message list to Anthropic's
// messages wire format.
func ToAnthropicMessages(messages []types.Message) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			continue
		}

		anthropicMsg := map[string]interface{}{
			"role": string(msg.Role),
		}

		if len(msg.Parts) == 1 && msg.Parts[0].PartKind() == "text" {
			if text, ok := msg.Parts[0].(types.TextPart); ok {
				anthropicMsg["content"] = text.Text
			}
		} else {
			parts := make([]map[string]interface{}, 0, len(msg.Parts))
			for _, part := range msg.Parts {
				switch p := part.(type) {
				case types.TextPart:
					parts = append(parts, map[string]interface{}{
						"type": "text",
						"text": p.Text,
					})
				case types.InlineFilePart:
					parts = append(parts, map[string]interface{}{
						"type": "image",
						"source": map[string]interface{}{
							"type":       "base64",
							"media_type": p.MimeType,
							"data":       base64.StdEncoding.EncodeToString(p.Data),
						},
					})
				case types.ToolResultPart:
					var content interface{}
					if p.Payload.Kind == types.PayloadParts {
						content = toolResultBlocks(p.Payload.Parts)
					} else {
						content = toolResultText(p.Payload)
					}
					parts = append(parts, map[string]interface{}{
						"type":        "tool_result",
						"tool_use_id": p.ToolCallID,
						"content":     content,
						"is_error":    p.Payload.Kind == types.PayloadError,
					})
				case types.ReasoningPart:
					// A reasoning part with no signature or redacted data is a
					// local-only trace that the provider never issued a receipt
					// for; resending it would be rejected, so it's dropped.
					switch {
					case p.Signature != "":
						parts = append(parts, map[string]interface{}{
							"type":      "thinking",
							"thinking":  p.Text,
							"signature": p.Signature,
						})
					case p.RedactedData != "":
						parts = append(parts, map[string]interface{}{
							"type": "redacted_thinking",
							"data": p.RedactedData,
						})
					}
				}
			}
			anthropicMsg["content"] = parts
		}

		result = append(result, anthropicMsg)
	}

	return result
}

// ExtractSystemMessage returns the text of the first system message, for
// providers (like Anthropic) that take system instructions out-of-band.
func ExtractSystemMessage(messages []types.Message) string {
	for _, msg := range messages {
		if msg.Role == types.RoleSystem && len(msg.Parts) > 0 {
			if text, ok := msg.Parts[0].(types.TextPart); ok {
				return text.Text
			}
		}
	}
	return ""
}

// ToGoogleMessages converts a unified message list to Gemini's content
// wire format.
func ToGoogleMessages(messages []types.Message) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(messages))

	for _, msg := range messages {
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}

		googleMsg := map[string]interface{}{
			"role": role,
		}

		parts := make([]map[string]interface{}, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case types.TextPart:
				parts = append(parts, map[string]interface{}{
					"text": p.Text,
				})
			case types.InlineFilePart:
				parts = append(parts, map[string]interface{}{
					"inline_data": map[string]interface{}{
						"mime_type": p.MimeType,
						"data":      base64.StdEncoding.EncodeToString(p.Data),
					},
				})
			}
		}

		googleMsg["parts"] = parts
		result = append(result, googleMsg)
	}

	return result
}

// SimpleTextToMessages wraps a plain text prompt as a single user
// message.
func SimpleTextToMessages(text string) []types.Message {
	return []types.Message{
		{
			Role:  types.RoleUser,
			Parts: []types.Part{types.TextPart{Text: text}},
		},
	}
}

// MessagesToSimpleText flattens a message list to its text parts only.
// Lossy: non-text parts (files, tool calls, tool results) are dropped.
func MessagesToSimpleText(messages []types.Message) string {
	var result string
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(types.TextPart); ok {
				if result != "" {
					result += "\n"
				}
				result += text.Text
			}
		}
	}
	return result
}

// AddToolResultsToMessages appends a tool-role message carrying the given
// results to a message list.
func AddToolResultsToMessages(messages []types.Message, toolResults []types.ToolResult) []types.Message {
	if len(toolResults) == 0 {
		return messages
	}

	parts := make([]types.Part, len(toolResults))
	for i, result := range toolResults {
		parts[i] = types.ToolResultPart{
			ToolCallID: result.ToolCallID,
			ToolName:   result.ToolName,
			Payload:    types.ToolResultPayload{Kind: types.PayloadJSON, JSON: result.Result},
		}
	}

	return append(messages, types.Message{
		Role:  types.RoleTool,
		Parts: parts,
	})
}

// ValidateMessages checks that a message list is well-formed: non-empty,
// with every message carrying a role and at least one content part.
func ValidateMessages(messages []types.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages cannot be empty")
	}

	for i, msg := range messages {
		if msg.Role == "" {
			return fmt.Errorf("message %d has empty role", i)
		}
		if len(msg.Parts) == 0 {
			return fmt.Errorf("message %d has empty content", i)
		}
	}

	return nil
}
