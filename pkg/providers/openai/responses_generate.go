package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arcwave/unillm/pkg/provider"
	"github.com/arcwave/unillm/pkg/provider/types"
	"github.com/arcwave/unillm/pkg/providers/openai/responses"
	"github.com/arcwave/unillm/pkg/providerutils/prompt"
)

// responsesOnlyToolNames are tool names whose API representation only
// exists on the Responses API ("/responses"); the Chat Completions API
// ("/chat/completions") has no equivalent wire shape for them, so a
// request carrying one of these tools must go through doGenerateResponses
// instead of the default chat path.
var responsesOnlyToolNames = map[string]bool{
	"openai.custom":      true,
	"openai.local_shell": true,
	"openai.shell":       true,
	"openai.apply_patch": true,
}

// needsResponsesAPI reports whether any tool in the request can only be
// expressed on the Responses API.
func needsResponsesAPI(tools []types.Tool) bool {
	for _, t := range tools {
		if responsesOnlyToolNames[t.Name] {
			return true
		}
	}
	return false
}

// doGenerateResponses performs non-streaming generation against the
// Responses API. It is used instead of DoGenerate's default
// "/chat/completions" path whenever the request includes a tool (custom,
// local_shell, shell, or apply_patch) that Chat Completions cannot carry.
func (m *LanguageModel) doGenerateResponses(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	body := map[string]interface{}{
		"model": m.modelID,
	}

	var input []map[string]interface{}
	if opts.Prompt.IsMessages() {
		input = prompt.ToOpenAIMessages(opts.Prompt.Messages)
	} else if opts.Prompt.IsSimple() {
		input = prompt.ToOpenAIMessages(prompt.SimpleTextToMessages(opts.Prompt.Text))
	}
	if opts.Prompt.System != "" {
		input = append([]map[string]interface{}{{
			"role":    "system",
			"content": opts.Prompt.System,
		}}, input...)
	}
	body["input"] = input

	if len(opts.Tools) > 0 {
		body["tools"] = responses.PrepareTools(opts.Tools)
	}
	if opts.Temperature != nil {
		body["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		body["max_output_tokens"] = *opts.MaxTokens
	}
	if opts.TopP != nil {
		body["top_p"] = *opts.TopP
	}

	var resp openAIResponsesResponse
	if err := m.provider.client.PostJSON(ctx, "/responses", body, &resp); err != nil {
		return nil, m.handleError(err)
	}

	return m.convertResponsesResult(resp)
}

// openAIResponsesResponse is the Responses API's top-level response shape.
// Output items are decoded lazily (json.RawMessage) since each item's
// fields depend on its "type" discriminator.
type openAIResponsesResponse struct {
	ID     string               `json:"id"`
	Model  string               `json:"model"`
	Output []json.RawMessage    `json:"output"`
	Usage  openAIResponsesUsage `json:"usage"`
}

// openAIResponsesUsage uses the Responses API's own field names
// (input_tokens/output_tokens), distinct from Chat Completions'
// prompt_tokens/completion_tokens.
type openAIResponsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// convertResponsesResult walks the Responses API's output array, dispatching
// each item on its "type" field into the matching wire type from
// pkg/providers/openai/responses, and assembles a GenerateResult.
func (m *LanguageModel) convertResponsesResult(resp openAIResponsesResponse) (*types.GenerateResult, error) {
	result := &types.GenerateResult{
		FinishReason: types.FinishReasonStop,
		RawResponse:  resp,
		Usage: types.Usage{
			InputTokens:  int64Ptr(int64(resp.Usage.InputTokens)),
			OutputTokens: int64Ptr(int64(resp.Usage.OutputTokens)),
			TotalTokens:  int64Ptr(int64(resp.Usage.TotalTokens)),
		},
	}

	for _, raw := range resp.Output {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("failed to inspect output item type: %w", err)
		}

		switch head.Type {
		case "message":
			var item responses.AssistantMessageItem
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to parse assistant message item: %w", err)
			}
			for _, part := range item.Content {
				if part.Type == "output_text" {
					result.Text += part.Text
				}
			}

		case "function_call":
			var item responses.FunctionCallItem
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to parse function call item: %w", err)
			}
			var args map[string]interface{}
			json.Unmarshal([]byte(item.Arguments), &args)
			result.ToolCalls = append(result.ToolCalls, types.ToolCall{
				ID:            item.CallID,
				ToolName:      item.Name,
				Arguments:     args,
				ArgumentsJSON: item.Arguments,
			})

		case "custom_tool_call":
			var item responses.CustomToolCallItem
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to parse custom tool call item: %w", err)
			}
			result.ToolCalls = append(result.ToolCalls, types.ToolCall{
				ID:            item.CallID,
				ToolName:      item.Name,
				ArgumentsJSON: item.Input,
			})
		}
	}

	if len(result.ToolCalls) > 0 {
		result.FinishReason = types.FinishReasonToolCalls
	}

	return result, nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
