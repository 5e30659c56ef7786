package minimax

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	internalhttp "github.com/arcwave/unillm/pkg/internal/http"
	"github.com/arcwave/unillm/pkg/provider"
	providererrors "github.com/arcwave/unillm/pkg/provider/errors"
	"github.com/arcwave/unillm/pkg/provider/types"
	"github.com/arcwave/unillm/pkg/providerutils/prompt"
	"github.com/arcwave/unillm/pkg/providerutils/streaming"
	"github.com/arcwave/unillm/pkg/providerutils/tool"
)

// LanguageModel implements the provider.LanguageModel interface for MiniMax,
// speaking the Anthropic Messages wire format MiniMax's compatible endpoint
// emulates (no thinking, caching, container, or MCP extensions).
type LanguageModel struct {
	provider *Provider
	modelID  string
}

// NewLanguageModel creates a new MiniMax language model
func NewLanguageModel(provider *Provider, modelID string) *LanguageModel {
	return &LanguageModel{
		provider: provider,
		modelID:  modelID,
	}
}

// SpecificationVersion returns the specification version
func (m *LanguageModel) SpecificationVersion() string {
	return "v3"
}

// Provider returns the provider name
func (m *LanguageModel) Provider() string {
	return "minimax"
}

// ModelID returns the model ID
func (m *LanguageModel) ModelID() string {
	return m.modelID
}

// SupportsTools returns whether the model supports tool calling
func (m *LanguageModel) SupportsTools() bool {
	return true
}

// SupportsStructuredOutput returns whether the model supports structured output
func (m *LanguageModel) SupportsStructuredOutput() bool {
	return false
}

// SupportsImageInput returns whether the model accepts image inputs
func (m *LanguageModel) SupportsImageInput() bool {
	return false
}

// DoGenerate performs non-streaming text generation
func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	reqBody := m.buildRequestBody(opts, false)
	var response minimaxResponse
	err := m.provider.client.PostJSON(ctx, "/v1/messages", reqBody, &response)
	if err != nil {
		return nil, m.handleError(err)
	}
	return m.convertResponse(response), nil
}

// DoStream performs streaming text generation
func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	reqBody := m.buildRequestBody(opts, true)
	httpResp, err := m.provider.client.DoStream(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   "/v1/messages",
		Body:   reqBody,
		Headers: map[string]string{
			"Accept": "text/event-stream",
		},
	})
	if err != nil {
		return nil, m.handleError(err)
	}
	return newMinimaxStream(httpResp.Body), nil
}

func (m *LanguageModel) buildRequestBody(opts *provider.GenerateOptions, stream bool) map[string]interface{} {
	body := map[string]interface{}{
		"model":  m.modelID,
		"stream": stream,
	}

	if opts.Prompt.IsMessages() {
		body["messages"] = prompt.ToAnthropicMessages(opts.Prompt.Messages)
	} else if opts.Prompt.IsSimple() {
		body["messages"] = prompt.ToAnthropicMessages(prompt.SimpleTextToMessages(opts.Prompt.Text))
	}

	if opts.Prompt.System != "" {
		body["system"] = opts.Prompt.System
	}

	maxTokens := 4096
	if opts.MaxTokens != nil {
		maxTokens = *opts.MaxTokens
	}
	body["max_tokens"] = maxTokens

	if opts.Temperature != nil {
		body["temperature"] = *opts.Temperature
	}
	if opts.TopP != nil && opts.Temperature == nil {
		body["top_p"] = *opts.TopP
	}
	if len(opts.StopSequences) > 0 {
		body["stop_sequences"] = opts.StopSequences
	}

	if len(opts.Tools) > 0 {
		body["tools"] = tool.ToAnthropicFormat(opts.Tools)
		if opts.ToolChoice.Type != "" {
			toolChoice := tool.ConvertToolChoiceToAnthropic(opts.ToolChoice)
			if opts.ToolChoice.DisableParallelToolUse {
				if tcMap, ok := toolChoice.(map[string]interface{}); ok {
					tcMap["disable_parallel_tool_use"] = true
				}
			}
			body["tool_choice"] = toolChoice
		}
	}

	return body
}

func (m *LanguageModel) convertResponse(response minimaxResponse) *types.GenerateResult {
	result := &types.GenerateResult{
		Usage:       convertMinimaxUsage(response.Usage),
		RawResponse: response,
	}

	var textParts []string
	for _, content := range response.Content {
		if content.Type == "text" {
			textParts = append(textParts, content.Text)
		}
	}
	if len(textParts) > 0 {
		result.Text = strings.Join(textParts, "")
	}

	for _, content := range response.Content {
		if content.Type == "tool_use" {
			argsJSON, _ := json.Marshal(content.Input)
			result.ToolCalls = append(result.ToolCalls, types.ToolCall{
				ID:            content.ID,
				ToolName:      content.Name,
				Arguments:     content.Input,
				ArgumentsJSON: string(argsJSON),
			})
		}
	}

	switch response.StopReason {
	case "end_turn", "stop_sequence":
		result.FinishReason = types.FinishReasonStop
	case "max_tokens":
		result.FinishReason = types.FinishReasonLength
	case "tool_use":
		result.FinishReason = types.FinishReasonToolCalls
	default:
		result.FinishReason = types.FinishReasonOther
	}

	return result
}

func (m *LanguageModel) handleError(err error) error {
	if apiErr, ok := err.(*providererrors.APIError); ok {
		return apiErr
	}
	return providererrors.NewProviderError("minimax", 0, "", err.Error(), err)
}

func convertMinimaxUsage(usage minimaxUsage) types.Usage {
	input, output := int64(usage.InputTokens), int64(usage.OutputTokens)
	total := input + output
	return types.Usage{
		InputTokens:  &input,
		OutputTokens: &output,
		TotalTokens:  &total,
		Raw: map[string]interface{}{
			"input_tokens":  usage.InputTokens,
			"output_tokens": usage.OutputTokens,
		},
	}
}

type minimaxResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []minimaxContent  `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
	Usage      minimaxUsage      `json:"usage"`
}

type minimaxUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type minimaxContent struct {
	Type  string                 `json:"type"`
	Text  string                 `json:"text,omitempty"`
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`
}

// streamToolCall tracks an in-flight tool_use content block across SSE
// events, accumulating input_json_delta fragments until content_block_stop.
type streamToolCall struct {
	id        string
	name      string
	inputJSON strings.Builder
}

// minimaxStream implements provider.TextStream for MiniMax's Anthropic-style
// server-sent event stream.
type minimaxStream struct {
	reader       io.ReadCloser
	parser       *streaming.SSEParser
	err          error
	inputTokens  int64
	outputTokens int64
	toolBlocks   map[int]*streamToolCall
	pending      []*provider.StreamChunk
}

func newMinimaxStream(reader io.ReadCloser) *minimaxStream {
	return &minimaxStream{
		reader:     reader,
		parser:     streaming.NewSSEParser(reader),
		toolBlocks: make(map[int]*streamToolCall),
	}
}

func (s *minimaxStream) Read(p []byte) (n int, err error) { return s.reader.Read(p) }
func (s *minimaxStream) Close() error                     { return s.reader.Close() }

func (s *minimaxStream) Next() (*provider.StreamChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.pending) > 0 {
		chunk := s.pending[0]
		s.pending = s.pending[1:]
		return chunk, nil
	}

	event, err := s.parser.Next()
	if err != nil {
		s.err = err
		return nil, err
	}

	switch event.Event {
	case "ping":
		return s.Next()

	case "message_start":
		var msg struct {
			Message struct {
				Usage struct {
					InputTokens int `json:"input_tokens"`
				} `json:"usage"`
			} `json:"message"`
		}
		if err := json.Unmarshal([]byte(event.Data), &msg); err == nil {
			s.inputTokens = int64(msg.Message.Usage.InputTokens)
		}
		return s.Next()

	case "content_block_start":
		var start struct {
			Index        int `json:"index"`
			ContentBlock struct {
				Type string `json:"type"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"content_block"`
		}
		if err := json.Unmarshal([]byte(event.Data), &start); err != nil {
			return s.Next()
		}
		if start.ContentBlock.Type == "tool_use" {
			s.toolBlocks[start.Index] = &streamToolCall{
				id:   start.ContentBlock.ID,
				name: start.ContentBlock.Name,
			}
		}
		return s.Next()

	case "content_block_delta":
		var delta struct {
			Index int `json:"index"`
			Delta struct {
				Type        string `json:"type"`
				Text        string `json:"text"`
				PartialJSON string `json:"partial_json"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(event.Data), &delta); err != nil {
			return s.Next()
		}
		switch delta.Delta.Type {
		case "text_delta":
			if delta.Delta.Text != "" {
				return &provider.StreamChunk{Type: provider.ChunkTypeText, Text: delta.Delta.Text}, nil
			}
		case "input_json_delta":
			if tc, ok := s.toolBlocks[delta.Index]; ok {
				tc.inputJSON.WriteString(delta.Delta.PartialJSON)
			}
		}
		return s.Next()

	case "content_block_stop":
		var stop struct {
			Index int `json:"index"`
		}
		if err := json.Unmarshal([]byte(event.Data), &stop); err != nil {
			return s.Next()
		}
		if tc, ok := s.toolBlocks[stop.Index]; ok {
			delete(s.toolBlocks, stop.Index)
			raw := tc.inputJSON.String()
			var args map[string]interface{}
			if raw != "" {
				_ = json.Unmarshal([]byte(raw), &args)
			}
			return &provider.StreamChunk{
				Type: provider.ChunkTypeToolCall,
				ToolCall: &types.ToolCall{
					ID:            tc.id,
					ToolName:      tc.name,
					Arguments:     args,
					ArgumentsJSON: raw,
				},
			}, nil
		}
		return s.Next()

	case "message_delta":
		var delta struct {
			Delta struct {
				StopReason string `json:"stop_reason"`
			} `json:"delta"`
			Usage struct {
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
		}
		if err := json.Unmarshal([]byte(event.Data), &delta); err != nil {
			return s.Next()
		}
		s.outputTokens = int64(delta.Usage.OutputTokens)
		var finishReason types.FinishReason
		switch delta.Delta.StopReason {
		case "end_turn", "stop_sequence":
			finishReason = types.FinishReasonStop
		case "max_tokens":
			finishReason = types.FinishReasonLength
		case "tool_use":
			finishReason = types.FinishReasonToolCalls
		default:
			finishReason = types.FinishReasonOther
		}
		total := s.inputTokens + s.outputTokens
		return &provider.StreamChunk{
			Type:         provider.ChunkTypeFinish,
			FinishReason: finishReason,
			Usage: &types.Usage{
				InputTokens:  &s.inputTokens,
				OutputTokens: &s.outputTokens,
				TotalTokens:  &total,
			},
		}, nil

	case "message_stop":
		s.err = io.EOF
		return nil, io.EOF

	default:
		return s.Next()
	}
}

func (s *minimaxStream) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
