package types

import (
	"testing"
)

func TestToolResultPayloadKinds(t *testing.T) {
	tests := []struct {
		name     string
		kind     ToolResultPayloadKind
		expected string
	}{
		{"text kind", PayloadText, "text"},
		{"json kind", PayloadJSON, "json"},
		{"parts kind", PayloadParts, "parts"},
		{"error kind", PayloadError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.kind) != tt.expected {
				t.Errorf("ToolResultPayloadKind = %v, want %v", tt.kind, tt.expected)
			}
		})
	}
}

func TestResultBlockKinds(t *testing.T) {
	tests := []struct {
		name     string
		block    ResultBlock
		expected string
	}{
		{"text block", TextBlock{Text: "test"}, "text"},
		{"image block", ImageBlock{Data: []byte{1, 2, 3}, MediaType: "image/png"}, "image"},
		{"file block", FileBlock{Data: []byte{1, 2, 3}, MediaType: "application/pdf"}, "file"},
		{"custom block", CustomBlock{ProviderOptions: map[string]interface{}{"test": "value"}}, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.block.ResultBlockKind() != tt.expected {
				t.Errorf("ResultBlockKind() = %v, want %v", tt.block.ResultBlockKind(), tt.expected)
			}
		})
	}
}

func TestTextResult(t *testing.T) {
	part := TextResult("call_123", "search", "Found 3 results")

	if part.ToolCallID != "call_123" {
		t.Errorf("ToolCallID = %v, want call_123", part.ToolCallID)
	}
	if part.ToolName != "search" {
		t.Errorf("ToolName = %v, want search", part.ToolName)
	}
	if part.Payload.Kind != PayloadText {
		t.Errorf("Payload.Kind = %v, want %v", part.Payload.Kind, PayloadText)
	}
	if part.Payload.Text != "Found 3 results" {
		t.Errorf("Payload.Text = %v, want 'Found 3 results'", part.Payload.Text)
	}
}

func TestJSONResult(t *testing.T) {
	data := map[string]interface{}{"answer": 42}
	part := JSONResult("call_456", "calculate", data)

	if part.ToolCallID != "call_456" {
		t.Errorf("ToolCallID = %v, want call_456", part.ToolCallID)
	}
	if part.Payload.Kind != PayloadJSON {
		t.Errorf("Payload.Kind = %v, want %v", part.Payload.Kind, PayloadJSON)
	}

	if resultMap, ok := part.Payload.JSON.(map[string]interface{}); ok {
		if resultMap["answer"] != 42 {
			t.Errorf("Payload.JSON[answer] = %v, want 42", resultMap["answer"])
		}
	} else {
		t.Error("Payload.JSON should be a map")
	}
}

func TestBlocksResult(t *testing.T) {
	part := BlocksResult("call_789", "search",
		TextBlock{Text: "Search results:"},
		TextBlock{Text: "Found 3 items"},
	)

	if part.ToolCallID != "call_789" {
		t.Errorf("ToolCallID = %v, want call_789", part.ToolCallID)
	}
	if part.Payload.Kind != PayloadParts {
		t.Errorf("Payload.Kind = %v, want %v", part.Payload.Kind, PayloadParts)
	}
	if len(part.Payload.Parts) != 2 {
		t.Errorf("Payload.Parts length = %v, want 2", len(part.Payload.Parts))
	}

	if block, ok := part.Payload.Parts[0].(TextBlock); ok {
		if block.Text != "Search results:" {
			t.Errorf("First block text = %v, want 'Search results:'", block.Text)
		}
	} else {
		t.Error("First block should be TextBlock")
	}
}

func TestErrorResultPart(t *testing.T) {
	part := ErrorResultPart("call_999", "broken_tool", "Network timeout")

	if part.ToolCallID != "call_999" {
		t.Errorf("ToolCallID = %v, want call_999", part.ToolCallID)
	}
	if part.Payload.Kind != PayloadError {
		t.Errorf("Payload.Kind = %v, want %v", part.Payload.Kind, PayloadError)
	}
	if part.Payload.ErrorMessage != "Network timeout" {
		t.Errorf("Payload.ErrorMessage = %v, want 'Network timeout'", part.Payload.ErrorMessage)
	}
}

func TestMixedResultBlocks(t *testing.T) {
	imageData := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	fileData := []byte{0x25, 0x50, 0x44, 0x46}  // PDF header

	part := BlocksResult("call_abc", "analyze",
		TextBlock{Text: "Analysis complete"},
		ImageBlock{
			Data:      imageData,
			MediaType: "image/png",
		},
		FileBlock{
			Data:      fileData,
			MediaType: "application/pdf",
			Filename:  "report.pdf",
		},
	)

	if len(part.Payload.Parts) != 3 {
		t.Fatalf("Expected 3 result blocks, got %d", len(part.Payload.Parts))
	}

	textBlock, ok := part.Payload.Parts[0].(TextBlock)
	if !ok {
		t.Fatal("First block should be TextBlock")
	}
	if textBlock.Text != "Analysis complete" {
		t.Errorf("Text block content = %v, want 'Analysis complete'", textBlock.Text)
	}

	imageBlock, ok := part.Payload.Parts[1].(ImageBlock)
	if !ok {
		t.Fatal("Second block should be ImageBlock")
	}
	if imageBlock.MediaType != "image/png" {
		t.Errorf("Image block media type = %v, want 'image/png'", imageBlock.MediaType)
	}
	if len(imageBlock.Data) != len(imageData) {
		t.Errorf("Image block data length = %v, want %v", len(imageBlock.Data), len(imageData))
	}

	fileBlock, ok := part.Payload.Parts[2].(FileBlock)
	if !ok {
		t.Fatal("Third block should be FileBlock")
	}
	if fileBlock.MediaType != "application/pdf" {
		t.Errorf("File block media type = %v, want 'application/pdf'", fileBlock.MediaType)
	}
	if fileBlock.Filename != "report.pdf" {
		t.Errorf("File block filename = %v, want 'report.pdf'", fileBlock.Filename)
	}
}

func TestCustomBlock(t *testing.T) {
	custom := CustomBlock{
		ProviderOptions: map[string]interface{}{
			"anthropic": map[string]interface{}{
				"type":     "tool-reference",
				"toolName": "calculator",
			},
		},
	}

	if custom.ResultBlockKind() != "custom" {
		t.Errorf("ResultBlockKind() = %v, want 'custom'", custom.ResultBlockKind())
	}

	anthropicOpts, ok := custom.ProviderOptions["anthropic"].(map[string]interface{})
	if !ok {
		t.Fatal("anthropic provider options should be a map")
	}

	if anthropicOpts["type"] != "tool-reference" {
		t.Errorf("type = %v, want 'tool-reference'", anthropicOpts["type"])
	}
	if anthropicOpts["toolName"] != "calculator" {
		t.Errorf("toolName = %v, want 'calculator'", anthropicOpts["toolName"])
	}
}

func TestProviderOptionsOnAllBlocks(t *testing.T) {
	opts := map[string]interface{}{"custom": "data"}

	textBlock := TextBlock{Text: "test", ProviderOptions: opts}
	if textBlock.ProviderOptions["custom"] != "data" {
		t.Error("TextBlock provider options not preserved")
	}

	imageBlock := ImageBlock{Data: []byte{1}, MediaType: "image/png", ProviderOptions: opts}
	if imageBlock.ProviderOptions["custom"] != "data" {
		t.Error("ImageBlock provider options not preserved")
	}

	fileBlock := FileBlock{Data: []byte{1}, MediaType: "application/pdf", ProviderOptions: opts}
	if fileBlock.ProviderOptions["custom"] != "data" {
		t.Error("FileBlock provider options not preserved")
	}
}

func TestToolResultPartImplementsPart(t *testing.T) {
	simple := TextResult("call_old", "old_tool", "simple text")
	if simple.PartKind() != "tool-result" {
		t.Error("simple result should have tool-result part kind")
	}
	if simple.Payload.Kind != PayloadText {
		t.Error("simple result should carry a text payload")
	}

	structured := BlocksResult("call_new", "new_tool", TextBlock{Text: "structured content"})
	if structured.PartKind() != "tool-result" {
		t.Error("structured result should have tool-result part kind")
	}
	if structured.Payload.Kind != PayloadParts {
		t.Error("structured result should carry a parts payload")
	}

	var oldPart Part = simple
	var newPart Part = structured
	if oldPart.PartKind() != "tool-result" || newPart.PartKind() != "tool-result" {
		t.Error("both result shapes should implement Part")
	}
}
