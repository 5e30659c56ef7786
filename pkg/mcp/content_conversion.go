package mcp

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/arcwave/unillm/pkg/provider/types"
)

// ConvertMCPContentToParts converts MCP tool result content into prompt
// content parts. Image content is decoded into InlineFilePart/UrlFilePart
// rather than left as opaque text, which avoids reflecting raw base64
// payloads back into the conversation as token-heavy text.
func ConvertMCPContentToParts(mcpContent []ToolResultContent) ([]types.Part, error) {
	if len(mcpContent) == 0 {
		return nil, nil
	}

	parts := make([]types.Part, 0, len(mcpContent))

	for _, content := range mcpContent {
		part, err := convertSingleContent(content)
		if err != nil {
			return nil, fmt.Errorf("failed to convert content item: %w", err)
		}
		if part != nil {
			parts = append(parts, part)
		}
	}

	return parts, nil
}

// convertSingleContent converts a single MCP content item to a prompt part.
func convertSingleContent(item ToolResultContent) (types.Part, error) {
	switch item.Type {
	case "text":
		return convertMCPTextToAISDK(item), nil
	case "image":
		return convertMCPImageToAISDK(item)
	case "resource":
		return convertMCPResourceToAISDK(item), nil
	default:
		return types.TextPart{
			Text: fmt.Sprintf("Unknown content type: %s", item.Type),
		}, nil
	}
}

// convertMCPTextToAISDK converts MCP text content to a TextPart.
func convertMCPTextToAISDK(item ToolResultContent) types.TextPart {
	return types.TextPart{
		Text: item.Text,
	}
}

// convertMCPImageToAISDK converts MCP image content to an inline or
// URL-referenced file part. Keeping the URL case as a UrlFilePart (rather
// than inlining a fetch) is what avoids the 200K+ token explosions MCP
// tools can otherwise produce when they return large images.
func convertMCPImageToAISDK(item ToolResultContent) (types.Part, error) {
	if item.MimeType == "" {
		return nil, fmt.Errorf("missing MIME type for image content")
	}
	if item.Data == "" {
		return nil, fmt.Errorf("empty image data")
	}

	if strings.HasPrefix(item.Data, "http://") || strings.HasPrefix(item.Data, "https://") {
		return types.UrlFilePart{
			URL:      item.Data,
			MimeType: item.MimeType,
		}, nil
	}

	if strings.HasPrefix(item.Data, "data:") {
		raw := strings.SplitN(item.Data, ",", 2)
		if len(raw) != 2 {
			return nil, fmt.Errorf("invalid data URL format")
		}
		imageBytes, err := base64.StdEncoding.DecodeString(raw[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
		}
		return types.InlineFilePart{
			Data:     imageBytes,
			MimeType: item.MimeType,
		}, nil
	}

	imageBytes, err := base64.StdEncoding.DecodeString(item.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}

	return types.InlineFilePart{
		Data:     imageBytes,
		MimeType: item.MimeType,
	}, nil
}

// convertMCPResourceToAISDK converts an MCP resource reference to a
// prompt part, preferring a URL file reference for images and falling
// back to plain text (the resource URI, or its inline text) otherwise.
func convertMCPResourceToAISDK(item ToolResultContent) types.Part {
	if strings.HasPrefix(item.MimeType, "image/") && item.URI != "" {
		return types.UrlFilePart{
			URL:      item.URI,
			MimeType: item.MimeType,
		}
	}

	text := item.URI
	if item.Text != "" {
		text = item.Text
	}

	return types.TextPart{
		Text: text,
	}
}
