package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arcwave/unillm/pkg/internal/jsonutil"
	"github.com/arcwave/unillm/pkg/provider"
	"github.com/arcwave/unillm/pkg/schema"
)

// ElementStreamResult represents a single element in the stream
type ElementStreamResult[ELEMENT any] struct {
	// The parsed element
	Element ELEMENT

	// Index of this element in the array
	Index int

	// Whether this is the final element in the array. Only an element sent
	// after the stream's finish chunk can carry it: when the complete array
	// parses and its last element was already sent while streaming, that
	// element is not sent again and no element is marked final.
	IsFinal bool
}

// ElementStreamOptions contains options for element streaming
type ElementStreamOptions[ELEMENT any] struct {
	// ElementSchema defines the structure of each array element
	ElementSchema schema.Schema

	// OnElement is called when a new element is parsed
	OnElement func(element ElementStreamResult[ELEMENT])

	// OnError is called when an error occurs during parsing
	OnError func(err error)

	// OnComplete is called when the stream completes
	OnComplete func()
}

// ElementStream creates a channel that streams array elements as they complete
// This is useful for streaming arrays where elements are generated incrementally.
//
// Example:
//
//	result, err := StreamText(ctx, StreamTextOptions{
//	    Model: model,
//	    Prompt: "Generate a list of 5 todo items",
//	})
//	if err != nil {
//	    // handle error
//	}
//
//	elements := ElementStream[TodoItem](ctx, result, ElementStreamOptions[TodoItem]{
//	    ElementSchema: todoSchema,
//	    OnElement: func(elem ElementStreamResult[TodoItem]) {
//	        fmt.Printf("Got element %d: %v\n", elem.Index, elem.Element)
//	    },
//	})
//
//	for elem := range elements {
//	    // Process each element as it arrives
//	    fmt.Println(elem)
//	}
func ElementStream[ELEMENT any](ctx context.Context, result *StreamTextResult, opts ElementStreamOptions[ELEMENT]) <-chan ElementStreamResult[ELEMENT] {
	ch := make(chan ElementStreamResult[ELEMENT], 10)

	go func() {
		defer close(ch)
		defer func() {
			if opts.OnComplete != nil {
				opts.OnComplete()
			}
		}()

		var lastText string
		var lastElementCount int

		emit := func(elements []ELEMENT, final bool) {
			for i := lastElementCount; i < len(elements); i++ {
				elemResult := ElementStreamResult[ELEMENT]{
					Element: elements[i],
					Index:   i,
					IsFinal: final && i == len(elements)-1,
				}

				select {
				case ch <- elemResult:
				case <-ctx.Done():
					return
				}
				if opts.OnElement != nil {
					opts.OnElement(elemResult)
				}
			}
			lastElementCount = len(elements)
		}

		for {
			select {
			case <-ctx.Done():
				if opts.OnError != nil {
					opts.OnError(ctx.Err())
				}
				return
			default:
			}

			chunk, err := result.nextChunk(ctx)
			if err != nil {
				if err.Error() != "EOF" && opts.OnError != nil {
					opts.OnError(err)
				}
				break
			}

			// Accumulate text
			if chunk.Type == provider.ChunkTypeText {
				lastText += chunk.Text

				// Try to parse as partial JSON array
				elements, err := parsePartialArrayElements[ELEMENT](lastText, opts.ElementSchema)
				if err != nil {
					// Not yet parseable, continue
					continue
				}

				emit(elements, false)
			}

			// Handle finish: re-parse without holding back a
			// possibly-incomplete trailing element and send the elements
			// not sent yet, marking the last of them final. Elements
			// already sent are not sent again.
			if chunk.Type == provider.ChunkTypeFinish {
				if finalElements, err := parseCompleteArrayElements[ELEMENT](lastText, opts.ElementSchema); err == nil {
					emit(finalElements, true)
				} else if lastElementCount > 0 {
					// Re-emit the last element we already sent, now marked final.
					if reparsed, err := parsePartialArrayElements[ELEMENT](lastText, opts.ElementSchema); err == nil && len(reparsed) >= lastElementCount {
						idx := lastElementCount - 1
						finalResult := ElementStreamResult[ELEMENT]{
							Element: reparsed[idx],
							Index:   idx,
							IsFinal: true,
						}
						select {
						case ch <- finalResult:
						case <-ctx.Done():
						}
						if opts.OnElement != nil {
							opts.OnElement(finalResult)
						}
					}
				}
				break
			}
		}
	}()

	return ch
}

// parsePartialArrayElements parses a partial JSON array string and extracts
// the elements known to be complete, holding back a trailing element that
// hasn't finished streaming yet.
func parsePartialArrayElements[ELEMENT any](text string, elementSchema schema.Schema) ([]ELEMENT, error) {
	return decodeArrayElements[ELEMENT](text, elementSchema, true)
}

// parseCompleteArrayElements parses a final (non-growing) JSON array string
// and extracts every valid element, including the last one. Used once the
// underlying stream has finished, when there's no more text coming to
// complete a trailing element.
func parseCompleteArrayElements[ELEMENT any](text string, elementSchema schema.Schema) ([]ELEMENT, error) {
	return decodeArrayElements[ELEMENT](text, elementSchema, false)
}

func decodeArrayElements[ELEMENT any](text string, elementSchema schema.Schema, holdBackTrailing bool) ([]ELEMENT, error) {
	// Try to parse as partial JSON
	parsed, err := jsonutil.ParsePartialJSON(text)
	if err != nil {
		return nil, err
	}

	if parsed == nil {
		return nil, fmt.Errorf("no parseable content yet")
	}

	// Check if it has an elements array (matching our ArrayOutput format)
	parsedMap, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("response is not an object")
	}

	elementsRaw, ok := parsedMap["elements"]
	if !ok {
		return nil, fmt.Errorf("response does not have elements array")
	}

	elementsArray, ok := elementsRaw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("elements is not an array")
	}

	// Parse each complete element
	var elements []ELEMENT
	for i, elemRaw := range elementsArray {
		if holdBackTrailing && i == len(elementsArray)-1 {
			// Last element might still be mid-stream; only keep it if it
			// already validates against the full element schema.
			if err := elementSchema.Validator().Validate(elemRaw); err != nil {
				break
			}
		}

		// Validate element
		if err := elementSchema.Validator().Validate(elemRaw); err != nil {
			// Invalid element, skip
			continue
		}

		// Convert to typed element
		jsonBytes, err := json.Marshal(elemRaw)
		if err != nil {
			continue
		}

		var typedElem ELEMENT
		if err := json.Unmarshal(jsonBytes, &typedElem); err != nil {
			continue
		}

		elements = append(elements, typedElem)
	}

	return elements, nil
}

// ElementStreamMethod adds the ElementStream method to StreamTextResult
// This method should be called from within StreamTextResult

// ElementStreamWithOutput creates an element stream from a StreamTextResult using an ArrayOutput
// This is a convenience method that combines output parsing with element streaming.
//
// Example:
//
//	result, err := StreamText(ctx, StreamTextOptions{
//	    Model: model,
//	    Prompt: "Generate a list of 5 todo items",
//	})
//	if err != nil {
//	    // handle error
//	}
//
//	output := ArrayOutput[TodoItem](ArrayOutputOptions[TodoItem]{
//	    ElementSchema: todoSchema,
//	})
//
//	elements := ElementStreamWithOutput(ctx, result, output)
//	for elem := range elements {
//	    fmt.Printf("Element %d: %v\n", elem.Index, elem.Element)
//	}
func ElementStreamWithOutput[ELEMENT any](ctx context.Context, result *StreamTextResult, output Output[[]ELEMENT, []ELEMENT]) <-chan ElementStreamResult[ELEMENT] {
	ch := make(chan ElementStreamResult[ELEMENT], 10)

	go func() {
		defer close(ch)

		var lastText string
		var lastElementCount int

		emit := func(elements []ELEMENT, final bool) {
			for i := lastElementCount; i < len(elements); i++ {
				select {
				case ch <- ElementStreamResult[ELEMENT]{
					Element: elements[i],
					Index:   i,
					IsFinal: final && i == len(elements)-1,
				}:
				case <-ctx.Done():
					return
				}
			}
			lastElementCount = len(elements)
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			chunk, err := result.nextChunk(ctx)
			if err != nil {
				break
			}

			// Accumulate text
			if chunk.Type == provider.ChunkTypeText {
				lastText += chunk.Text

				// Try to parse partial output
				partialOutput, err := output.ParsePartialOutput(ctx, ParsePartialOutputOptions{
					Text: lastText,
				})
				if err != nil || partialOutput == nil {
					continue
				}

				emit(partialOutput.Partial, false)
			}

			// Handle finish: re-parse the complete text so the element that
			// was still mid-stream at the last partial parse gets emitted
			// and marked final.
			if chunk.Type == provider.ChunkTypeFinish {
				finalElements, err := output.ParseCompleteOutput(ctx, ParseCompleteOutputOptions{
					Text: lastText,
				})
				if err == nil {
					emit(finalElements, true)
				}
				break
			}
		}
	}()

	return ch
}
