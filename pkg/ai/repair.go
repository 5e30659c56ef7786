package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arcwave/unillm/pkg/internal/jsonutil"
	"github.com/arcwave/unillm/pkg/provider/types"
)

// ToolCallRepairFunc attempts to produce a corrected ToolCall for one that
// failed to parse or validate. Returning a nil call with a non-nil error
// signals the repair attempt itself failed.
type ToolCallRepairFunc func(ctx context.Context, toolCall types.ToolCall, err error) (*types.ToolCall, error)

// RepairOptions configures how RepairToolCall and TryRepairToolCalls
// recover from a tool call the model emitted with malformed arguments.
type RepairOptions struct {
	// MaxAttempts bounds how many times RepairFunc is retried for a single
	// tool call before giving up.
	MaxAttempts int

	// RepairFunc performs the repair. Defaults to DefaultToolCallRepair.
	RepairFunc ToolCallRepairFunc
}

// DefaultRepairOptions returns the package's default repair policy: up to
// three attempts of DefaultToolCallRepair.
func DefaultRepairOptions() RepairOptions {
	return RepairOptions{
		MaxAttempts: 3,
		RepairFunc:  DefaultToolCallRepair,
	}
}

// DefaultToolCallRepair recovers a tool call whose Arguments didn't survive
// a clean JSON round-trip — the common case is a streaming provider that
// delivered an argument string with a trailing comma, a JS-style comment,
// or unquoted keys. It re-marshals Arguments, and on failure falls back to
// jsonutil.FixJSON's syntax-level repairs before re-parsing.
func DefaultToolCallRepair(ctx context.Context, toolCall types.ToolCall, err error) (*types.ToolCall, error) {
	if toolCall.Arguments == nil {
		return nil, fmt.Errorf("cannot repair tool call with nil arguments")
	}

	jsonBytes, marshalErr := json.Marshal(toolCall.Arguments)
	if marshalErr != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", marshalErr)
	}

	var args map[string]interface{}
	if parseErr := json.Unmarshal(jsonBytes, &args); parseErr == nil {
		return &types.ToolCall{
			ID:        toolCall.ID,
			ToolName:  toolCall.ToolName,
			Arguments: args,
		}, nil
	}

	fixed, fixErr := jsonutil.FixJSON(string(jsonBytes))
	if fixErr != nil {
		return nil, fmt.Errorf("could not repair tool call %s: %w", toolCall.ID, err)
	}

	if parseErr := json.Unmarshal([]byte(fixed), &args); parseErr != nil {
		return nil, fmt.Errorf("repaired JSON for tool call %s still invalid: %w", toolCall.ID, parseErr)
	}

	return &types.ToolCall{
		ID:        toolCall.ID,
		ToolName:  toolCall.ToolName,
		Arguments: args,
	}, nil
}

// RepairToolCall retries opts.RepairFunc up to opts.MaxAttempts times,
// since some repair functions (e.g. one that asks the model to re-emit the
// call) may succeed on a later attempt after failing on an earlier one.
func RepairToolCall(ctx context.Context, toolCall types.ToolCall, err error, opts RepairOptions) (*types.ToolCall, error) {
	if opts.RepairFunc == nil {
		opts.RepairFunc = DefaultToolCallRepair
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		repairedCall, repairErr := opts.RepairFunc(ctx, toolCall, err)
		if repairErr == nil {
			return repairedCall, nil
		}
		lastErr = repairErr
	}

	return nil, fmt.Errorf("failed to repair tool call after %d attempts: %w", opts.MaxAttempts, lastErr)
}

// TryRepairToolCalls passes every tool call in toolCalls with nil Arguments
// through RepairToolCall, leaving calls that already have arguments
// untouched. If any call cannot be repaired it returns an error and no
// calls at all.
func TryRepairToolCalls(ctx context.Context, toolCalls []types.ToolCall, opts RepairOptions) ([]types.ToolCall, error) {
	repaired := make([]types.ToolCall, 0, len(toolCalls))

	for _, tc := range toolCalls {
		if tc.Arguments != nil {
			repaired = append(repaired, tc)
			continue
		}

		repairedCall, err := RepairToolCall(ctx, tc, fmt.Errorf("nil arguments"), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to repair tool call %s: %w", tc.ID, err)
		}
		repaired = append(repaired, *repairedCall)
	}

	return repaired, nil
}
