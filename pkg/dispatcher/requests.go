package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/morezero/statsig-mcp/pkg/commsutil"
	"github.com/morezero/statsig-mcp/pkg/semver"
)

const requestsLogPrefix = "dispatcher:requests"

// HandleRequest serves one NATS tool request and returns its response.
func (d *Dispatcher) HandleRequest(ctx context.Context, req *ToolRequest) *ToolResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", requestsLogPrefix, req.Method, req.ID))

	if req.Cap != "" {
		if resp := d.checkCap(req); resp != nil {
			return resp
		}
	}

	switch req.Method {
	case MethodCall:
		return d.handleCall(ctx, req)
	case MethodDescribe:
		return &ToolResponse{ID: req.ID, Ok: true, Result: d.describe()}
	case MethodHealth:
		return &ToolResponse{ID: req.ID, Ok: true, Result: map[string]any{
			"status":     "ok",
			"version":    ToolsetVersion,
			"operations": d.registry.Len(),
			"cache":      d.cache != nil,
		}}
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

// checkCap validates the requested toolset reference and its version range.
func (d *Dispatcher) checkCap(req *ToolRequest) *ToolResponse {
	ref, err := semver.ParseToolsetRef(req.Cap)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidRequest, err.Error(), false)
	}
	if err := semver.Check(ToolsetVersion, ref.Range); err != nil {
		var mismatch *semver.VersionMismatchError
		if errors.As(err, &mismatch) {
			return errorResponse(req.ID, CodeVersionMismatch, err.Error(), false)
		}
		return errorResponse(req.ID, CodeInvalidRequest, err.Error(), false)
	}
	return nil
}

func (d *Dispatcher) handleCall(ctx context.Context, req *ToolRequest) *ToolResponse {
	var params CallParams
	if len(req.Params) == 0 {
		return errorResponse(req.ID, CodeInvalidRequest, "call requires params with a tool name", false)
	}
	if err := commsutil.DecodePayload(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidRequest, "Failed to parse call params", false)
	}
	if params.Name == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "call params require a tool name", false)
	}

	res := d.Dispatch(ctx, params.Name, params.Arguments)
	result := &CallResult{
		Name:     res.Operation,
		Text:     res.Text,
		IsError:  res.IsError,
		Cached:   res.Cached,
		Envelope: res.Envelope,
	}

	switch {
	case IsUnknownOperation(res.Err):
		return errorResponse(req.ID, CodeUnknownOperation, res.Err.Error(), false)
	case IsInvalidArgument(res.Err):
		var iae *InvalidArgumentError
		errors.As(res.Err, &iae)
		resp := errorResponse(req.ID, CodeInvalidArgument, res.Err.Error(), false)
		resp.Error.Details = map[string]string{"field": iae.Field, "reason": iae.Reason}
		return resp
	case res.IsError:
		resp := errorResponse(req.ID, CodeUpstreamError, res.Envelope.Error, false)
		resp.Error.Details = result
		return resp
	}
	return &ToolResponse{ID: req.ID, Ok: true, Result: result}
}

// describe returns the catalog in registration order.
func (d *Dispatcher) describe() map[string]any {
	return map[string]any{
		"version": ToolsetVersion,
		"tools":   d.registry.DescribeAll(),
	}
}

// Describe returns the catalog payload served on the describe subject.
func (d *Dispatcher) Describe() map[string]any { return d.describe() }

func errorResponse(id, code, message string, retryable bool) *ToolResponse {
	return &ToolResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

// TimeoutResponse is sent when a request exceeds its deadline.
func TimeoutResponse(id string, retryable bool) *ToolResponse {
	return errorResponse(id, CodeTimeout, "request timed out", retryable)
}

// TimeoutFor builds the timeout response for req. A timed-out call is
// retryable only when its tool is read-only: a mutation may already have
// reached the upstream.
func (d *Dispatcher) TimeoutFor(req *ToolRequest) *ToolResponse {
	if req.Method != MethodCall {
		return TimeoutResponse(req.ID, true)
	}
	var params CallParams
	if len(req.Params) == 0 || commsutil.DecodePayload(req.Params, &params) != nil {
		return TimeoutResponse(req.ID, false)
	}
	desc, err := d.registry.Resolve(params.Name)
	if err != nil {
		return TimeoutResponse(req.ID, false)
	}
	return TimeoutResponse(req.ID, desc.ReadOnly)
}
