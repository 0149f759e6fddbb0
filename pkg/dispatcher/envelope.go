package dispatcher

import (
	"encoding/json"

	"github.com/morezero/statsig-mcp/pkg/console"
)

// Methods accepted on the NATS tools subject.
const (
	MethodCall     = "call"
	MethodDescribe = "describe"
	MethodHealth   = "health"
)

// Error codes carried in ErrorDetail.
const (
	CodeUnknownOperation = "UNKNOWN_OPERATION"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeVersionMismatch  = "VERSION_MISMATCH"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeMethodNotFound   = "METHOD_NOT_FOUND"
	CodeTimeout          = "TIMEOUT"
)

// ToolRequest is the JSON envelope for tool requests arriving over NATS.
type ToolRequest struct {
	ID     string             `json:"id"`
	Type   string             `json:"type,omitempty"`
	Cap    string             `json:"cap,omitempty"`
	Method string             `json:"method"`
	Params json.RawMessage    `json:"params,omitempty"`
	Ctx    *InvocationContext `json:"ctx,omitempty"`
}

// CallParams are the params of a "call" request.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResponse is the JSON envelope for NATS responses.
type ToolResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result any          `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// CallResult is the result payload of a "call" request.
type CallResult struct {
	Name     string           `json:"name"`
	Text     string           `json:"text"`
	IsError  bool             `json:"isError"`
	Cached   bool             `json:"cached"`
	Envelope console.Envelope `json:"envelope"`
}

// InvocationContext holds context from the caller.
type InvocationContext struct {
	TenantID      string `json:"tenantId,omitempty"`
	UserID        string `json:"userId,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	Env           string `json:"env,omitempty"`
	DeadlineMs    int64  `json:"deadlineMs,omitempty"`
	TimeoutMs     int    `json:"timeoutMs,omitempty"`
}
