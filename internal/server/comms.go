package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/statsig-mcp/pkg/commsutil"
	"github.com/morezero/statsig-mcp/pkg/dispatcher"
)

const commsLogPrefix = "server:comms"

// ToolsSubject is the subject tool requests arrive on.
func (s *Server) ToolsSubject() string {
	if s.cfg.ToolsSubject != "" {
		return s.cfg.ToolsSubject
	}
	return commsutil.SubjectTools
}

// subscribe registers the tool request handler and the catalog responder.
func (s *Server) subscribe(ctx context.Context) error {
	subject := s.ToolsSubject()
	sub, err := s.nc.Subscribe(subject, func(msg *comms.Msg) {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.handleToolMsg(ctx, msg)
		}()
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", commsLogPrefix, subject, err)
	}
	s.subs = append(s.subs, sub)
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", commsLogPrefix, subject))

	describeSubject := commsutil.DescribeSubject(subject)
	dsub, err := s.nc.Subscribe(describeSubject, func(msg *comms.Msg) {
		respond(msg, s.disp.Describe())
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", commsLogPrefix, describeSubject, err)
	}
	s.subs = append(s.subs, dsub)
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", commsLogPrefix, describeSubject))
	return nil
}

func (s *Server) handleToolMsg(ctx context.Context, msg *comms.Msg) {
	var req dispatcher.ToolRequest
	if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to decode request: %v", commsLogPrefix, err))
		respond(msg, &dispatcher.ToolResponse{
			Ok: false,
			Error: &dispatcher.ErrorDetail{
				Code:    dispatcher.CodeInvalidRequest,
				Message: "Failed to decode request",
			},
		})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	reqCtx, cancel := requestContext(ctx, s.cfg.RequestTimeout, req.Ctx, time.Now())
	defer cancel()

	done := make(chan *dispatcher.ToolResponse, 1)
	go func() { done <- s.disp.HandleRequest(reqCtx, &req) }()

	var resp *dispatcher.ToolResponse
	select {
	case resp = <-done:
		if reqCtx.Err() == context.DeadlineExceeded {
			resp = s.disp.TimeoutFor(&req)
		}
	case <-reqCtx.Done():
		slog.Warn(fmt.Sprintf("%s - request %s timed out", commsLogPrefix, req.ID))
		resp = s.disp.TimeoutFor(&req)
	}
	respond(msg, resp)
}

// requestContext bounds a request by ceiling, tightened by the caller's
// deadline or timeout. A deadlineMs past 1e12 is an absolute Unix time in
// milliseconds; smaller values are relative.
func requestContext(parent context.Context, ceiling time.Duration, ic *dispatcher.InvocationContext, now time.Time) (context.Context, context.CancelFunc) {
	timeout := ceiling
	if ic != nil {
		var wanted time.Duration
		switch {
		case ic.DeadlineMs > 1e12:
			wanted = time.UnixMilli(ic.DeadlineMs).Sub(now)
			if wanted <= 0 {
				wanted = time.Millisecond
			}
		case ic.DeadlineMs > 0:
			wanted = time.Duration(ic.DeadlineMs) * time.Millisecond
		case ic.TimeoutMs > 0:
			wanted = time.Duration(ic.TimeoutMs) * time.Millisecond
		}
		if wanted > 0 && wanted < timeout {
			timeout = wanted
		}
	}
	return context.WithTimeout(parent, timeout)
}

func respond(msg *comms.Msg, v any) {
	data, err := commsutil.EncodePayload(v)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", commsLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to respond: %v", commsLogPrefix, err))
	}
}
