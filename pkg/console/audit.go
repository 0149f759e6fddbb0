package console

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultAuditLimit is the page size used when the caller gives none.
const DefaultAuditLimit = 20

// ListAuditLogs lists audit log entries, optionally bounded by from/to dates.
func (c *Client) ListAuditLogs(ctx context.Context, limit int, fromDate, toDate string) Envelope {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	setString(q, "from", fromDate)
	setString(q, "to", toDate)
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("audit_logs"), query: q,
		action: "list", noun: "audit logs",
	})
}
